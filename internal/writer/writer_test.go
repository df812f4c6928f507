package writer

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xianfeixu/news-scraper-automation/internal/collector"
)

func sampleBatch(collectedAt time.Time) collector.Batch {
	pub := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	return collector.Batch{
		Source:      "cnn",
		CollectedAt: collectedAt,
		Articles: []collector.Article{
			{Title: "first", Text: "plain body", PublishedAt: &pub, Source: "cnn", URL: "http://a/1"},
			{Title: "second, with comma", Text: "line one\nline two", Source: "cnn", URL: "http://a/2"},
			{Title: "third", Text: `has "quotes"`, Source: "cnn", URL: "http://a/3"},
		},
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	root := t.TempDir()
	collectedAt := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	batch := sampleBatch(collectedAt)

	paths, err := New(root).Write(batch)
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %v, want 2 files", paths)
	}

	wantJSON := filepath.Join(root, "2024-05-02", "cnn", "cnn_1714644000.json")
	if paths[0] != wantJSON {
		t.Fatalf("json path = %q, want %q", paths[0], wantJSON)
	}

	data, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var got []collector.Article
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal json: %v", err)
	}
	if len(got) != len(batch.Articles) {
		t.Fatalf("round trip count = %d, want %d", len(got), len(batch.Articles))
	}
	for i := range got {
		want := batch.Articles[i]
		if got[i].Title != want.Title || got[i].Text != want.Text ||
			got[i].Source != want.Source || got[i].URL != want.URL {
			t.Fatalf("article[%d] round trip mismatch: %+v vs %+v", i, got[i], want)
		}
	}
	if got[0].PublishedAt == nil || !got[0].PublishedAt.Equal(*batch.Articles[0].PublishedAt) {
		t.Fatalf("published round trip mismatch: %v", got[0].PublishedAt)
	}
	if got[1].PublishedAt != nil {
		t.Fatalf("nil published should round trip as nil, got %v", got[1].PublishedAt)
	}
}

func TestCSVMatchesJSONRecordForRecord(t *testing.T) {
	root := t.TempDir()
	batch := sampleBatch(time.Now())

	paths, err := New(root).Write(batch)
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}

	f, err := os.Open(paths[1])
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	// 表头 + 每条记录一行
	if len(rows) != len(batch.Articles)+1 {
		t.Fatalf("csv rows = %d, want %d", len(rows), len(batch.Articles)+1)
	}
	if strings.Join(rows[0], ",") != "title,text,published,source,url" {
		t.Fatalf("csv header = %v", rows[0])
	}
	for i, a := range batch.Articles {
		row := rows[i+1]
		if row[0] != a.Title || row[1] != a.Text || row[3] != a.Source || row[4] != a.URL {
			t.Fatalf("csv row %d mismatch: %v vs %+v", i, row, a)
		}
	}
	// 内嵌逗号/换行/引号都要能原样读回（上面的字段比较已覆盖）
}

func TestWriteEmptyBatchStillProducesBothFiles(t *testing.T) {
	root := t.TempDir()
	batch := collector.Batch{Source: "bbc", CollectedAt: time.Now()}

	paths, err := New(root).Write(batch)
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %v, want 2", paths)
	}

	data, _ := os.ReadFile(paths[0])
	if strings.TrimSpace(string(data)) != "[]" {
		t.Fatalf("empty batch json = %q, want []", data)
	}
	data, _ = os.ReadFile(paths[1])
	if strings.TrimSpace(string(data)) != "title,text,published,source,url" {
		t.Fatalf("empty batch csv = %q, want header only", data)
	}
}

func TestWritePathsUniquePerTimestampAndIdempotentDirs(t *testing.T) {
	root := t.TempDir()
	w := New(root)

	t1 := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Second)

	b1 := collector.Batch{Source: "cnn", CollectedAt: t1}
	b2 := collector.Batch{Source: "cnn", CollectedAt: t2}

	p1, err := w.Write(b1)
	if err != nil {
		t.Fatalf("first write: %v", err)
	}
	// 同日期同源的第二次写入：目录已存在不能报错，路径不能冲突
	p2, err := w.Write(b2)
	if err != nil {
		t.Fatalf("second write: %v", err)
	}
	for _, a := range p1 {
		for _, b := range p2 {
			if a == b {
				t.Fatalf("path collision across runs: %q", a)
			}
		}
	}
}
