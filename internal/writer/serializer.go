package writer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"

	"github.com/xianfeixu/news-scraper-automation/internal/collector"
)

// Serializer 把一个批次渲染成某种格式的字节流。新格式只需新增实现并注册，
// 采集和调度侧不感知。
type Serializer interface {
	Ext() string
	Marshal(batch collector.Batch) ([]byte, error)
}

// JSONSerializer 输出文章数组，缩进格式与原脚本的 json.dump(indent=4) 对齐。
type JSONSerializer struct{}

func (JSONSerializer) Ext() string { return "json" }

func (JSONSerializer) Marshal(batch collector.Batch) ([]byte, error) {
	articles := batch.Articles
	if articles == nil {
		articles = []collector.Article{} // 空批次序列化为 []，不是 null
	}
	return json.MarshalIndent(articles, "", "    ")
}

// csvHeader 列顺序是对外契约的一部分，调整即破坏下游。
var csvHeader = []string{"title", "text", "published", "source", "url"}

// CSVSerializer 输出带表头的 CSV，内嵌分隔符/换行由 encoding/csv 按规范转义。
type CSVSerializer struct{}

func (CSVSerializer) Ext() string { return "csv" }

func (CSVSerializer) Marshal(batch collector.Batch) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, a := range batch.Articles {
		published := ""
		if a.PublishedAt != nil {
			published = a.PublishedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		}
		if err := w.Write([]string{a.Title, a.Text, published, a.Source, a.URL}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
