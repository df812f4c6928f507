package writer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xianfeixu/news-scraper-automation/internal/collector"
	"github.com/xianfeixu/news-scraper-automation/internal/logger"
)

// Writer 把批次落盘到 <root>/<YYYY-MM-DD>/<source>/<source>_<unix>.<ext>。
// 日期和时间戳取同一个 CollectedAt，两个文件靠时间戳即可对应。
type Writer struct {
	root        string
	serializers []Serializer
}

func New(root string) *Writer {
	return &Writer{
		root:        root,
		serializers: []Serializer{JSONSerializer{}, CSVSerializer{}},
	}
}

// Write 依次渲染每种格式，返回写出的文件路径。空批次同样产出两个文件，
// "采到了零条"和"源不可用"在数据树里是可区分的两回事。
func (w *Writer) Write(batch collector.Batch) ([]string, error) {
	date := batch.CollectedAt.UTC().Format("2006-01-02")
	dir := filepath.Join(w.root, date, batch.Source)
	// MkdirAll 幂等，目录已存在不报错
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	ts := batch.CollectedAt.Unix()
	paths := make([]string, 0, len(w.serializers))
	for _, s := range w.serializers {
		data, err := s.Marshal(batch)
		if err != nil {
			return paths, fmt.Errorf("marshal %s: %w", s.Ext(), err)
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_%d.%s", batch.Source, ts, s.Ext()))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}

	logger.Infow("batch written", "source", batch.Source,
		"articles", len(batch.Articles), "files", len(paths))
	return paths, nil
}
