package collector

import "time"

// Article 统一的文章结构，feed、首页、聚合源三条路径产出同一形状。
type Article struct {
	Title       string     `json:"title"`
	Text        string     `json:"text"`
	PublishedAt *time.Time `json:"published"` // 未知时为 null
	Source      string     `json:"source"`
	URL         string     `json:"url"`
}

// Failure 一次被隔离的采集失败。URL 为空表示源级失败（feed/首页不可达）。
type Failure struct {
	Source string `json:"source"`
	URL    string `json:"url,omitempty"`
	Reason string `json:"reason"`
}

// Batch 单个源在一轮采集中的结果，写盘后即丢弃，不跨轮保留。
type Batch struct {
	Source      string
	CollectedAt time.Time
	Articles    []Article // 保持枚举顺序
	Failures    []Failure
}
