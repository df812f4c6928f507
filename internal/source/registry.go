package source

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/xianfeixu/news-scraper-automation/internal/config"
)

// Descriptor 描述一个新闻源的抓取方式。三个 URL/参数按 Topic > FeedURL >
// Homepage 的优先级决定枚举路径。
type Descriptor struct {
	ID       string `yaml:"id"`
	Homepage string `yaml:"homepage"`
	FeedURL  string `yaml:"feed"`
	Topic    string `yaml:"topic"` // Google News 聚合源的主题，如 top / business
}

// UnknownSourceError 请求了未注册的源 id。
type UnknownSourceError struct {
	ID string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("unknown source: %s", e.ID)
}

// Registry 源注册表：内置源加上可选的 YAML 覆盖，构建后只读。
type Registry struct {
	sources map[string]Descriptor
}

// 内置源沿用长期使用的一组站点；新增源走 sources.yaml，不改代码。
func builtins() map[string]Descriptor {
	return map[string]Descriptor{
		"cnn": {
			ID:       "cnn",
			Homepage: "http://edition.cnn.com/",
			FeedURL:  "http://rss.cnn.com/rss/edition.rss",
		},
		"bbc": {
			ID:       "bbc",
			Homepage: "http://www.bbc.com/",
			FeedURL:  "http://feeds.bbci.co.uk/news/rss.xml",
		},
		"theguardian": {
			ID:       "theguardian",
			Homepage: "https://www.theguardian.com/international",
			FeedURL:  "https://www.theguardian.com/international/rss",
		},
		"xinhua": {
			ID:       "xinhua",
			Homepage: "http://www.xinhuanet.com/",
			FeedURL:  "http://www.xinhuanet.com/english/rss/chinarss.xml",
		},
		"google_news_top":        {ID: "google_news_top", Topic: "top"},
		"google_news_business":   {ID: "google_news_business", Topic: "business"},
		"google_news_technology": {ID: "google_news_technology", Topic: "technology"},
		"google_news_health":     {ID: "google_news_health", Topic: "health"},
	}
}

// NewRegistry 构建注册表。file 非空时加载 YAML 源文件，同 id 覆盖内置项。
func NewRegistry(file string) (*Registry, error) {
	r := &Registry{sources: builtins()}
	if file == "" {
		return r, nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, &config.ConfigError{Key: "SOURCES_FILE", Reason: fmt.Sprintf("read %s: %v", file, err)}
	}

	var doc struct {
		Sources []Descriptor `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &config.ConfigError{Key: "SOURCES_FILE", Reason: fmt.Sprintf("parse %s: %v", file, err)}
	}

	for _, d := range doc.Sources {
		if d.ID == "" {
			return nil, &config.ConfigError{Key: "SOURCES_FILE", Reason: fmt.Sprintf("%s: entry without id", file)}
		}
		if d.Homepage == "" && d.FeedURL == "" && d.Topic == "" {
			return nil, &config.ConfigError{Key: "SOURCES_FILE", Reason: fmt.Sprintf("%s: source %s has no homepage, feed or topic", file, d.ID)}
		}
		r.sources[d.ID] = d
	}
	return r, nil
}

// Resolve 按 id 查找源。
func (r *Registry) Resolve(id string) (Descriptor, error) {
	d, ok := r.sources[id]
	if !ok {
		return Descriptor{}, &UnknownSourceError{ID: id}
	}
	return d, nil
}

// ListEnabled 把配置里启用的 id 列表解析为描述符。任何未知 id 都报错，
// 让配置里的笔误在启动时暴露，而不是之后表现为"缺数据"。
func (r *Registry) ListEnabled(ids []string) ([]Descriptor, error) {
	out := make([]Descriptor, 0, len(ids))
	for _, id := range ids {
		d, err := r.Resolve(id)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// IDs 返回全部已注册的源 id（有序，便于日志和测试）。
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.sources))
	for id := range r.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
