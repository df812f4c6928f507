package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ConfigError 配置项非法或缺失，启动期致命错误，会带上出错的 key。
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Reason)
}

// Config 进程级配置，启动时构建一次，之后只读。
type Config struct {
	Sources     []string // 启用的新闻源 id 列表
	SourcesFile string   // 可选的 sources.yaml 路径

	IntervalHours int // 采集周期（小时）
	FeedLimit     int // 每个 feed/聚合源最多取多少条
	HomepageLimit int // 首页链接发现的最大数量
	Concurrency   int // 单轮采集的并发上限

	DataDir   string
	HistoryDB string // 为空则不记录运行历史

	GitHubToken string
	GitHubRepo  string // owner/name

	GNLang    string // Google News 语言，如 zh-CN
	GNCountry string // Google News 国家，如 CN

	LogLevel string
	LogFile  string
}

// Load 读取 .env 与环境变量并做校验。.env 不存在不算错误（与原脚本一致）。
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Sources:     splitList(getEnv("NEWS_SOURCES", "cnn,bbc,theguardian,google_news_top")),
		SourcesFile: getEnv("SOURCES_FILE", ""),
		DataDir:     getEnv("DATA_DIR", "data"),
		HistoryDB:   getEnv("HISTORY_DB", "history.db"),
		GitHubToken: getEnv("GITHUB_TOKEN", ""),
		GitHubRepo:  getEnv("GITHUB_REPO", ""),
		GNLang:      getEnv("GN_LANG", "zh-CN"),
		GNCountry:   getEnv("GN_COUNTRY", "CN"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFile:     getEnv("LOG_FILE", ""),
	}

	var err error
	if cfg.IntervalHours, err = getPositiveInt("SCRAPE_INTERVAL", 6); err != nil {
		return nil, err
	}
	if cfg.FeedLimit, err = getPositiveInt("SCRAPE_LIMIT", 10); err != nil {
		return nil, err
	}
	if cfg.HomepageLimit, err = getPositiveInt("HOMEPAGE_LIMIT", 5); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = getPositiveInt("COLLECT_CONCURRENCY", 4); err != nil {
		return nil, err
	}

	if len(cfg.Sources) == 0 {
		return nil, &ConfigError{Key: "NEWS_SOURCES", Reason: "no sources enabled"}
	}

	return cfg, nil
}

// Interval 返回采集周期。
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalHours) * time.Hour
}

// RequireGitHub 校验同步所需的凭据，缺失时显式报错而不是悄悄跳过同步。
func (c *Config) RequireGitHub() error {
	if c.GitHubToken == "" {
		return &ConfigError{Key: "GITHUB_TOKEN", Reason: "required for sync"}
	}
	if c.GitHubRepo == "" {
		return &ConfigError{Key: "GITHUB_REPO", Reason: "required for sync"}
	}
	if !strings.Contains(c.GitHubRepo, "/") {
		return &ConfigError{Key: "GITHUB_REPO", Reason: "expected owner/name"}
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getPositiveInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &ConfigError{Key: key, Reason: fmt.Sprintf("not a number: %q", raw)}
	}
	if n <= 0 {
		return 0, &ConfigError{Key: key, Reason: fmt.Sprintf("must be positive, got %d", n)}
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
