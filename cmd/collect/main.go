package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/xianfeixu/news-scraper-automation/internal/collector"
	"github.com/xianfeixu/news-scraper-automation/internal/config"
	"github.com/xianfeixu/news-scraper-automation/internal/history"
	"github.com/xianfeixu/news-scraper-automation/internal/logger"
	"github.com/xianfeixu/news-scraper-automation/internal/scheduler"
	"github.com/xianfeixu/news-scraper-automation/internal/source"
	"github.com/xianfeixu/news-scraper-automation/internal/writer"
)

// 只执行一轮采集加写盘后退出，适合手动触发或外部 cron。
// 个别源失败不影响退出码：部分成功也是成功，只有启动配置错误返回非零。
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync()

	reg, err := source.NewRegistry(cfg.SourcesFile)
	if err != nil {
		logger.Errorf("load source registry failed: %v", err)
		os.Exit(2)
	}
	descs, err := reg.ListEnabled(cfg.Sources)
	if err != nil {
		logger.Errorf("resolve enabled sources failed: %v", err)
		os.Exit(2)
	}

	var rec scheduler.Recorder
	if cfg.HistoryDB != "" {
		store, err := history.Open(cfg.HistoryDB)
		if err != nil {
			// 历史记录是辅助能力，打不开不阻塞采集
			logger.Warnf("open history db failed: %v", err)
		} else {
			defer store.Close()
			rec = store
		}
	}

	c := collector.New(cfg, collector.NewReadabilityExtractor())
	s := scheduler.New(descs, c, writer.New(cfg.DataDir), nil, rec,
		cfg.DataDir, cfg.Interval(), cfg.Concurrency)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary := s.RunOnce(ctx)
	logger.Infof("collect pass done: articles=%d files=%d failures=%d",
		summary.Articles, len(summary.Paths), summary.Failures)
}
