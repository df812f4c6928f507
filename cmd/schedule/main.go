package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/xianfeixu/news-scraper-automation/internal/collector"
	"github.com/xianfeixu/news-scraper-automation/internal/config"
	"github.com/xianfeixu/news-scraper-automation/internal/gitsync"
	"github.com/xianfeixu/news-scraper-automation/internal/history"
	"github.com/xianfeixu/news-scraper-automation/internal/logger"
	"github.com/xianfeixu/news-scraper-automation/internal/scheduler"
	"github.com/xianfeixu/news-scraper-automation/internal/source"
	"github.com/xianfeixu/news-scraper-automation/internal/writer"
)

// 常驻进程：首轮立即执行，之后按 SCRAPE_INTERVAL 循环 collect→write→sync，
// 收到 SIGINT/SIGTERM 后等进行中的一轮跑完再退出。
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	// 调度循环包含同步，凭据缺失必须在启动时暴露
	if err := cfg.RequireGitHub(); err != nil {
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
			logger.Warnf("open history db failed: %v", err)
		} else {
			defer store.Close()
			rec = store
		}
	}

	c := collector.New(cfg, collector.NewReadabilityExtractor())
	sy := gitsync.New(cfg.GitHubToken, cfg.GitHubRepo)
	s := scheduler.New(descs, c, writer.New(cfg.DataDir), sy, rec,
		cfg.DataDir, cfg.Interval(), cfg.Concurrency)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.Run(ctx)
}
