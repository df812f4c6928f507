package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/xianfeixu/news-scraper-automation/internal/config"
	"github.com/xianfeixu/news-scraper-automation/internal/gitsync"
	"github.com/xianfeixu/news-scraper-automation/internal/logger"
)

// 只对现有数据树做一次同步，不采集。用于补推之前失败的轮次。
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := cfg.RequireGitHub(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := gitsync.New(cfg.GitHubToken, cfg.GitHubRepo).Sync(ctx, cfg.DataDir)
	if err != nil {
		logger.Errorf("sync failed: %v", err)
		os.Exit(1)
	}
	logger.Infof("sync done: uploaded=%d skipped=%d failed=%d", res.Uploaded, res.Skipped, res.Failed)
}
