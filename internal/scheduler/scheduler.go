package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/xianfeixu/news-scraper-automation/internal/collector"
	"github.com/xianfeixu/news-scraper-automation/internal/gitsync"
	"github.com/xianfeixu/news-scraper-automation/internal/history"
	"github.com/xianfeixu/news-scraper-automation/internal/logger"
	"github.com/xianfeixu/news-scraper-automation/internal/source"
)

// State 调度器状态机：Idle → Running → Idle → … → Stopped。
type State int32

const (
	Idle State = iota
	Running
	Stopped
)

// Collector 单个源的一轮采集。
type Collector interface {
	Collect(ctx context.Context, desc source.Descriptor) collector.Batch
}

// Writer 批次落盘。
type Writer interface {
	Write(batch collector.Batch) ([]string, error)
}

// Syncer 外部协作者：把整个数据树推到远端仓库。
type Syncer interface {
	Sync(ctx context.Context, root string) (gitsync.Result, error)
}

// Recorder 运行历史落库。
type Recorder interface {
	RecordRun(run history.Run, results []history.SourceResult) error
}

// RunSummary 一轮 collect→write→sync 的汇总，供入口程序打印与测试断言。
type RunSummary struct {
	RunID    string
	Articles int
	Failures int
	Paths    []string
	Synced   bool
	SyncErr  error
}

// Scheduler 定时驱动采集循环。同一时刻只有一轮在跑：下一轮从上一轮
// 结束时开始计时，慢轮只会推迟后续节拍，不会重叠。
type Scheduler struct {
	sources   []source.Descriptor
	collector Collector
	writer    Writer
	syncer    Syncer   // nil 表示本进程不做同步
	recorder  Recorder // nil 表示不记录运行历史

	dataDir     string
	interval    time.Duration
	concurrency int

	// sleep 轮间等待，返回 false 表示等待期间被取消。测试替换成假等待。
	sleep func(ctx context.Context, d time.Duration) bool

	state atomic.Int32
}

func New(sources []source.Descriptor, c Collector, w Writer, sy Syncer, rec Recorder,
	dataDir string, interval time.Duration, concurrency int) *Scheduler {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Scheduler{
		sources:     sources,
		collector:   c,
		writer:      w,
		syncer:      sy,
		recorder:    rec,
		dataDir:     dataDir,
		interval:    interval,
		concurrency: concurrency,
		sleep:       sleepCtx,
	}
}

// sleepCtx 可取消的睡眠，取消时释放定时器。
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// State 返回当前状态，测试与诊断用。
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Run 阻塞运行：立即执行首轮，之后每轮结束后睡 interval 再继续，
// 直到 ctx 取消。进行中的一轮会先跑完再停。
func (s *Scheduler) Run(ctx context.Context) {
	logger.Infof("scheduler started, interval=%s sources=%d", s.interval, len(s.sources))
	for {
		s.RunOnce(ctx)
		// 下一轮从这一轮结束时开始计时
		if ctx.Err() != nil || !s.sleep(ctx, s.interval) {
			s.state.Store(int32(Stopped))
			logger.Infof("scheduler stopped")
			return
		}
	}
}

// sourceSlot 每个源独占一个槽位，并发任务之间没有共享可变结构，
// join 之后再合并。
type sourceSlot struct {
	batch    collector.Batch
	paths    []string
	writeErr error
}

// RunOnce 执行一轮完整的 collect→write→sync。轮内任何失败只记录，
// 不向调用方传播，下一轮照常执行。
func (s *Scheduler) RunOnce(ctx context.Context) RunSummary {
	s.state.Store(int32(Running))
	defer s.state.Store(int32(Idle))

	started := time.Now()
	runID := uuid.NewString()
	logger.Infow("run started", "run", runID, "sources", len(s.sources))

	slots := make([]sourceSlot, len(s.sources))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for i, desc := range s.sources {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, desc source.Descriptor) {
			defer wg.Done()
			defer func() { <-sem }()

			batch := s.collector.Collect(ctx, desc)
			paths, err := s.writer.Write(batch)
			if err != nil {
				// 写盘失败只影响这个源，其余源继续
				logger.Errorw("write batch failed", "source", desc.ID, "reason", err.Error())
			}
			slots[i] = sourceSlot{batch: batch, paths: paths, writeErr: err}
		}(i, desc)
	}
	wg.Wait()

	summary := RunSummary{RunID: runID}
	results := make([]history.SourceResult, 0, len(slots))
	for _, sl := range slots {
		summary.Articles += len(sl.batch.Articles)
		summary.Failures += len(sl.batch.Failures)
		summary.Paths = append(summary.Paths, sl.paths...)

		r := history.SourceResult{
			Source:   sl.batch.Source,
			Articles: len(sl.batch.Articles),
			Failures: len(sl.batch.Failures),
			Files:    len(sl.paths),
		}
		if sl.writeErr != nil {
			r.Error = sl.writeErr.Error()
		}
		results = append(results, r)
	}

	// 每轮对整棵数据树同步一次；失败只记日志，文件留在盘上等下一轮
	if s.syncer != nil {
		res, err := s.syncer.Sync(ctx, s.dataDir)
		if err != nil {
			summary.SyncErr = err
			logger.Errorw("sync failed", "run", runID, "reason", err.Error())
		} else {
			summary.Synced = res.Pushed
		}
	}

	if s.recorder != nil {
		run := history.Run{
			ID:         runID,
			StartedAt:  started,
			FinishedAt: time.Now(),
			Sources:    len(s.sources),
			Articles:   summary.Articles,
			Files:      len(summary.Paths),
			Synced:     summary.Synced,
		}
		if summary.SyncErr != nil {
			run.SyncError = summary.SyncErr.Error()
		}
		if err := s.recorder.RecordRun(run, results); err != nil {
			logger.Warnw("record run failed", "run", runID, "reason", err.Error())
		}
	}

	logger.Infow("run finished", "run", runID,
		"articles", summary.Articles, "failures", summary.Failures,
		"files", len(summary.Paths), "elapsed", time.Since(started).String())
	return summary
}
