package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store 本地运行历史索引，落在数据树之外的一个 sqlite 文件里。
// 只记录计数与失败原因，不存文章内容，避免演变成去重存储。
type Store struct {
	db *sql.DB
}

// Run 一轮采集的汇总。
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Sources    int
	Articles   int
	Files      int
	Synced     bool
	SyncError  string
}

// SourceResult 单个源在该轮里的结果。
type SourceResult struct {
	Source   string
	Articles int
	Failures int
	Files    int
	Error    string // 写盘失败等源级错误
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  TIMESTAMP NOT NULL,
	finished_at TIMESTAMP NOT NULL,
	sources     INTEGER NOT NULL,
	articles    INTEGER NOT NULL,
	files       INTEGER NOT NULL,
	synced      INTEGER NOT NULL,
	sync_error  TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS run_sources (
	run_id   TEXT NOT NULL REFERENCES runs(id),
	source   TEXT NOT NULL,
	articles INTEGER NOT NULL,
	failures INTEGER NOT NULL,
	files    INTEGER NOT NULL,
	error    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_run_sources_source ON run_sources(source);
`

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun 落一条运行记录及其按源明细，整体在一个事务里。
func (s *Store) RecordRun(run Run, results []SourceResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, started_at, finished_at, sources, articles, files, synced, sync_error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt, run.FinishedAt, run.Sources,
		run.Articles, run.Files, boolToInt(run.Synced), run.SyncError,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, r := range results {
		_, err = tx.Exec(
			`INSERT INTO run_sources (run_id, source, articles, failures, files, error)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, r.Source, r.Articles, r.Failures, r.Files, r.Error,
		)
		if err != nil {
			return fmt.Errorf("insert run source %s: %w", r.Source, err)
		}
	}

	return tx.Commit()
}

// RecentRuns 按开始时间倒序返回最近的运行记录。
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, started_at, finished_at, sources, articles, files, synced, sync_error
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var synced int
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Sources,
			&r.Articles, &r.Files, &synced, &r.SyncError); err != nil {
			return nil, err
		}
		r.Synced = synced != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// SourceResults 返回某一轮的按源明细。
func (s *Store) SourceResults(runID string) ([]SourceResult, error) {
	rows, err := s.db.Query(
		`SELECT source, articles, failures, files, error
		 FROM run_sources WHERE run_id = ? ORDER BY source`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SourceResult
	for rows.Next() {
		var r SourceResult
		if err := rows.Scan(&r.Source, &r.Articles, &r.Failures, &r.Files, &r.Error); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
