package history

import (
	"path/filepath"
	"testing"
	"time"
)

func TestRecordAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer s.Close()

	started := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	run := Run{
		ID:         "run-1",
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Sources:    2,
		Articles:   5,
		Files:      4,
		Synced:     false,
		SyncError:  "HTTP 500",
	}
	results := []SourceResult{
		{Source: "cnn", Articles: 3, Failures: 0, Files: 2},
		{Source: "bbc", Articles: 2, Failures: 1, Files: 2, Error: ""},
	}
	if err := s.RecordRun(run, results); err != nil {
		t.Fatalf("RecordRun error: %v", err)
	}

	runs, err := s.RecentRuns(10)
	if err != nil {
		t.Fatalf("RecentRuns error: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs))
	}
	got := runs[0]
	if got.ID != "run-1" || got.Articles != 5 || got.Synced || got.SyncError != "HTTP 500" {
		t.Fatalf("unexpected run: %+v", got)
	}

	srcs, err := s.SourceResults("run-1")
	if err != nil {
		t.Fatalf("SourceResults error: %v", err)
	}
	if len(srcs) != 2 {
		t.Fatalf("source results = %d, want 2", len(srcs))
	}
	// 按源名排序：bbc 在前
	if srcs[0].Source != "bbc" || srcs[0].Failures != 1 {
		t.Fatalf("unexpected source result: %+v", srcs[0])
	}
}

func TestRecentRunsOrderedNewestFirst(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer s.Close()

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := Run{
			ID:         string(rune('a' + i)),
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			FinishedAt: base.Add(time.Duration(i)*time.Hour + time.Minute),
		}
		if err := s.RecordRun(run, nil); err != nil {
			t.Fatalf("RecordRun %d: %v", i, err)
		}
	}

	runs, err := s.RecentRuns(2)
	if err != nil {
		t.Fatalf("RecentRuns error: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Fatalf("unexpected order: %+v", runs)
	}
}
