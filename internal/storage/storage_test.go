package storage

import (
	"os"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
)

func openTestStorage(t *testing.T) *Storage {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "chessplay-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	opts := badger.DefaultOptions(tmpDir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("failed to open badger db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &Storage{db: db}
}

func TestRecordAndRecentSearches(t *testing.T) {
	s := openTestStorage(t)

	records := []SearchRecord{
		{PositionHash: 0x1, BestMove: "e2e4", Score: 25, Depth: 10, Nodes: 100000, Elapsed: 500 * time.Millisecond},
		{PositionHash: 0x2, BestMove: "d2d4", Score: 18, Depth: 12, Nodes: 200000, Elapsed: 800 * time.Millisecond},
		{PositionHash: 0x3, BestMove: "g1f3", Score: 10, Depth: 8, Nodes: 50000, Elapsed: 200 * time.Millisecond},
	}

	for _, r := range records {
		if err := s.RecordSearch(r); err != nil {
			t.Fatalf("RecordSearch failed: %v", err)
		}
		time.Sleep(time.Millisecond) // force distinct timestamps
	}

	recent, err := s.RecentSearches(2)
	if err != nil {
		t.Fatalf("RecentSearches failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recent))
	}
	if recent[0].BestMove != "g1f3" {
		t.Errorf("expected newest record first (g1f3), got %s", recent[0].BestMove)
	}
	if recent[1].BestMove != "d2d4" {
		t.Errorf("expected second-newest record (d2d4), got %s", recent[1].BestMove)
	}
}

func TestDataPaths(t *testing.T) {
	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if dataDir == "" {
		t.Error("GetDataDir returned empty path")
	}

	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		t.Errorf("data directory was not created: %s", dataDir)
	}
}
