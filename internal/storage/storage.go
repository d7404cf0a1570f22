package storage

import (
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const searchLogPrefix = "search:"

// SearchRecord is one completed `go` command's result, logged for
// later replay/diagnostics. It is never read back by Search itself —
// the transposition table remains in-memory only, matching the
// engine's "no persisted search state" invariant.
type SearchRecord struct {
	PositionHash uint64        `json:"position_hash"`
	BestMove     string        `json:"best_move"`
	Score        int           `json:"score"`
	Depth        int           `json:"depth"`
	Nodes        uint64        `json:"nodes"`
	Elapsed      time.Duration `json:"elapsed"`
	Timestamp    time.Time     `json:"timestamp"`
}

// Storage wraps BadgerDB for persisting search-statistics snapshots.
type Storage struct {
	db *badger.DB
}

// NewStorage opens (creating if necessary) the on-disk database in
// this platform's standard application data directory.
func NewStorage() (*Storage, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Storage{db: db}, nil
}

// Close closes the database.
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// searchKey builds a lexicographically time-ordered key so that an
// iteration over the searchLogPrefix range replays records oldest
// first: positionHash alone would collide across repeated searches of
// the same position.
func searchKey(hash uint64, ts time.Time) []byte {
	key := make([]byte, len(searchLogPrefix)+8+8)
	n := copy(key, searchLogPrefix)
	binary.BigEndian.PutUint64(key[n:], uint64(ts.UnixNano()))
	binary.BigEndian.PutUint64(key[n+8:], hash)
	return key
}

// RecordSearch persists a completed search's statistics.
func (s *Storage) RecordSearch(rec SearchRecord) error {
	rec.Timestamp = time.Now()

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	key := searchKey(rec.PositionHash, rec.Timestamp)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// RecentSearches returns up to limit of the most recently recorded
// search snapshots, newest first.
func (s *Storage) RecentSearches(limit int) ([]SearchRecord, error) {
	var records []SearchRecord

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(searchLogPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		seekTo := append([]byte(searchLogPrefix), 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)
		for it.Seek(seekTo); it.ValidForPrefix([]byte(searchLogPrefix)) && len(records) < limit; it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var rec SearchRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return err
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	return records, err
}
