package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"storefront/internal/apperr"
)

// Sequence hands out monotonic ids per name. Next returns max(last, floor)+1 and
// remembers it, so ids are never reissued even after the highest record is deleted.
type Sequence interface {
	Next(ctx context.Context, name string, floor int64) (int64, error)
}

type MemorySequence struct {
	mu   sync.Mutex
	last map[string]int64
}

func NewMemorySequence() *MemorySequence {
	return &MemorySequence{last: make(map[string]int64)}
}

func (s *MemorySequence) Next(_ context.Context, name string, floor int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := max(s.last[name], floor) + 1
	s.last[name] = next
	return next, nil
}

var sequencesBucket = []byte("sequences")

// BoltSequence keeps one nested bucket per name and uses the bucket sequence as the counter.
type BoltSequence struct {
	db *bolt.DB
}

func OpenBoltSequence(path string) (*BoltSequence, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, apperr.IO("create sequence dir", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, apperr.IO(fmt.Sprintf("open sequence file %s", path), err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sequencesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, apperr.IO("init sequence bucket", err)
	}
	return &BoltSequence{db: db}, nil
}

func (s *BoltSequence) Next(_ context.Context, name string, floor int64) (int64, error) {
	var next int64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(sequencesBucket).CreateBucketIfNotExists([]byte(name))
		if err != nil {
			return err
		}
		next = max(int64(b.Sequence()), floor) + 1
		return b.SetSequence(uint64(next))
	})
	if err != nil {
		return 0, apperr.IO("advance sequence "+name, err)
	}
	return next, nil
}

func (s *BoltSequence) Close() error {
	return s.db.Close()
}
