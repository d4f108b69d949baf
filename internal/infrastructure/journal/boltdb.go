package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/energy-backoffice/domain"
)

// Store is a durable FIFO of modification-log entries waiting to be shipped to PostgreSQL.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

// Record is one queued entry together with its delivery bookkeeping.
type Record struct {
	Entry    domain.LogEntry `json:"entry"`
	Attempts int             `json:"attempts"`
	QueuedAt time.Time       `json:"queued_at"`

	key []byte
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = "modification_logs"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, bucket: []byte(bucket)}, nil
}

// Append queues entry. Keys sort by queue time so batches come out oldest first.
func (s *Store) Append(entry domain.LogEntry) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	rec := Record{Entry: entry, QueuedAt: time.Now().UTC()}
	return s.put(&rec)
}

// Batch returns up to limit records without removing them.
func (s *Store) Batch(limit int) ([]Record, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 100
	}
	var out []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil && len(out) < limit; k, v = c.Next() {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			rec.key = append([]byte(nil), k...)
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

// Remove deletes shipped records in one transaction.
func (s *Store) Remove(records ...Record) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		for _, rec := range records {
			if len(rec.key) == 0 {
				continue
			}
			if err := b.Delete(rec.key); err != nil {
				return err
			}
		}
		return nil
	})
}

// Retry bumps the attempt counter of records in place, keeping their queue position.
func (s *Store) Retry(records ...Record) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		for _, rec := range records {
			if len(rec.key) == 0 {
				continue
			}
			rec.Attempts++
			payload, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := b.Put(rec.key, payload); err != nil {
				return err
			}
		}
		return nil
	})
}

// Size returns the number of queued records.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(s.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Cleanup drops records queued before olderThan and reports how many went.
func (s *Store) Cleanup(olderThan time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var dropped int
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		var expired [][]byte
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			if !rec.QueuedAt.Before(olderThan) {
				// keys are time ordered, nothing older follows
				break
			}
			expired = append(expired, append([]byte(nil), k...))
		}
		for _, k := range expired {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		dropped = len(expired)
		return nil
	})
	return dropped, err
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) put(rec *Record) error {
	rec.key = []byte(fmt.Sprintf("%020d_%s", rec.QueuedAt.UnixNano(), rec.Entry.ID))
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put(rec.key, payload)
	})
}
