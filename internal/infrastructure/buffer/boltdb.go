package buffer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Store is the bbolt-backed outbox. Keys sort by priority then enqueue time; an item id
// is unique, so re-enqueueing the same task replaces its pending delivery.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path string, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = "outbox"
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

	return &Store{
		db:     db,
		bucket: []byte(bucket),
	}, nil
}

// Enqueue stores the item, dropping any pending item with the same id.
func (s *Store) Enqueue(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	item.normalize()
	item.bucketKey = []byte(buildKey(item))

	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if err := deleteByID(b, item.ID); err != nil {
			return err
		}
		return b.Put(item.bucketKey, payload)
	})
}

// GetBatch returns up to limit items that are due at now, without removing them.
func (s *Store) GetBatch(limit int, now time.Time) ([]Item, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	var items []Item
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil && len(items) < limit; k, v = c.Next() {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				continue
			}
			if !item.Due(now) {
				continue
			}
			item.bucketKey = append([]byte(nil), k...)
			items = append(items, item)
		}
		return nil
	})
	return items, err
}

// Get returns the pending item with the given id.
func (s *Store) Get(id string) (*Item, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, bolt.ErrDatabaseNotOpen
	}
	var found *Item
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(k, v []byte) error {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				return nil
			}
			if item.ID == id {
				item.bucketKey = append([]byte(nil), k...)
				found = &item
			}
			return nil
		})
	})
	return found, found != nil, err
}

// Remove deletes the provided item from the outbox.
func (s *Store) Remove(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if len(item.bucketKey) == 0 {
			return deleteByID(b, item.ID)
		}
		return b.Delete(item.bucketKey)
	})
}

// Requeue stores the item again after a failed attempt, not to be retried before notBefore.
func (s *Store) Requeue(item Item, notBefore time.Time) error {
	item.bucketKey = nil
	item.Timestamp = time.Now()
	item.NotBefore = notBefore
	return s.Enqueue(item)
}

// Size returns the number of pending items.
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

// Cleanup removes items older than the provided timestamp and returns how many were dropped.
func (s *Store) Cleanup(olderThan time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				return nil
			}
			if item.Timestamp.Before(olderThan) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Stats exposes Bolt statistics for monitoring endpoints.
func (s *Store) Stats() bolt.Stats {
	if s == nil || s.db == nil {
		return bolt.Stats{}
	}
	return s.db.Stats()
}

func deleteByID(b *bolt.Bucket, id string) error {
	if id == "" {
		return nil
	}
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var item Item
		if err := json.Unmarshal(v, &item); err != nil {
			continue
		}
		if item.ID == id {
			return c.Delete()
		}
	}
	return nil
}

func buildKey(item Item) string {
	return fmt.Sprintf("%d_%020d_%s", item.Priority, item.Timestamp.UnixNano(), item.ID)
}
