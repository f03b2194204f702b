package cache

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	// Default database file permissions
	dbFileMode = 0600
	dbDirMode  = 0755

	expiryHeaderSize = 8
)

var cacheBucket = []byte("cache")

// BoltStore is a persistent single-node tier backed by a bbolt file.
// Values are stored as an 8-byte big-endian expiry (unix nanoseconds) followed by the payload.
type BoltStore struct {
	db  *bolt.DB
	now func() time.Time
}

var _ Store = (*BoltStore)(nil)

// NewBoltStore opens (or creates) the database at dbPath.
func NewBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), dbDirMode); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bolt.Open(dbPath, dbFileMode, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(cacheBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}

	return &BoltStore{db: db, now: time.Now}, nil
}

func (b *BoltStore) Name() string { return "bolt" }

func (b *BoltStore) Get(_ context.Context, key string) ([]byte, time.Duration, bool, error) {
	var (
		value     []byte
		remaining time.Duration
		found     bool
	)

	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(cacheBucket).Get([]byte(key))
		if len(raw) < expiryHeaderSize {
			return nil
		}
		expiresAt := time.Unix(0, int64(binary.BigEndian.Uint64(raw[:expiryHeaderSize])))
		remaining = expiresAt.Sub(b.now())
		if remaining <= 0 {
			return nil
		}
		// raw is only valid inside the transaction
		value = append([]byte(nil), raw[expiryHeaderSize:]...)
		found = true
		return nil
	})
	if err != nil {
		return nil, 0, false, err
	}
	if !found {
		return nil, 0, false, nil
	}
	return value, remaining, true, nil
}

func (b *BoltStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	record := make([]byte, expiryHeaderSize+len(value))
	binary.BigEndian.PutUint64(record[:expiryHeaderSize], uint64(b.now().Add(ttl).UnixNano()))
	copy(record[expiryHeaderSize:], value)

	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(cacheBucket).Put([]byte(key), record)
	})
}

func (b *BoltStore) Delete(_ context.Context, key string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(cacheBucket).Delete([]byte(key))
	})
}

// CleanExpired deletes expired records and returns how many were removed.
func (b *BoltStore) CleanExpired() (int, error) {
	now := b.now().UnixNano()
	removed := 0

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(cacheBucket)
		var expired [][]byte
		if err := bucket.ForEach(func(k, v []byte) error {
			if len(v) < expiryHeaderSize || int64(binary.BigEndian.Uint64(v[:expiryHeaderSize])) <= now {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}
		// deleting while iterating makes the cursor skip keys
		for _, k := range expired {
			if err := bucket.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}

func (b *BoltStore) Close() error {
	return b.db.Close()
}
