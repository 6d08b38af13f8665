package kv

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var bucketState = []byte("state")

type BboltStore struct {
	db *bolt.DB
}

var _ Store = (*BboltStore)(nil)

func NewBboltStore(path string) (*BboltStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("bbolt store: db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, unavailable(err, "bbolt store: create directory")
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, unavailable(err, "bbolt store: open")
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketState)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, unavailable(err, "bbolt store: init schema")
	}
	return &BboltStore{db: db}, nil
}

type bboltTx struct {
	b *bolt.Bucket
}

func (t *bboltTx) Get(key string) ([]byte, bool, error) {
	v := t.b.Get([]byte(key))
	if v == nil {
		return nil, false, nil
	}
	// bbolt values are only valid for the life of the transaction
	return append([]byte(nil), v...), true, nil
}

func (t *bboltTx) Set(key string, value []byte) error {
	return unavailable(t.b.Put([]byte(key), value), "bbolt set")
}

func (t *bboltTx) Delete(key string) error {
	return unavailable(t.b.Delete([]byte(key)), "bbolt delete")
}

func (s *BboltStore) View(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.run(s.db.View, fn)
}

func (s *BboltStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.run(s.db.Update, fn)
}

func (s *BboltStore) run(txFn func(func(*bolt.Tx) error) error, fn func(tx Tx) error) error {
	var fnErr error
	err := txFn(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketState)
		if b == nil {
			return errors.New("bbolt store: missing state bucket")
		}
		fnErr = fn(&bboltTx{b: b})
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	return unavailable(err, "bbolt transaction")
}

func (s *BboltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
