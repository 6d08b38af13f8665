// Package kv is the small transactional key/value layer the session store
// persists through. Keys are flat strings, values opaque bytes.
package kv

import (
	"context"

	"github.com/pkg/errors"
)

// ErrStorageUnavailable wraps every failure of the underlying backend.
var ErrStorageUnavailable = errors.New("storage unavailable")

type Tx interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Store runs functions inside a transaction. Writes made by an Update
// function become visible together when it returns nil and are discarded
// otherwise.
type Store interface {
	View(ctx context.Context, fn func(tx Tx) error) error
	Update(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

func unavailable(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(errors.WithMessage(ErrStorageUnavailable, err.Error()), msg)
}

// IsUnavailable reports whether err came from a failing backend.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}
