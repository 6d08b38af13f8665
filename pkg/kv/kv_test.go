package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	bolt, err := NewBboltStore(filepath.Join(dir, "state.db"))
	require.NoError(t, err)
	sqlite, err := NewSQLiteStore(SQLiteDSNForFile(filepath.Join(dir, "state.sqlite")))
	require.NoError(t, err)

	ret := map[string]Store{
		"memory": NewMemoryStore(),
		"bbolt":  bolt,
		"sqlite": sqlite,
	}
	t.Cleanup(func() {
		for _, s := range ret {
			_ = s.Close()
		}
	})
	return ret
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Update(ctx, func(tx Tx) error {
				return tx.Set("a", []byte("1"))
			}))

			require.NoError(t, s.View(ctx, func(tx Tx) error {
				v, ok, err := tx.Get("a")
				require.NoError(t, err)
				assert.True(t, ok)
				assert.Equal(t, []byte("1"), v)

				_, ok, err = tx.Get("missing")
				require.NoError(t, err)
				assert.False(t, ok)
				return nil
			}))

			require.NoError(t, s.Update(ctx, func(tx Tx) error {
				return tx.Delete("a")
			}))
			require.NoError(t, s.View(ctx, func(tx Tx) error {
				_, ok, err := tx.Get("a")
				require.NoError(t, err)
				assert.False(t, ok)
				return nil
			}))
		})
	}
}

func TestStoreUpdateIsAtomic(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Update(ctx, func(tx Tx) error {
				return tx.Set("k", []byte("before"))
			}))

			err := s.Update(ctx, func(tx Tx) error {
				if err := tx.Set("k", []byte("after")); err != nil {
					return err
				}
				if err := tx.Set("other", []byte("x")); err != nil {
					return err
				}
				v, ok, err := tx.Get("k")
				require.NoError(t, err)
				require.True(t, ok)
				assert.Equal(t, []byte("after"), v)
				return boom
			})
			assert.ErrorIs(t, err, boom)

			require.NoError(t, s.View(ctx, func(tx Tx) error {
				v, _, err := tx.Get("k")
				require.NoError(t, err)
				assert.Equal(t, []byte("before"), v)
				_, ok, err := tx.Get("other")
				require.NoError(t, err)
				assert.False(t, ok)
				return nil
			}))
		})
	}
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Close())
	err := s.View(context.Background(), func(tx Tx) error { return nil })
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
}

func TestBboltPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	s, err := NewBboltStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, func(tx Tx) error {
		return tx.Set("session_1", []byte(`[]`))
	}))
	require.NoError(t, s.Close())

	s, err = NewBboltStore(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	require.NoError(t, s.View(ctx, func(tx Tx) error {
		v, ok, err := tx.Get("session_1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte(`[]`), v)
		return nil
	}))
}
