package account

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yolodolo42/erdwallet/internal/storage"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// brokenStore fails every call the way an unreachable backend would.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, bool, error) {
	return "", false, fmt.Errorf("%w: disk gone", storage.ErrUnavailable)
}
func (brokenStore) Set(context.Context, string, string) error {
	return fmt.Errorf("%w: disk gone", storage.ErrUnavailable)
}
func (brokenStore) Delete(context.Context, string) error {
	return fmt.Errorf("%w: disk gone", storage.ErrUnavailable)
}
func (brokenStore) Close() error { return nil }

func rec(addr string, createdAt int64) Record {
	return Record{ID: "id-" + addr, Name: addr, Address: addr, SecretKey: "key-" + addr, CreatedAt: createdAt}
}

func addresses(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Address
	}
	return out
}

func TestRepository_List(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		repo := NewRepository(storage.NewMemory(), nil)
		records, err := repo.List(ctx, Ascending)
		require.NoError(t, err)
		assert.Empty(t, records)
		assert.NotNil(t, records)
	})

	t.Run("orders by createdAt", func(t *testing.T) {
		repo := NewRepository(storage.NewMemory(), nil)
		for _, r := range []Record{rec("b", 200), rec("a", 100), rec("c", 300)} {
			_, _, err := repo.Add(ctx, r)
			require.NoError(t, err)
		}

		asc, err := repo.List(ctx, Ascending)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, addresses(asc))

		desc, err := repo.List(ctx, Descending)
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "b", "a"}, addresses(desc))
	})

	t.Run("ties keep insertion order", func(t *testing.T) {
		repo := NewRepository(storage.NewMemory(), nil)
		for _, r := range []Record{rec("x", 5), rec("y", 5), rec("z", 5)} {
			_, _, err := repo.Add(ctx, r)
			require.NoError(t, err)
		}
		asc, err := repo.List(ctx, Ascending)
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y", "z"}, addresses(asc))

		desc, err := repo.List(ctx, Descending)
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y", "z"}, addresses(desc))
	})

	t.Run("corrupt payload degrades to empty and logs without secrets", func(t *testing.T) {
		store := storage.NewMemory()
		require.NoError(t, store.Set(ctx, StorageKey, `[{"address":"erd1q","privateKey":"cafebabe"`))

		core, logs := observer.New(zapcore.WarnLevel)
		repo := NewRepository(store, zap.New(core))

		records, err := repo.List(ctx, Ascending)
		require.NoError(t, err)
		assert.Empty(t, records)

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.NotContains(t, fmt.Sprint(entry.ContextMap()), "cafebabe")
	})

	t.Run("incomplete records are skipped", func(t *testing.T) {
		store := storage.NewMemory()
		require.NoError(t, store.Set(ctx, StorageKey, `[
			{"id":"1","name":"ok","address":"erd1ok","privateKey":"aa","createdAt":1},
			{"id":"2","name":"no address","address":"","privateKey":"deadbeef","createdAt":2},
			{"id":"3","name":"no key","address":"erd1nokey","createdAt":3}
		]`))

		core, logs := observer.New(zapcore.WarnLevel)
		repo := NewRepository(store, zap.New(core))

		records, err := repo.List(ctx, Ascending)
		require.NoError(t, err)
		assert.Equal(t, []string{"erd1ok"}, addresses(records))

		require.Equal(t, 2, logs.FilterMessage("skipping incomplete stored account").Len())
		for _, entry := range logs.All() {
			assert.NotContains(t, fmt.Sprint(entry.ContextMap()), "deadbeef")
		}
	})

	t.Run("backend failure surfaces", func(t *testing.T) {
		repo := NewRepository(brokenStore{}, nil)
		_, err := repo.List(ctx, Ascending)
		require.Error(t, err)
		assert.True(t, errors.Is(err, storage.ErrUnavailable))
	})
}

func TestRepository_Add(t *testing.T) {
	ctx := context.Background()

	t.Run("is idempotent by address", func(t *testing.T) {
		repo := NewRepository(storage.NewMemory(), nil)

		first, added, err := repo.Add(ctx, rec("erd1a", 1))
		require.NoError(t, err)
		assert.True(t, added)

		dup := rec("erd1a", 2)
		dup.Name = "other"
		got, added, err := repo.Add(ctx, dup)
		require.NoError(t, err)
		assert.False(t, added)
		assert.Equal(t, first, got)

		all, err := repo.List(ctx, Ascending)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("fills defaults", func(t *testing.T) {
		repo := NewRepository(storage.NewMemory(), nil)
		_, _, err := repo.Add(ctx, rec("erd1a", 1))
		require.NoError(t, err)

		got, added, err := repo.Add(ctx, Record{Address: "erd1b", SecretKey: "k"})
		require.NoError(t, err)
		assert.True(t, added)
		assert.NotEmpty(t, got.ID)
		assert.Equal(t, "Wallet 2", got.Name)
		assert.NotZero(t, got.CreatedAt)
	})

	t.Run("rejects incomplete records", func(t *testing.T) {
		repo := NewRepository(storage.NewMemory(), nil)
		_, _, err := repo.Add(ctx, Record{Address: "erd1a"})
		assert.ErrorIs(t, err, ErrInvalidRecord)

		_, _, err = repo.Add(ctx, Record{SecretKey: "k"})
		assert.ErrorIs(t, err, ErrInvalidRecord)
	})

	t.Run("concurrent adds of the same address keep one record", func(t *testing.T) {
		repo := NewRepository(storage.NewMemory(), nil)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, _ = repo.Add(ctx, rec("erd1same", 1))
			}()
		}
		wg.Wait()

		all, err := repo.List(ctx, Ascending)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("concurrent adds of different addresses are all kept", func(t *testing.T) {
		repo := NewRepository(storage.NewMemory(), nil)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, _, _ = repo.Add(ctx, rec(fmt.Sprintf("erd1n%d", i), int64(i)))
			}(i)
		}
		wg.Wait()

		all, err := repo.List(ctx, Ascending)
		require.NoError(t, err)
		assert.Len(t, all, 20)
	})

	t.Run("corrupt payload is replaced by the new collection", func(t *testing.T) {
		store := storage.NewMemory()
		require.NoError(t, store.Set(ctx, StorageKey, "{oops"))
		repo := NewRepository(store, nil)

		_, added, err := repo.Add(ctx, rec("erd1a", 1))
		require.NoError(t, err)
		assert.True(t, added)

		all, err := repo.List(ctx, Ascending)
		require.NoError(t, err)
		assert.Equal(t, []string{"erd1a"}, addresses(all))
	})

	t.Run("backend failure surfaces", func(t *testing.T) {
		repo := NewRepository(brokenStore{}, nil)
		_, _, err := repo.Add(ctx, rec("erd1a", 1))
		assert.ErrorIs(t, err, storage.ErrUnavailable)
	})
}

func TestRepository_Remove(t *testing.T) {
	ctx := context.Background()

	t.Run("removes only the matching address", func(t *testing.T) {
		repo := NewRepository(storage.NewMemory(), nil)
		for _, r := range []Record{rec("a", 1), rec("b", 2), rec("c", 3)} {
			_, _, err := repo.Add(ctx, r)
			require.NoError(t, err)
		}

		removed, err := repo.Remove(ctx, "b")
		require.NoError(t, err)
		assert.True(t, removed)

		all, err := repo.List(ctx, Ascending)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c"}, addresses(all))
	})

	t.Run("absent address is a no-op", func(t *testing.T) {
		store := storage.NewMemory()
		repo := NewRepository(store, nil)
		_, _, err := repo.Add(ctx, rec("a", 1))
		require.NoError(t, err)
		before, _, _ := store.Get(ctx, StorageKey)

		removed, err := repo.Remove(ctx, "zzz")
		require.NoError(t, err)
		assert.False(t, removed)

		after, _, _ := store.Get(ctx, StorageKey)
		assert.Equal(t, before, after)
	})
}

func TestRepository_Clear(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	repo := NewRepository(store, nil)
	_, _, err := repo.Add(ctx, rec("a", 1))
	require.NoError(t, err)

	require.NoError(t, repo.Clear(ctx))

	all, err := repo.List(ctx, Ascending)
	require.NoError(t, err)
	assert.Empty(t, all)

	raw, ok, err := store.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", raw)
}

func TestRepository_FindAndRename(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(storage.NewMemory(), nil)
	_, _, err := repo.Add(ctx, rec("a", 1))
	require.NoError(t, err)

	t.Run("find", func(t *testing.T) {
		got, ok, err := repo.FindByAddress(ctx, "a")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "key-a", got.SecretKey)

		_, ok, err = repo.FindByAddress(ctx, "b")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("rename", func(t *testing.T) {
		got, err := repo.Rename(ctx, "a", "Savings")
		require.NoError(t, err)
		assert.Equal(t, "Savings", got.Name)

		_, err = repo.Rename(ctx, "b", "x")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = repo.Rename(ctx, "a", "")
		assert.ErrorIs(t, err, ErrInvalidRecord)
	})
}

func TestRecord(t *testing.T) {
	r := NewRecord("Main", "erd1a", "secret", "word word")
	assert.NotEmpty(t, r.ID)
	assert.True(t, r.HasPhrase())
	assert.NotContains(t, r.String(), "secret")
	assert.Equal(t, r.CreatedAt, r.Created().UnixMilli())
}
