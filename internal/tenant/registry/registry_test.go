package registry

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliancehub/pkg/platform/sentinel"
)

func testDescriptor(name string) ConnectionDescriptor {
	return ConnectionDescriptor{
		DatabaseName:   name,
		User:           name + "_user",
		Password:       "secret",
		Host:           "localhost",
		Port:           "5432",
		ConnectionName: name + "_compliance_db",
	}
}

// countingOpener returns distinct unopened handles without touching a real
// database; sql.Open with lib/pq never dials until first use.
func countingOpener(calls *atomic.Int32) Opener {
	return func(desc ConnectionDescriptor) (*sql.DB, error) {
		calls.Add(1)
		return sql.Open("postgres", desc.DSN())
	}
}

func TestRegister(t *testing.T) {
	t.Run("stores and looks up descriptor", func(t *testing.T) {
		r := New(nil)
		desc := testDescriptor("techcorp_db")
		require.NoError(t, r.Register("techcorp", desc))

		got, ok := r.Lookup("techcorp")
		require.True(t, ok)
		assert.Equal(t, desc, got)
		assert.True(t, r.IsRegistered("techcorp"))
	})

	t.Run("unknown tenant is not registered", func(t *testing.T) {
		r := New(nil)
		_, ok := r.Lookup("ghost")
		assert.False(t, ok)
		assert.False(t, r.IsRegistered("ghost"))
	})

	t.Run("re-register overwrites descriptor", func(t *testing.T) {
		r := New(nil)
		require.NoError(t, r.Register("techcorp", testDescriptor("techcorp_db")))

		rotated := testDescriptor("techcorp_db")
		rotated.Password = "rotated-secret"
		require.NoError(t, r.Register("techcorp", rotated))

		got, ok := r.Lookup("techcorp")
		require.True(t, ok)
		assert.Equal(t, "rotated-secret", got.Password)
	})

	t.Run("rejects empty slug", func(t *testing.T) {
		r := New(nil)
		require.Error(t, r.Register("", testDescriptor("db")))
	})

	t.Run("rejects partial descriptor", func(t *testing.T) {
		r := New(nil)
		desc := testDescriptor("techcorp_db")
		desc.Host = ""
		require.Error(t, r.Register("techcorp", desc))
		assert.False(t, r.IsRegistered("techcorp"))
	})
}

func TestRegister_ConcurrentSafety(t *testing.T) {
	r := New(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			slug := fmt.Sprintf("tenant-%d", n%10)
			_ = r.Register(slug, testDescriptor(slug))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 10; i++ {
		assert.True(t, r.IsRegistered(fmt.Sprintf("tenant-%d", i)))
	}
}

func TestDB(t *testing.T) {
	t.Run("unregistered tenant surfaces not provisioned", func(t *testing.T) {
		r := New(nil)
		_, err := r.DB("ghost")
		require.Error(t, err)
		assert.True(t, errors.Is(err, sentinel.ErrTenantNotProvisioned))
	})

	t.Run("pool opened lazily and reused", func(t *testing.T) {
		var calls atomic.Int32
		r := New(nil, WithOpener(countingOpener(&calls)))
		require.NoError(t, r.Register("techcorp", testDescriptor("techcorp_db")))

		first, err := r.DB("techcorp")
		require.NoError(t, err)
		second, err := r.DB("techcorp")
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("concurrent first access opens exactly one pool", func(t *testing.T) {
		var calls atomic.Int32
		r := New(nil, WithOpener(countingOpener(&calls)))
		require.NoError(t, r.Register("techcorp", testDescriptor("techcorp_db")))

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = r.DB("techcorp")
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("rotation closes stale pool and reopens", func(t *testing.T) {
		var calls atomic.Int32
		r := New(nil, WithOpener(countingOpener(&calls)))
		require.NoError(t, r.Register("techcorp", testDescriptor("techcorp_db")))

		_, err := r.DB("techcorp")
		require.NoError(t, err)

		rotated := testDescriptor("techcorp_db")
		rotated.Password = "rotated"
		require.NoError(t, r.Register("techcorp", rotated))

		_, err = r.DB("techcorp")
		require.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load())
	})
}

func TestCentral(t *testing.T) {
	db, err := sql.Open("postgres", "host=localhost dbname=central sslmode=disable")
	require.NoError(t, err)
	defer db.Close()

	r := New(db)
	assert.Same(t, db, r.Central())
}
