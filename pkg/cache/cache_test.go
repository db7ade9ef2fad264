package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exilefoundry/patchkit/pkg/tree"
)

func testSum(last byte) tree.Sum256 {
	var s tree.Sum256
	s[len(s)-1] = last
	return s
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore(t *testing.T) {
	t.Run("MissOnEmptyStore", func(t *testing.T) {
		store := openTestStore(t)

		_, ok, err := store.Get(testSum(1))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("PutThenGet", func(t *testing.T) {
		store := openTestStore(t)

		require.NoError(t, store.Put(testSum(1), []byte("body")))

		data, ok, err := store.Get(testSum(1))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("body"), data)
	})

	t.Run("PutReplaces", func(t *testing.T) {
		store := openTestStore(t)

		require.NoError(t, store.Put(testSum(1), []byte("old")))
		require.NoError(t, store.Put(testSum(1), []byte("new")))

		data, ok, err := store.Get(testSum(1))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("new"), data)
	})

	t.Run("DistinctHashesDistinctEntries", func(t *testing.T) {
		store := openTestStore(t)

		require.NoError(t, store.Put(testSum(1), []byte("one")))
		require.NoError(t, store.Put(testSum(2), []byte("two")))

		data, ok, err := store.Get(testSum(2))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("two"), data)
	})

	t.Run("DeleteRemovesEntry", func(t *testing.T) {
		store := openTestStore(t)

		require.NoError(t, store.Put(testSum(1), []byte("body")))
		require.NoError(t, store.Delete(testSum(1)))

		_, ok, err := store.Get(testSum(1))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("PersistsAcrossReopen", func(t *testing.T) {
		dir := t.TempDir()

		store, err := Open(dir)
		require.NoError(t, err)
		require.NoError(t, store.Put(testSum(9), []byte("durable")))
		require.NoError(t, store.Close())

		reopened, err := Open(dir)
		require.NoError(t, err)
		defer reopened.Close()

		data, ok, err := reopened.Get(testSum(9))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("durable"), data)
	})

	t.Run("InMemoryStore", func(t *testing.T) {
		store, err := OpenInMemory()
		require.NoError(t, err)
		defer store.Close()

		require.NoError(t, store.Put(testSum(1), []byte("volatile")))
		data, ok, err := store.Get(testSum(1))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("volatile"), data)
	})
}
