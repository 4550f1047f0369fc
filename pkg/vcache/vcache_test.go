package vcache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillharvest/pkg/classifier"
)

func TestDirStoreRoundTrip(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	require.NoError(t, err)

	key := classifier.CacheKey("model", "content")
	want := classifier.Verdict{IsSkill: true, Reason: "has frontmatter and workflow"}

	_, ok, err := store.Lookup(key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(key, want))

	got, ok, err := store.Lookup(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestDirStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewDirStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Put("abc123", classifier.Verdict{IsSkill: false, Reason: "blog post"}))

	reopened, err := NewDirStore(dir)
	require.NoError(t, err)
	got, ok, err := reopened.Lookup("abc123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "blog post", got.Reason)
}

func TestDirStorePutIdempotent(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	require.NoError(t, err)

	v := classifier.Verdict{IsSkill: true}
	require.NoError(t, store.Put("k", v))
	require.NoError(t, store.Put("k", v))

	entries, _, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, entries)
}

func TestDirStoreCorruptEntryTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDirStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644))

	_, ok, err := store.Lookup("bad")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDirStoreUnwritableDirFails(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root, permission checks do not apply")
	}
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o500))
	defer os.Chmod(dir, 0o755)

	_, err := NewDirStore(filepath.Join(dir, "verdicts"))
	assert.Error(t, err)
}

func TestDirStoreConcurrentAccess(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i%5)
			v := classifier.Verdict{IsSkill: i%2 == 0, Reason: "r"}
			assert.NoError(t, store.Put(key, v))
			_, _, err := store.Lookup(key)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	entries, _, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 5, entries)
}

func TestDirStoreStatsAndClear(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Put(fmt.Sprintf("k%d", i), classifier.Verdict{IsSkill: true}))
	}

	entries, size, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 3, entries)
	assert.Positive(t, size)

	require.NoError(t, store.Clear())
	entries, _, err = store.Stats()
	require.NoError(t, err)
	assert.Zero(t, entries)
}

func TestMemStore(t *testing.T) {
	store := NewMemStore()

	_, ok, err := store.Lookup("k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put("k", classifier.Verdict{IsSkill: true}))
	v, ok, err := store.Lookup("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, v.IsSkill)
	assert.Equal(t, 1, store.Len())
}
