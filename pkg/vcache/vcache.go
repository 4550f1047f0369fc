// Package vcache provides verdict stores backing the classification cache:
// a durable on-disk store shared across runs and processes, and an in-memory
// store for tests. Both satisfy classifier.VerdictStore.
package vcache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/jingkaihe/skillharvest/pkg/classifier"
)

// DefaultDir returns the default on-disk cache location under the
// user-scoped cache root.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve user cache directory")
	}
	return filepath.Join(base, "skillharvest", "verdicts"), nil
}

// DirStore persists one JSON file per cache key. Writes are atomic (temp file
// plus rename) and per-key locking serializes a lookup/store race on the same
// key within a process. Different keys never contend.
type DirStore struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewDirStore creates the cache directory if needed and verifies it is
// usable. An unusable cache directory is a hard error: silently running
// uncached would re-buy every verdict on every run.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create cache directory %s", dir)
	}

	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return nil, errors.Wrapf(err, "cache directory %s is not writable", dir)
	}
	probe.Close()
	os.Remove(probe.Name())

	return &DirStore{dir: dir, locks: make(map[string]*sync.Mutex)}, nil
}

func (s *DirStore) lockFor(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

func (s *DirStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Lookup returns the cached verdict for key, if any. It never touches the
// network; absence is not an error.
func (s *DirStore) Lookup(key string) (classifier.Verdict, bool, error) {
	l := s.lockFor(key)
	l.Lock()
	defer l.Unlock()

	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return classifier.Verdict{}, false, nil
	}
	if err != nil {
		return classifier.Verdict{}, false, errors.Wrapf(err, "failed to read cache entry %s", key)
	}

	var v classifier.Verdict
	if err := json.Unmarshal(data, &v); err != nil {
		// a corrupt entry is treated as absent so it gets re-classified
		return classifier.Verdict{}, false, nil
	}
	return v, true, nil
}

// Put stores the verdict for key. Storing the same verdict twice is a no-op
// observably; concurrent puts for the same key are last-writer-wins, which is
// safe because identical inputs produce identical verdicts.
func (s *DirStore) Put(key string, v classifier.Verdict) error {
	l := s.lockFor(key)
	l.Lock()
	defer l.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal verdict")
	}

	tmp, err := os.CreateTemp(s.dir, key+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "failed to create temp file for cache entry %s", key)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "failed to write cache entry %s", key)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "failed to close cache entry %s", key)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "failed to commit cache entry %s", key)
	}
	return nil
}

// Stats reports the number of cached verdicts and their total size in bytes.
func (s *DirStore) Stats() (entries int, bytes int64, err error) {
	items, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "failed to read cache directory %s", s.dir)
	}
	for _, item := range items {
		if item.IsDir() || filepath.Ext(item.Name()) != ".json" {
			continue
		}
		info, err := item.Info()
		if err != nil {
			continue
		}
		entries++
		bytes += info.Size()
	}
	return entries, bytes, nil
}

// Clear removes every cached verdict.
func (s *DirStore) Clear() error {
	items, err := os.ReadDir(s.dir)
	if err != nil {
		return errors.Wrapf(err, "failed to read cache directory %s", s.dir)
	}
	for _, item := range items {
		if item.IsDir() || filepath.Ext(item.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, item.Name())); err != nil {
			return errors.Wrapf(err, "failed to remove cache entry %s", item.Name())
		}
	}
	return nil
}

// MemStore is an in-memory VerdictStore for tests and dry runs.
type MemStore struct {
	mu sync.RWMutex
	m  map[string]classifier.Verdict
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{m: make(map[string]classifier.Verdict)}
}

// Lookup returns the stored verdict for key, if any.
func (s *MemStore) Lookup(key string) (classifier.Verdict, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok, nil
}

// Put stores the verdict for key.
func (s *MemStore) Put(key string, v classifier.Verdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = v
	return nil
}

// Len reports the number of stored verdicts.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
