package classifier

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jingkaihe/skillharvest/pkg/logger"
	"github.com/jingkaihe/skillharvest/pkg/telemetry"
)

// CachingClassifier wraps a backend with a verdict store: lookup before every
// call, write-through immediately after every successful one. The write
// happens before the verdict is returned, so a crash right after a paid call
// still benefits the next run.
type CachingClassifier struct {
	backend Classifier
	store   VerdictStore
	calls   atomic.Int64
}

// NewCachingClassifier wraps backend with store.
func NewCachingClassifier(backend Classifier, store VerdictStore) *CachingClassifier {
	return &CachingClassifier{backend: backend, store: store}
}

// Classify resolves from the store when possible and only then asks the
// backend. Store failures are returned as-is so the orchestrator can abort
// the run rather than re-classify everything uncached.
func (c *CachingClassifier) Classify(ctx context.Context, in Input) (Verdict, error) {
	key := CacheKey(in.Model, in.Content)

	if v, ok, err := c.store.Lookup(key); err != nil {
		return Verdict{}, errors.Wrapf(ErrCacheIO, "lookup failed: %v", err)
	} else if ok {
		logger.G(ctx).WithField("cache_key", key).Debug("verdict cache hit")
		return v, nil
	}

	c.calls.Add(1)

	var v Verdict
	err := telemetry.WithSpan(ctx, "classifier.classify", func(ctx context.Context) error {
		var err error
		v, err = c.backend.Classify(ctx, in)
		return err
	}, attribute.String("model", in.Model), attribute.Int("content_bytes", len(in.Content)))
	if err != nil {
		return Verdict{}, err
	}

	if err := c.store.Put(key, v); err != nil {
		return Verdict{}, errors.Wrapf(ErrCacheIO, "write failed: %v", err)
	}
	return v, nil
}

// BackendCalls reports how many classifications went to the backend rather
// than the cache.
func (c *CachingClassifier) BackendCalls() int64 {
	return c.calls.Load()
}
