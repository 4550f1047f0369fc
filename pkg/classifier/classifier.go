// Package classifier implements the semantic second pass over candidate
// SKILL.md files: a single LLM call per file deciding whether the content is a
// genuine skill definition. Two backends are supported, the Anthropic hosted
// API and any OpenAI-compatible server selected via a base URL, behind one
// interface so the rest of the pipeline never sees backend details. Verdicts
// are cached on disk keyed by (prompt template, model, truncated content) so
// identical inputs are never re-scored.
package classifier

import (
	"context"

	"github.com/pkg/errors"
)

// DefaultModel is the cheap hosted model used when none is configured.
const DefaultModel = "claude-haiku-4-5-20251001"

// Input is the exact tuple that determines a classification. Content is the
// already-truncated file text; together with Model and the fixed prompt
// template it fully determines the cache key.
type Input struct {
	Content string
	Model   string
}

// Verdict is the structured decision parsed from the model output.
type Verdict struct {
	IsSkill bool   `json:"is_skill"`
	Reason  string `json:"reason,omitempty"`
}

// Classifier scores a single candidate file.
type Classifier interface {
	Classify(ctx context.Context, in Input) (Verdict, error)
}

// VerdictStore persists verdicts across runs and processes. Lookup never
// performs network I/O; Put is idempotent. Store-level failures are fatal to
// the run: proceeding uncached would mean unbounded re-classification cost.
type VerdictStore interface {
	Lookup(key string) (Verdict, bool, error)
	Put(key string, v Verdict) error
}

// ErrMalformedVerdict marks model output that could not be mapped to a
// verdict. Files hitting this are recorded as classification errors, never
// silently accepted: inclusion in the dataset requires an affirmative verdict.
var ErrMalformedVerdict = errors.New("malformed classifier verdict")

// ErrCacheIO marks a verdict store failure. Unlike per-file classification
// errors this aborts the whole run: running uncached would re-buy every
// verdict.
var ErrCacheIO = errors.New("verdict cache failure")
