// Package validate drives the two-pass validation pipeline over the full
// candidate set: the structural prefilter runs inline and for free, then
// survivors are truncated, deduplicated by cache key, and classified with
// bounded concurrency. The orchestrator is the sole writer of the output
// database; classification tasks only ever touch the verdict cache.
package validate

import (
	"context"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillharvest/pkg/classifier"
	"github.com/jingkaihe/skillharvest/pkg/dataset"
	"github.com/jingkaihe/skillharvest/pkg/githuburl"
	"github.com/jingkaihe/skillharvest/pkg/logger"
	"github.com/jingkaihe/skillharvest/pkg/skillfile"
)

const (
	// DefaultBatchSize is how many candidates are grouped per batch. Purely a
	// throughput knob: results are identical at any batch size.
	DefaultBatchSize = 10
	// DefaultMaxConcurrent bounds in-flight classification calls.
	DefaultMaxConcurrent = 3
)

// Config holds the orchestrator's tunables.
type Config struct {
	ContentDir    string
	Model         string
	BatchSize     int
	MaxConcurrent int
	TruncateBytes int
}

// Orchestrator runs the validation pipeline.
type Orchestrator struct {
	candidates *dataset.CandidateStore
	results    *dataset.ResultStore
	cls        classifier.Classifier
	cfg        Config
}

// Summary is the per-run outcome report.
type Summary struct {
	Total  int
	Counts map[dataset.Status]int
	// FilesRebuilt is the size of the accepted subset mirrored into the
	// output files table.
	FilesRebuilt int
}

// New creates an orchestrator. The classifier is expected to be cache-wrapped
// already; the orchestrator additionally deduplicates identical inputs within
// a batch so the same content is never classified twice in parallel.
func New(candidates *dataset.CandidateStore, results *dataset.ResultStore, cls classifier.Classifier, cfg Config) *Orchestrator {
	if cfg.Model == "" {
		cfg.Model = classifier.DefaultModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.TruncateBytes <= 0 {
		cfg.TruncateBytes = skillfile.DefaultTruncateBytes
	}
	return &Orchestrator{candidates: candidates, results: results, cls: cls, cfg: cfg}
}

// Run processes every candidate file and returns the per-status counts.
// Per-file failures become error records; only cache-store failures and
// context cancellation abort the run. Already-saved records survive an
// interrupted run and are simply overwritten on the next one.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	log := logger.G(ctx).WithField("run_id", uuid.NewString())
	ctx = logger.WithLogger(ctx, log)

	files, err := o.candidates.ListFiles(ctx)
	if err != nil {
		return nil, err
	}
	log.WithField("candidates", len(files)).Info("starting validation run")

	summary := &Summary{Total: len(files), Counts: make(map[dataset.Status]int)}

	for start := 0; start < len(files); start += o.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "validation run interrupted")
		}

		end := start + o.cfg.BatchSize
		if end > len(files) {
			end = len(files)
		}

		records, err := o.processBatch(ctx, files[start:end])
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			if err := o.results.Save(ctx, rec); err != nil {
				return nil, err
			}
			summary.Counts[rec.Status]++
		}
	}

	rebuilt, err := o.results.RebuildFiles(ctx, files)
	if err != nil {
		return nil, err
	}
	summary.FilesRebuilt = rebuilt

	log.WithField("counts", summary.Counts).Info("validation run complete")
	return summary, nil
}

// pendingGroup collects all candidate URLs that share one cache key, so one
// classification resolves them all.
type pendingGroup struct {
	content string
	urls    []string
}

type classifyResult struct {
	key     string
	verdict classifier.Verdict
	err     error
}

func (o *Orchestrator) processBatch(ctx context.Context, batch []dataset.CandidateFile) ([]dataset.ValidationRecord, error) {
	records := make([]dataset.ValidationRecord, 0, len(batch))
	groups := make(map[string]*pendingGroup)

	// inline pass: availability check, prefilter, truncation, key derivation
	for _, cand := range batch {
		rec, truncated, needsClassify := o.resolveStructural(ctx, cand)
		if !needsClassify {
			records = append(records, rec)
			continue
		}

		key := classifier.CacheKey(o.cfg.Model, truncated)
		g, ok := groups[key]
		if !ok {
			g = &pendingGroup{content: truncated}
			groups[key] = g
		}
		g.urls = append(g.urls, cand.URL)
	}

	if len(groups) == 0 {
		return records, nil
	}

	// bounded pool over unique classification inputs
	sem := make(chan struct{}, o.cfg.MaxConcurrent)
	out := make(chan classifyResult)
	var wg sync.WaitGroup

	for key, g := range groups {
		wg.Add(1)
		go func(key, content string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			v, err := o.cls.Classify(ctx, classifier.Input{Content: content, Model: o.cfg.Model})
			out <- classifyResult{key: key, verdict: v, err: err}
		}(key, g.content)
	}
	go func() {
		wg.Wait()
		close(out)
	}()

	var fatal error
	for res := range out {
		g := groups[res.key]
		for _, url := range g.urls {
			records = append(records, recordFor(url, res))
		}
		if res.err != nil && errors.Is(res.err, classifier.ErrCacheIO) {
			fatal = res.err
		}
	}
	if fatal != nil {
		return nil, errors.Wrap(fatal, "aborting run")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "validation run interrupted")
	}

	return records, nil
}

func recordFor(url string, res classifyResult) dataset.ValidationRecord {
	switch {
	case res.err != nil:
		return dataset.NewRecord(url, dataset.StatusError, "classification failed: "+res.err.Error())
	case res.verdict.IsSkill:
		return dataset.NewRecord(url, dataset.StatusAccepted, res.verdict.Reason)
	default:
		return dataset.NewRecord(url, dataset.StatusSemanticallyRejected, res.verdict.Reason)
	}
}

// resolveStructural runs everything that needs no network: URL parsing,
// content availability, the frontmatter prefilter, and truncation. When the
// candidate needs the semantic pass it returns needsClassify=true along with
// the truncated content.
func (o *Orchestrator) resolveStructural(ctx context.Context, cand dataset.CandidateFile) (rec dataset.ValidationRecord, truncated string, needsClassify bool) {
	log := logger.G(ctx).WithField("url", cand.URL)

	blob, err := githuburl.Parse(cand.URL)
	if err != nil {
		return dataset.NewRecord(cand.URL, dataset.StatusStructurallyRejected, "not a GitHub blob URL"), "", false
	}

	raw, err := os.ReadFile(blob.ContentPath(o.cfg.ContentDir))
	if err != nil {
		// not fetched yet, or unreadable: skipped rather than rejected so a
		// later run can still resolve it
		reason := "content not fetched"
		if !os.IsNotExist(err) {
			reason = "content unreadable: " + err.Error()
		}
		log.WithField("reason", reason).Debug("skipping candidate")
		return dataset.NewRecord(cand.URL, dataset.StatusSkipped, reason), "", false
	}

	if res := skillfile.Check(raw); !res.Valid {
		return dataset.NewRecord(cand.URL, dataset.StatusStructurallyRejected, res.Reason), "", false
	}

	return dataset.ValidationRecord{}, skillfile.Truncate(string(raw), o.cfg.TruncateBytes), true
}
