// Package export turns the validation results into the published dataset:
// three normalized Parquet files plus optional Kaggle metadata. Only files
// the semantic pass accepted are exported.
package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillharvest/pkg/dataset"
	"github.com/jingkaihe/skillharvest/pkg/githuburl"
	"github.com/jingkaihe/skillharvest/pkg/logger"
)

// ErrMissingData is returned when accepted files lack repo metadata or commit
// history and the corresponding allow flag is not set.
var ErrMissingData = errors.New("accepted files are missing expected data")

// Options configures a dataset export.
type Options struct {
	OutputDir      string
	KaggleUsername string
	AllowNoRepo    bool
	AllowNoHistory bool
}

// Summary reports row counts per output file.
type Summary struct {
	Files   int
	Repos   int
	History int
}

// FileRow is one record in files.parquet.
type FileRow struct {
	URL          string  `parquet:"url"`
	SHA          *string `parquet:"sha,optional"`
	SizeBytes    *int64  `parquet:"size_bytes,optional"`
	DiscoveredAt *string `parquet:"discovered_at,optional"`
	RepoKey      string  `parquet:"repo_key"`
	Filename     string  `parquet:"filename"`
	Path         string  `parquet:"path"`
}

// RepoRow is one record in repos.parquet.
type RepoRow struct {
	RepoKey     string   `parquet:"repo_key"`
	RepoOwner   string   `parquet:"repo_owner"`
	RepoName    string   `parquet:"repo_name"`
	Stars       *int64   `parquet:"stars,optional"`
	Forks       *int64   `parquet:"forks,optional"`
	Watchers    *int64   `parquet:"watchers,optional"`
	Language    *string  `parquet:"language,optional"`
	Topics      []string `parquet:"topics,list"`
	Description *string  `parquet:"description,optional"`
	License     *string  `parquet:"license,optional"`
	CreatedAt   *string  `parquet:"created_at,optional"`
	UpdatedAt   *string  `parquet:"updated_at,optional"`
}

// HistoryRow is one record in history.parquet: one row per commit that
// touched an accepted file.
type HistoryRow struct {
	URL           string  `parquet:"url"`
	CommitSHA     *string `parquet:"commit_sha,optional"`
	CommitAuthor  *string `parquet:"commit_author,optional"`
	CommitDate    *string `parquet:"commit_date,optional"`
	CommitMessage *string `parquet:"commit_message,optional"`
}

// commit matches the JSON shape the fetcher stores in file_history.commits.
type commit struct {
	SHA     string `json:"sha"`
	Author  string `json:"author"`
	Date    string `json:"date"`
	Message string `json:"message"`
}

// Exporter reads from both databases and writes the dataset.
type Exporter struct {
	candidates *dataset.CandidateStore
	results    *dataset.ResultStore
	opts       Options
}

func New(candidates *dataset.CandidateStore, results *dataset.ResultStore, opts Options) *Exporter {
	return &Exporter{candidates: candidates, results: results, opts: opts}
}

// Run writes files.parquet, repos.parquet and history.parquet into
// OutputDir, plus dataset-metadata.json and README.md when a Kaggle username
// is configured.
func (e *Exporter) Run(ctx context.Context) (*Summary, error) {
	log := logger.G(ctx)

	if err := os.MkdirAll(e.opts.OutputDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create output directory")
	}

	accepted, err := e.results.AcceptedURLs(ctx)
	if err != nil {
		return nil, err
	}
	log.WithField("accepted", len(accepted)).Info("exporting dataset")

	fileRows, err := e.buildFileRows(ctx, accepted)
	if err != nil {
		return nil, err
	}
	if err := writeParquet(filepath.Join(e.opts.OutputDir, "files.parquet"), fileRows); err != nil {
		return nil, err
	}

	repoRows, err := e.buildRepoRows(ctx, fileRows)
	if err != nil {
		return nil, err
	}
	if err := writeParquet(filepath.Join(e.opts.OutputDir, "repos.parquet"), repoRows); err != nil {
		return nil, err
	}

	historyRows, err := e.buildHistoryRows(ctx, fileRows)
	if err != nil {
		return nil, err
	}
	if err := writeParquet(filepath.Join(e.opts.OutputDir, "history.parquet"), historyRows); err != nil {
		return nil, err
	}

	summary := &Summary{Files: len(fileRows), Repos: len(repoRows), History: len(historyRows)}

	if e.opts.KaggleUsername != "" {
		if err := writeKaggleMetadata(e.opts.OutputDir, e.opts.KaggleUsername, summary.Files, summary.Repos); err != nil {
			return nil, err
		}
	}
	return summary, nil
}

func (e *Exporter) buildFileRows(ctx context.Context, accepted []string) ([]FileRow, error) {
	acceptedSet := make(map[string]struct{}, len(accepted))
	for _, url := range accepted {
		acceptedSet[url] = struct{}{}
	}

	candidates, err := e.candidates.ListFiles(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]FileRow, 0, len(accepted))
	for _, cand := range candidates {
		if _, ok := acceptedSet[cand.URL]; !ok {
			continue
		}
		blob, err := githuburl.Parse(cand.URL)
		if err != nil {
			// accepted rows always parsed during validation
			return nil, errors.Wrapf(err, "unparseable accepted URL %s", cand.URL)
		}
		rows = append(rows, FileRow{
			URL:          cand.URL,
			SHA:          nullStr(cand.SHA),
			SizeBytes:    nullInt(cand.SizeBytes),
			DiscoveredAt: nullStr(cand.DiscoveredAt),
			RepoKey:      blob.RepoKey(),
			Filename:     filepath.Base(blob.Path),
			Path:         blob.Path,
		})
	}
	return rows, nil
}

func (e *Exporter) buildRepoRows(ctx context.Context, files []FileRow) ([]RepoRow, error) {
	needed := make(map[string]struct{})
	for _, f := range files {
		needed[f.RepoKey] = struct{}{}
	}

	metadata, err := e.candidates.ListRepoMetadata(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]RepoRow, 0, len(needed))
	have := make(map[string]struct{})
	for _, m := range metadata {
		if _, ok := needed[m.RepoKey]; !ok {
			continue
		}
		have[m.RepoKey] = struct{}{}

		owner, name := splitRepoKey(m.RepoKey)
		rows = append(rows, RepoRow{
			RepoKey:     m.RepoKey,
			RepoOwner:   owner,
			RepoName:    name,
			Stars:       nullInt(m.Stars),
			Forks:       nullInt(m.Forks),
			Watchers:    nullInt(m.Watchers),
			Language:    nullStr(m.Language),
			Topics:      decodeTopics(m.Topics),
			Description: nullStr(m.Description),
			License:     nullStr(m.License),
			CreatedAt:   nullStr(m.CreatedAt),
			UpdatedAt:   nullStr(m.UpdatedAt),
		})
	}

	missing := missingKeys(needed, have)
	if len(missing) > 0 {
		msg := errors.Wrapf(ErrMissingData,
			"%d accepted files have no repo metadata (e.g. %s)", len(missing), missing[0])
		if !e.opts.AllowNoRepo {
			return nil, msg
		}
		logger.G(ctx).WithField("missing_repos", len(missing)).Warn("exporting without full repo metadata")
	}
	return rows, nil
}

func (e *Exporter) buildHistoryRows(ctx context.Context, files []FileRow) ([]HistoryRow, error) {
	needed := make(map[string]struct{}, len(files))
	for _, f := range files {
		needed[f.URL] = struct{}{}
	}

	history, err := e.candidates.ListFileHistory(ctx)
	if err != nil {
		return nil, err
	}

	var rows []HistoryRow
	have := make(map[string]struct{})
	for _, h := range history {
		if _, ok := needed[h.URL]; !ok {
			continue
		}
		have[h.URL] = struct{}{}

		if !h.Commits.Valid || h.Commits.String == "" {
			rows = append(rows, HistoryRow{URL: h.URL})
			continue
		}
		var commits []commit
		if err := json.Unmarshal([]byte(h.Commits.String), &commits); err != nil {
			return nil, errors.Wrapf(err, "malformed commit history for %s", h.URL)
		}
		for _, c := range commits {
			rows = append(rows, HistoryRow{
				URL:           h.URL,
				CommitSHA:     &c.SHA,
				CommitAuthor:  &c.Author,
				CommitDate:    &c.Date,
				CommitMessage: &c.Message,
			})
		}
	}

	missing := missingKeys(needed, have)
	if len(missing) > 0 {
		msg := errors.Wrapf(ErrMissingData,
			"%d accepted files have no commit history (e.g. %s)", len(missing), missing[0])
		if !e.opts.AllowNoHistory {
			return nil, msg
		}
		logger.G(ctx).WithField("missing_history", len(missing)).Warn("exporting without full commit history")
	}
	return rows, nil
}

func writeParquet[T any](path string, rows []T) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", filepath.Base(path))
	}

	w := parquet.NewGenericWriter[T](f, parquet.Compression(&parquet.Snappy))
	if _, err := w.Write(rows); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to write %s", filepath.Base(path))
	}
	if err := w.Close(); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to finalize %s", filepath.Base(path))
	}
	return f.Close()
}

func decodeTopics(raw sql.NullString) []string {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var topics []string
	if err := json.Unmarshal([]byte(raw.String), &topics); err != nil {
		return nil
	}
	return topics
}

func splitRepoKey(key string) (owner, name string) {
	for i, r := range key {
		if r == '/' {
			return key[:i], key[i+1:]
		}
	}
	return key, ""
}

func missingKeys(needed, have map[string]struct{}) []string {
	var missing []string
	for k := range needed {
		if _, ok := have[k]; !ok {
			missing = append(missing, k)
		}
	}
	sort.Strings(missing)
	return missing
}

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}
