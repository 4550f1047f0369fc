// Package githuburl parses GitHub blob URLs and maps them to the on-disk
// content layout produced by the upstream file fetcher.
package githuburl

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Blob identifies a single file at a ref inside a GitHub repository.
type Blob struct {
	Owner string
	Repo  string
	Ref   string
	Path  string
}

// Parse extracts the blob coordinates from a URL of the form
// https://github.com/<owner>/<repo>/blob/<ref>/<path>.
func Parse(rawURL string) (Blob, error) {
	parts := strings.Split(rawURL, "/")
	if len(parts) < 8 || parts[2] != "github.com" || parts[5] != "blob" {
		return Blob{}, errors.Errorf("not a GitHub blob URL: %s", rawURL)
	}
	return Blob{
		Owner: parts[3],
		Repo:  parts[4],
		Ref:   parts[6],
		Path:  strings.Join(parts[7:], "/"),
	}, nil
}

// ContentPath returns where the fetcher stores this blob's content under
// contentDir: <owner>/<repo>/blob/<ref>/<path>.
func (b Blob) ContentPath(contentDir string) string {
	return filepath.Join(contentDir, b.Owner, b.Repo, "blob", b.Ref, filepath.FromSlash(b.Path))
}

// RepoKey returns the owner/repo identifier used by the repo metadata tables.
func (b Blob) RepoKey() string {
	return b.Owner + "/" + b.Repo
}
