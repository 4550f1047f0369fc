package githuburl

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	blob, err := Parse("https://github.com/acme/tools/blob/main/skills/review/SKILL.md")
	require.NoError(t, err)
	assert.Equal(t, "acme", blob.Owner)
	assert.Equal(t, "tools", blob.Repo)
	assert.Equal(t, "main", blob.Ref)
	assert.Equal(t, "skills/review/SKILL.md", blob.Path)
	assert.Equal(t, "acme/tools", blob.RepoKey())
}

func TestParseRejectsMalformedURLs(t *testing.T) {
	for _, raw := range []string{
		"",
		"https://github.com/acme/tools",
		"https://gitlab.com/acme/tools/blob/main/SKILL.md",
		"https://github.com/acme/tools/tree/main/SKILL.md",
		"not a url at all",
	} {
		_, err := Parse(raw)
		assert.Error(t, err, "expected error for %q", raw)
	}
}

func TestContentPath(t *testing.T) {
	blob, err := Parse("https://github.com/acme/tools/blob/v1.0/skills/deploy/SKILL.md")
	require.NoError(t, err)

	got := blob.ContentPath("/data/content")
	want := filepath.Join("/data/content", "acme", "tools", "blob", "v1.0", "skills", "deploy", "SKILL.md")
	assert.Equal(t, want, got)
}
