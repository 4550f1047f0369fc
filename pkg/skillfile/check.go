package skillfile

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
	"gopkg.in/yaml.v3"
)

// Check runs the structural prefilter over raw file content. It returns valid
// only when the content opens with a terminated, parseable YAML frontmatter
// block that carries non-empty name and description fields. It performs no
// I/O and never fails: every malformed shape maps to an invalid result with a
// reason.
func Check(content []byte) CheckResult {
	if len(content) == 0 {
		return invalid("empty content")
	}
	if !utf8.Valid(content) {
		return invalid("content is not valid UTF-8")
	}

	text := string(content)
	if !strings.HasPrefix(text, "---") {
		return invalid("no frontmatter delimiter")
	}
	if frontmatterEnd(text) < 0 {
		return invalid("unterminated frontmatter block")
	}

	md := goldmark.New(goldmark.WithExtensions(meta.Meta))
	pctx := parser.NewContext()
	if err := md.Convert(content, io.Discard, parser.WithContext(pctx)); err != nil {
		return invalid("unparseable markdown: " + err.Error())
	}

	metaData, err := meta.TryGet(pctx)
	if err != nil {
		return invalid("frontmatter is not valid YAML: " + err.Error())
	}
	if metaData == nil {
		return invalid("no frontmatter found")
	}

	var parsed Metadata
	if err := yaml.Unmarshal([]byte(frontmatterBlock(text)), &parsed); err != nil {
		return invalid("frontmatter is not a key-value mapping")
	}
	if strings.TrimSpace(parsed.Name) == "" {
		return invalid("frontmatter missing required field: name")
	}
	if strings.TrimSpace(parsed.Description) == "" {
		return invalid("frontmatter missing required field: description")
	}

	return CheckResult{Valid: true}
}
