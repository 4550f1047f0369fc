// Package skillfile implements the structural first pass over candidate
// SKILL.md files: a free frontmatter prefilter that rejects the bulk of
// false-positive filename matches before any paid inference, and a content
// truncator that bounds what is handed to the classifier.
package skillfile

import "strings"

// Metadata is the YAML frontmatter expected at the top of a SKILL.md file.
type Metadata struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// CheckResult is the outcome of the structural prefilter. Malformed input is
// the normal rejected case, never an error.
type CheckResult struct {
	Valid  bool
	Reason string
}

func invalid(reason string) CheckResult {
	return CheckResult{Reason: reason}
}

// frontmatterEnd returns the byte offset just past the closing "---" line of
// the frontmatter block, or -1 if the content does not open with a terminated
// block.
func frontmatterEnd(content string) int {
	if !strings.HasPrefix(content, "---") {
		return -1
	}

	offset := 0
	for i, line := range strings.SplitAfter(content, "\n") {
		offset += len(line)
		if i == 0 {
			continue
		}
		if strings.TrimSpace(line) == "---" {
			return offset
		}
	}
	return -1
}

// frontmatterBlock returns the raw YAML between the delimiters, without them.
func frontmatterBlock(content string) string {
	end := frontmatterEnd(content)
	if end < 0 {
		return ""
	}
	block := content[:end]
	block = strings.TrimPrefix(block, "---")
	if idx := strings.LastIndex(block, "---"); idx >= 0 {
		block = block[:idx]
	}
	return block
}
