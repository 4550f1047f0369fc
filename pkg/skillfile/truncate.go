package skillfile

import "unicode/utf8"

// DefaultTruncateBytes bounds the content handed to the classifier. The
// frontmatter plus a short introduction carries enough signal; truncating
// keeps token cost and latency flat for oversized files.
const DefaultTruncateBytes = 3072

const truncationMarker = "\n[truncated]"

// Truncate returns a prefix of content within maxBytes, marked with a
// truncation suffix when anything was cut. The cut never splits a UTF-8
// sequence, and a frontmatter block is always emitted whole even when it
// alone exceeds the budget. Deterministic: identical input yields identical
// output.
func Truncate(content string, maxBytes int) string {
	if maxBytes <= 0 {
		maxBytes = DefaultTruncateBytes
	}
	if len(content) <= maxBytes {
		return content
	}

	cut := maxBytes - len(truncationMarker)
	if cut < 0 {
		// a budget smaller than the marker still yields the marker, like an
		// oversized frontmatter block does
		cut = 0
	}
	if end := frontmatterEnd(content); end > cut {
		cut = end
	}
	for cut > 0 && cut < len(content) && !utf8.RuneStart(content[cut]) {
		cut--
	}

	return content[:cut] + truncationMarker
}
