package classifier

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// validationPrompt is the fixed classification prompt. It is part of the cache
// key, so editing it automatically invalidates previously cached verdicts.
const validationPrompt = `Analyze this SKILL.md file from GitHub.

A valid Claude Code skill file has:
1. YAML frontmatter between --- markers (at the start)
2. Markdown content after frontmatter
3. Content that extends Claude's capabilities (instructions, workflows, knowledge, or commands)

Common frontmatter fields (all optional):
- name, description, disable-model-invocation, user-invocable, allowed-tools

The content can be:
- Reference material (API conventions, patterns, style guides)
- Task instructions (step-by-step workflows like deploy, commit)
- Templates or examples
- Configuration for tools/agents

Be INCLUSIVE - if it has frontmatter + markdown content that looks skill-like, mark as valid.
Reject only if clearly not a skill (blog posts, GitHub templates, unrelated docs).

File content:
%s

Respond with JSON only:
{"is_skill": true/false, "reason": "one sentence"}`

// BuildPrompt renders the classification prompt for the given truncated
// content.
func BuildPrompt(content string) string {
	return fmt.Sprintf(validationPrompt, content)
}

// CacheKey derives the deterministic digest identifying a classification
// input. Any change to the prompt template, the model identifier, or the
// truncated content yields a different key, which is what retires stale cache
// entries without an explicit version bump.
func CacheKey(model, content string) string {
	return deriveKey(validationPrompt, model, content)
}

func deriveKey(template, model, content string) string {
	h := sha256.New()
	for _, part := range []string{template, model, content} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
