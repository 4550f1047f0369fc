package classifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPromptEmbedsContent(t *testing.T) {
	prompt := BuildPrompt("---\nname: foo\n---\nbody")
	assert.Contains(t, prompt, "name: foo")
	assert.Contains(t, prompt, `{"is_skill": true/false`)
}

func TestCacheKeyDeterministic(t *testing.T) {
	a := CacheKey("model-a", "some content")
	b := CacheKey("model-a", "some content")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // hex sha256
}

func TestCacheKeySensitivity(t *testing.T) {
	base := deriveKey("template", "model", "content")

	assert.NotEqual(t, base, deriveKey("template2", "model", "content"), "prompt change must change the key")
	assert.NotEqual(t, base, deriveKey("template", "model2", "content"), "model change must change the key")
	assert.NotEqual(t, base, deriveKey("template", "model", "content2"), "content change must change the key")
}

func TestCacheKeyFieldsAreDelimited(t *testing.T) {
	// concatenation across the field boundary must not collide
	a := deriveKey("ab", "c", "x")
	b := deriveKey("a", "bc", "x")
	assert.NotEqual(t, a, b)
}

func TestCacheKeyUsesFixedTemplate(t *testing.T) {
	assert.Equal(t, deriveKey(validationPrompt, "m", "c"), CacheKey("m", "c"))
	assert.True(t, strings.Contains(validationPrompt, "%s"))
}
