package classifier

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var (
	fencedJSONRe = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")
	bareJSONRe   = regexp.MustCompile(`(?s)\{.*"is_skill".*\}`)
)

// ParseVerdict extracts a verdict from raw model output. Models sometimes wrap
// the JSON in a code fence or surround it with prose, so after a direct parse
// fails it falls back to a fenced block and then to the first object
// mentioning is_skill. Output without an explicit is_skill decision is
// ErrMalformedVerdict, never an implicit rejection or acceptance.
func ParseVerdict(text string) (Verdict, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Verdict{}, errors.Wrap(ErrMalformedVerdict, "empty response")
	}

	if v, ok := decodeVerdict(text); ok {
		return v, nil
	}
	if m := fencedJSONRe.FindStringSubmatch(text); m != nil {
		if v, ok := decodeVerdict(m[1]); ok {
			return v, nil
		}
	}
	if m := bareJSONRe.FindString(text); m != "" {
		if v, ok := decodeVerdict(m); ok {
			return v, nil
		}
	}

	snippet := text
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	return Verdict{}, errors.Wrapf(ErrMalformedVerdict, "no JSON verdict in response: %s", snippet)
}

// decodeVerdict parses a JSON object and requires the is_skill decision field
// to be present and boolean.
func decodeVerdict(text string) (Verdict, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return Verdict{}, false
	}
	raw, ok := fields["is_skill"]
	if !ok {
		return Verdict{}, false
	}

	var v Verdict
	if err := json.Unmarshal(raw, &v.IsSkill); err != nil {
		return Verdict{}, false
	}
	if reason, ok := fields["reason"]; ok {
		_ = json.Unmarshal(reason, &v.Reason)
	}
	return v, true
}
