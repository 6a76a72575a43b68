package gemini

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNoText = errors.New("gemini response has no text")

// ExtractText joins the text parts of the first candidate. Safety-blocked
// answers and schema changes surface as ErrNoText.
func ExtractText(envelope Envelope) (string, error) {
	candidates, ok := envelope["candidates"].([]any)
	if !ok || len(candidates) == 0 {
		return "", fmt.Errorf("%w: missing candidates", ErrNoText)
	}
	candidate, ok := candidates[0].(map[string]any)
	if !ok {
		return "", fmt.Errorf("%w: candidate is not an object", ErrNoText)
	}
	content, ok := candidate["content"].(map[string]any)
	if !ok {
		return "", fmt.Errorf("%w: candidate has no content", ErrNoText)
	}
	parts, ok := content["parts"].([]any)
	if !ok || len(parts) == 0 {
		return "", fmt.Errorf("%w: content has no parts", ErrNoText)
	}

	var b strings.Builder
	found := false
	for _, item := range parts {
		part, ok := item.(map[string]any)
		if !ok {
			continue
		}
		text, ok := part["text"].(string)
		if !ok {
			continue
		}
		b.WriteString(text)
		found = true
	}
	if !found {
		return "", fmt.Errorf("%w: no text part", ErrNoText)
	}
	return b.String(), nil
}
