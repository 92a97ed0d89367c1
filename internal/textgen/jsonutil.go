package textgen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// cleanFencedOutput strips a surrounding markdown code fence if the model
// wrapped its answer in one.
func cleanFencedOutput(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	return strings.TrimSpace(text)
}

// extractJSONObject returns the outermost {...} block in the text. Models
// sometimes lead with commentary before the payload; everything outside the
// braces is discarded.
func extractJSONObject(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return text[start : end+1], nil
}

// decodeResponse parses the model's text into out, rejecting responses that
// are valid JSON but the wrong shape. Unknown fields are tolerated; type
// mismatches are not.
func decodeResponse(text string, out any) error {
	payload, err := extractJSONObject(cleanFencedOutput(text))
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(payload)))
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("failed to decode model response: %w", err)
	}
	return nil
}
