// Package respparse extracts structured data from raw model responses:
// JSON bodies (tolerating markdown fences and surrounding prose) and
// labeled free-text fields.
package respparse

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/sourcelens/sourcelens/internal/apperr"
)

var (
	fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	jsonRe  = regexp.MustCompile(`(?s)(\{.*\}|\[.*\])`)
)

// StripFences removes a surrounding markdown code fence, returning the
// inner content. Input without a fence is returned trimmed.
func StripFences(s string) string {
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(s)
}

// ExtractJSON unmarshals the model response into v. It first strips
// fences, then falls back to extracting the outermost JSON object or
// array from surrounding prose. Failure yields apperr.ErrParse.
func ExtractJSON(s string, v any) error {
	cleaned := StripFences(s)
	if err := json.Unmarshal([]byte(cleaned), v); err == nil {
		return nil
	}
	if m := jsonRe.FindString(cleaned); m != "" {
		if err := json.Unmarshal([]byte(m), v); err == nil {
			return nil
		}
	}
	return fmt.Errorf("respparse: no valid JSON in response: %w", apperr.ErrParse)
}

// Labeled extracts labeled fields from a free-text response. Each label
// is matched case-insensitively at a line start (e.g. "SUMMARY:"); the
// field value runs until the next label or end of text. Missing labels
// map to empty strings.
func Labeled(s string, labels ...string) map[string]string {
	type hit struct {
		label string
		start int // index after "LABEL:"
		pos   int // index of the label itself
	}

	var hits []hit
	for _, label := range labels {
		re := regexp.MustCompile(`(?im)^\s*` + regexp.QuoteMeta(label) + `\s*:`)
		if loc := re.FindStringIndex(s); loc != nil {
			hits = append(hits, hit{label: label, start: loc[1], pos: loc[0]})
		}
	}

	out := make(map[string]string, len(labels))
	for _, label := range labels {
		out[label] = ""
	}
	for _, h := range hits {
		end := len(s)
		for _, other := range hits {
			if other.pos > h.pos && other.pos < end {
				end = other.pos
			}
		}
		out[h.label] = strings.TrimSpace(s[h.start:end])
	}
	return out
}

// List splits a field value into items, accepting numbered ("1. ...")
// and bulleted ("- ...") lines. Blank lines are dropped.
func List(field string) []string {
	var items []string
	for _, line := range strings.Split(field, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•")
		line = numberedRe.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}

var numberedRe = regexp.MustCompile(`^\d+[.)]\s*`)
