package callflow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// StripMode selects how model output is cleaned before parsing.
type StripMode string

const (
	// StripLegacy removes every "json" substring, code fence and
	// newline/CR/tab anywhere in the text. It can corrupt values that
	// contain those characters, which downstream consumers already expect.
	StripLegacy StripMode = "legacy"
	// StripFence only removes a surrounding markdown code fence.
	StripFence StripMode = "fence"
)

// ParseStripMode maps a config value to a StripMode, defaulting to legacy.
func ParseStripMode(s string) StripMode {
	if StripMode(strings.ToLower(strings.TrimSpace(s))) == StripFence {
		return StripFence
	}
	return StripLegacy
}

// StripArtifacts applies the legacy removals in a fixed order.
func StripArtifacts(raw string) string {
	for _, s := range []string{"json", "```", "\n", "\r", "\t"} {
		raw = strings.ReplaceAll(raw, s, "")
	}
	return raw
}

// StripFences removes a leading ```/```json line and a trailing ``` if present.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Normalizer turns raw model text into a JSON object.
type Normalizer struct {
	mode StripMode
}

func NewNormalizer(mode StripMode) Normalizer {
	return Normalizer{mode: mode}
}

func (n Normalizer) strip(raw string) string {
	if n.mode == StripFence {
		return StripFences(raw)
	}
	return StripArtifacts(raw)
}

// ParseObject strips raw and decodes it. Anything that is not a single JSON
// object is reported as a *ResponseParseError.
func (n Normalizer) ParseObject(raw string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(n.strip(raw)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &ResponseParseError{Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ResponseParseError{Err: errors.New("extra data after JSON value")}
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &ResponseParseError{Err: fmt.Errorf("expected a JSON object, got %s", jsonKind(v))}
	}
	return obj, nil
}

// NormalizeCallScript parses a call-script response and repairs its
// pre-screening section.
func (n Normalizer) NormalizeCallScript(raw string) (map[string]any, error) {
	obj, err := n.ParseObject(raw)
	if err != nil {
		return nil, err
	}
	return RepairPreScreening(obj), nil
}

// RepairPreScreening coerces the pre-screening section to a list. An object
// keyed by position becomes its values ordered by key, any other non-list
// becomes empty, and an absent section is left absent. obj is modified in place.
func RepairPreScreening(obj map[string]any) map[string]any {
	for _, key := range keyPreScreening {
		v, ok := obj[key]
		if !ok {
			continue
		}
		switch section := v.(type) {
		case []any:
		case map[string]any:
			keys := make([]string, 0, len(section))
			for k := range section {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			list := make([]any, 0, len(keys))
			for _, k := range keys {
				list = append(list, section[k])
			}
			obj[key] = list
		default:
			obj[key] = []any{}
		}
	}
	return obj
}

// compactJSON serializes v without insignificant whitespace or HTML escaping.
func compactJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Normalize is ParseObject with the legacy stripping rules.
func Normalize(raw string) (map[string]any, error) {
	return NewNormalizer(StripLegacy).ParseObject(raw)
}
