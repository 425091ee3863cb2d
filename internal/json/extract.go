// Package json provides JSON extraction utilities for parsing LLM responses.
//
// LLMs often return JSON embedded in text or with additional commentary.
// This package locates exactly one top-level JSON object in such a reply
// and refuses to guess when the reply is ambiguous.
package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoObject is returned when the response contains no '{'.
	ErrNoObject = errors.New("no JSON object in response")
	// ErrUnbalanced is returned when the first object never closes.
	ErrUnbalanced = errors.New("unbalanced JSON object in response")
	// ErrMultipleObjects is returned when a second top-level object follows the first.
	ErrMultipleObjects = errors.New("more than one JSON object in response")
)

// extractJSON finds and returns the JSON object embedded in a response string.
//
// The object starts at the first '{' and ends at its balanced closing '}'.
// Braces inside JSON strings (including escaped quotes) are not counted.
// Leading and trailing prose is tolerated; markdown code fences are just
// more prose. A second top-level '{' after the object is treated as ambiguous.
func extractJSON(response string) (string, error) {
	start := strings.IndexByte(response, '{')
	if start == -1 {
		return "", fmt.Errorf("%w: %q", ErrNoObject, preview(response))
	}

	end := balancedEnd(response, start)
	if end == -1 {
		return "", fmt.Errorf("%w: %q", ErrUnbalanced, preview(response))
	}

	if strings.IndexByte(response[end+1:], '{') != -1 {
		return "", fmt.Errorf("%w: %q", ErrMultipleObjects, preview(response))
	}

	jsonStr := response[start : end+1]
	if !json.Valid([]byte(jsonStr)) {
		return "", fmt.Errorf("failed to extract valid JSON from response: %q", preview(response))
	}
	return jsonStr, nil
}

// balancedEnd returns the index of the '}' closing the object opened at
// start, or -1 if the object is never closed.
func balancedEnd(s string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func preview(response string) string {
	if len(response) > 100 {
		return response[:100] + "..."
	}
	return response
}

// ExtractJSONFromResponse extracts and parses JSON from an LLM response.
// Returns the parsed value or an error if extraction fails.
func ExtractJSONFromResponse[T any](response string) (T, error) {
	var result T
	jsonStr, err := extractJSON(response)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return result, nil
}

// ExtractJSON extracts the JSON portion from a response string.
// Returns the raw JSON string suitable for further processing.
func ExtractJSON(response string) (string, error) {
	return extractJSON(response)
}
