// Package jsonx recovers usable JSON from imperfect LLM responses.
//
// Model output routinely arrives wrapped in markdown fences, surrounded by
// prose, or cut off mid-array by a token limit. Every LLM boundary in the
// pipeline funnels through this package rather than repairing JSON ad hoc.
package jsonx

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON is returned when no decodable JSON value can be found in the input.
var ErrNoJSON = errors.New("jsonx: no JSON value found in input")

// Unmarshal decodes the first usable JSON value in raw into v, applying the
// recovery rules in order: direct decode, fence stripping, largest balanced
// value extraction, truncated-array recovery.
func Unmarshal(raw string, v any) error {
	candidate := Extract(raw)
	if candidate == "" {
		return ErrNoJSON
	}
	return json.Unmarshal([]byte(candidate), v)
}

// Extract returns the largest decodable JSON value embedded in raw, or ""
// if none is found.
func Extract(raw string) string {
	s := stripFences(strings.TrimSpace(raw))

	if json.Valid([]byte(s)) {
		return s
	}

	// Scan for the first { or [ and take the balanced span from there.
	if span := balancedSpan(s); span != "" {
		if json.Valid([]byte(span)) {
			return span
		}
		// Balanced but invalid, or unterminated: try truncated-array recovery.
		if recovered := recoverTruncatedArray(span); recovered != "" {
			return recovered
		}
	}
	return ""
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag, leaving inner content untouched.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		// Fence may follow leading prose.
		if idx := strings.Index(s, "```"); idx >= 0 {
			s = s[idx:]
		} else {
			return s
		}
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// Drop the language tag line (e.g. "json").
		first := strings.TrimSpace(s[:nl])
		if len(first) <= 8 && !strings.ContainsAny(first, "{}[]") {
			s = s[nl+1:]
		}
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// balancedSpan returns the span from the first opening bracket through its
// matching close, honouring strings and escapes. If the input ends before the
// bracket closes, the unterminated span is returned as-is so that truncation
// recovery can take over.
func balancedSpan(s string) string {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return ""
	}
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
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return s[start:]
}

// recoverTruncatedArray salvages all complete objects from an array that was
// cut off mid-element, returning a well-formed array of the survivors.
func recoverTruncatedArray(s string) string {
	start := strings.IndexByte(s, '[')
	if start < 0 {
		return ""
	}
	var elements []string
	i := start + 1
	for i < len(s) {
		for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r' || s[i] == ',') {
			i++
		}
		if i >= len(s) || s[i] == ']' {
			break
		}
		span := balancedSpan(s[i:])
		if span == "" || !json.Valid([]byte(span)) {
			break
		}
		elements = append(elements, span)
		i += len(span)
	}
	if len(elements) == 0 {
		return ""
	}
	return "[" + strings.Join(elements, ",") + "]"
}
