package main

import (
	"strings"
	"unicode/utf8"
)

// trimString shortens s to at most maxLen runes, marking the cut with "...".
func trimString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	keep := max(maxLen-3, 0)
	return string([]rune(s)[:keep]) + "..."
}

// firstLine returns the first non-empty line of s.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// dedent strips the indentation shared by all non-blank lines, so message
// templates can be written indented inside Go raw strings.
func dedent(s string) string {
	lines := strings.Split(s, "\n")
	indent := ""
	first := true
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		prefix := line[:len(line)-len(trimmed)]
		if first || len(prefix) < len(indent) {
			indent, first = prefix, false
		}
	}
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, indent)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
