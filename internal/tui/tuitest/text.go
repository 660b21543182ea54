package tuitest

import (
	"regexp"
	"strings"
)

var (
	ansiRegex       = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// StripANSI removes all ANSI escape codes from a string.
func StripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// NormalizeWhitespace converts all whitespace sequences to single spaces and trims the result.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// ContainsInOrder checks if the output contains all specified strings in order.
func ContainsInOrder(output string, expected ...string) bool {
	lastIndex := 0
	for _, exp := range expected {
		index := strings.Index(output[lastIndex:], exp)
		if index == -1 {
			return false
		}
		lastIndex += index + len(exp)
	}
	return true
}

// LineIndex returns the first line of output containing s, or -1.
func LineIndex(output, s string) int {
	for i, line := range strings.Split(output, "\n") {
		if strings.Contains(line, s) {
			return i
		}
	}
	return -1
}

// ColumnIndex returns the display column where s starts on the first line that contains it, or -1.
func ColumnIndex(output, s string) int {
	for _, line := range strings.Split(output, "\n") {
		if i := strings.Index(line, s); i >= 0 {
			return len([]rune(line[:i]))
		}
	}
	return -1
}
