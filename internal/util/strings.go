// Package util provides shared utility functions used across the application.
package util

import (
	"strings"
)

// SplitList splits a comma separated flag value, trimming blanks and dropping
// empty entries.
func SplitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// TrimBraces removes one pair of surrounding braces, turning "{wood}" into "wood".
func TrimBraces(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") && len(s) >= 2 {
		return s[1 : len(s)-1]
	}
	return s
}

// TrimSuffixFold removes suffix from s ignoring case.
func TrimSuffixFold(s, suffix string) string {
	if len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix) {
		return s[:len(s)-len(suffix)]
	}
	return s
}

// TitleFromID turns an identifier such as "dark_oak" into "Dark Oak".
func TitleFromID(id string) string {
	r := strings.NewReplacer(":", "_", "/", "_", "-", "_")
	var words []string
	for p := range strings.SplitSeq(r.Replace(id), "_") {
		if p != "" {
			words = append(words, strings.ToUpper(p[:1])+p[1:])
		}
	}
	return strings.Join(words, " ")
}
