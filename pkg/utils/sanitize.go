package utils

import (
	"regexp"
	"strings"
)

const maxTitleLength = 80

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeTitle turns a media title into a safe filename stem.
func SanitizeTitle(title string) string {
	s := unsafeChars.ReplaceAllString(title, "_")
	s = strings.Trim(s, "._-")
	if len(s) > maxTitleLength {
		s = s[:maxTitleLength]
		s = strings.Trim(s, "._-")
	}
	if s == "" {
		return "media"
	}
	return s
}
