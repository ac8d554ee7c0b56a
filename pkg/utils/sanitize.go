package utils

import (
	"regexp"
	"strings"
)

var (
	unsafeChars    = regexp.MustCompile(`[^\w\-.]`)
	underscoreRuns = regexp.MustCompile(`_+`)
)

// SanitizeFileName makes a single path segment safe to use as a local file
// or directory name. The npm scope marker '@' becomes "at_", anything outside
// [A-Za-z0-9_\-.] becomes an underscore, runs of underscores collapse, and
// leading/trailing separator characters are trimmed. The result can be empty,
// for example for the registry's "-" tarball marker segment; callers drop
// empty segments.
func SanitizeFileName(name string) string {
	s := strings.ReplaceAll(name, "@", "at_")
	s = unsafeChars.ReplaceAllString(s, "_")
	s = underscoreRuns.ReplaceAllString(s, "_")
	return strings.Trim(s, "_.-")
}
