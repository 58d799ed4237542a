package snapshot

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// SpaceClass is a regexp character class covering ASCII whitespace, vertical tab,
// Unicode space separators, the line and paragraph separators and the byte order mark.
const SpaceClass = `[\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]`

var whitespaceRegex = regexp.MustCompile(SpaceClass + `+`)

// Compact collapses whitespace runs to a single space and trims the result.
func Compact(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// SameProject reports whether two paths name the same project: equal after cleaning to
// absolute form, or one is an ancestor directory of the other. The prefix check stops at a
// path separator, so /a/b and /a/bc do not match. The filesystem root is nobody's ancestor.
func SameProject(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	a = absClean(a)
	b = absClean(b)
	if a == b {
		return true
	}
	return strings.HasPrefix(a, b+sep) || strings.HasPrefix(b, a+sep)
}

const sep = string(os.PathSeparator)

func absClean(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
