package storage

import "strings"

// IsIgnored reports whether path lies inside any of the ignored directories.
// Both sides are slash-normalised and compared as directory prefixes, so
// "notes/old" matches "notes/old/a.md" and "archive/notes/old/b.md" but
// not "notes/older/c.md".
func IsIgnored(path string, dirs []string) bool {
	p := withTrailingSlash(normalize(path))
	for _, d := range dirs {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		sub := withTrailingSlash(normalize(d))
		if strings.HasPrefix(p, sub) || strings.Contains(p, "/"+sub) {
			return true
		}
	}
	return false
}

func normalize(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	return strings.TrimLeft(strings.TrimPrefix(p, "./"), "/")
}

func withTrailingSlash(p string) string {
	if strings.HasSuffix(p, "/") {
		return p
	}
	return p + "/"
}
