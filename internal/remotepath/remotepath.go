// Package remotepath canonicalizes user-supplied remote FTP paths.
package remotepath

import "strings"

// Normalize canonicalizes a remote path. An empty or whitespace-only
// path falls back to fallback, then to "/". Backslashes become forward
// slashes and the result always starts with "/". Traversal segments
// are passed through untouched; the FTP account itself is the
// permission boundary.
func Normalize(raw, fallback string) string {
	p := strings.TrimSpace(raw)
	if p == "" {
		p = strings.TrimSpace(fallback)
	}
	if p == "" {
		p = "/"
	}
	p = strings.ReplaceAll(p, "\\", "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
