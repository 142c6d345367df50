package content

import (
	"mime"
	"path"
	"strings"
)

const octetStream = "application/octet-stream"

// MimeType looks up a MIME type by file extension, without parameters.
// Unknown extensions map to application/octet-stream.
func MimeType(name string) string {
	ext := strings.ToLower(path.Ext(name))
	t := mime.TypeByExtension(ext)
	if t == "" {
		return octetStream
	}
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}

// ResolveMimeType applies the outward formatting rule: content that
// classified as text but whose extension maps to the generic binary
// type reports text/plain instead.
func ResolveMimeType(name string, isText bool) string {
	t := MimeType(name)
	if isText && t == octetStream {
		return "text/plain"
	}
	return t
}
