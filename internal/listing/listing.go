// Package listing parses raw FTP directory listings. LIST output has
// no single standard format, so each line is tried against known
// dialects in priority order: Unix ls style first, then DOS style.
// Lines that match neither still yield an entry carrying the raw text;
// the parser never drops a line.
package listing

import (
	"strconv"
	"strings"
	"time"
)

// Entry is one parsed line of a directory listing. Size, ModTime and
// Permissions are nil/empty when the source line does not carry them
// unambiguously. Raw always holds the original line.
type Entry struct {
	Name        string     `json:"name"`
	IsDir       bool       `json:"is_directory"`
	Size        *int64     `json:"size,omitempty"`
	ModTime     *time.Time `json:"modified,omitempty"`
	Permissions string     `json:"permissions,omitempty"`
	Raw         string     `json:"raw"`
}

// Parse splits a full listing into lines and parses each one. Any of
// \r\n, \n or \r terminates a line. A single trailing empty line from
// a final terminator is discarded; every other line produces exactly
// one entry, in input order.
func Parse(text string) []Entry {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	lines := strings.Split(normalized, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		entries = append(entries, ParseLine(line))
	}
	return entries
}

// ParseLine parses one listing line, trying Unix first, then DOS. A
// line that matches no dialect becomes a fallback entry whose name is
// the trimmed raw line.
func ParseLine(line string) Entry {
	if e, ok := parseUnixLine(line); ok {
		return e
	}
	if e, ok := parseDosLine(line); ok {
		return e
	}
	return Entry{
		Name: strings.TrimSpace(line),
		Raw:  line,
	}
}

const permChars = "rwxsStT-"

// parseUnixLine handles ls -l style lines:
//
//	drwxr-xr-x  2 owner group  4096 Jan 10 10:00 name with spaces
//
// The 10-character permission prefix is the dialect signature. The
// token walk after it is tolerant: the link count may be missing, the
// size is the first integer token after owner/group, and a date that
// fails to parse degrades to a nil ModTime rather than rejecting the
// line.
func parseUnixLine(line string) (Entry, bool) {
	if len(line) < 10 {
		return Entry{}, false
	}
	perm := line[:10]
	if perm[0] != 'd' && perm[0] != '-' {
		return Entry{}, false
	}
	for i := 1; i < 10; i++ {
		if !strings.ContainsRune(permChars, rune(perm[i])) {
			return Entry{}, false
		}
	}

	fields := strings.Fields(line[10:])
	idx := 0

	// Optional link count.
	if idx < len(fields) {
		if _, err := strconv.Atoi(fields[idx]); err == nil {
			idx++
		}
	}

	// Owner and group.
	idx += 2

	// Size is the first integer token after owner/group.
	var size *int64
	for idx < len(fields) {
		n, err := strconv.ParseInt(fields[idx], 10, 64)
		if err == nil && n >= 0 {
			size = &n
			idx++
			break
		}
		idx++
	}

	// Month, day, time-or-year.
	var modTime *time.Time
	if idx+3 <= len(fields) {
		if t, ok := parseUnixTime(fields[idx], fields[idx+1], fields[idx+2]); ok {
			modTime = &t
		}
	}
	idx += 3

	var name string
	if idx < len(fields) {
		name = strings.Join(fields[idx:], " ")
	}
	if name == "" && len(fields) > 0 {
		// Short lines: fall back to the last token.
		name = fields[len(fields)-1]
	}
	if name == "" {
		return Entry{}, false
	}

	return Entry{
		Name:        name,
		IsDir:       perm[0] == 'd',
		Size:        size,
		ModTime:     modTime,
		Permissions: perm,
		Raw:         line,
	}, true
}

var unixTimeLayouts = []string{
	"Jan 2 15:04",
	"Jan 2 2006",
}

// parseUnixTime parses the "Jan 10 10:00" / "Jan 20 2023" date forms.
// The HH:MM form carries no year; it resolves to the current year, or
// the previous one when that would land more than two days in the
// future (ls convention around year boundaries).
func parseUnixTime(month, day, tail string) (time.Time, bool) {
	joined := month + " " + day + " " + tail
	for _, layout := range unixTimeLayouts {
		t, err := time.Parse(layout, joined)
		if err != nil {
			continue
		}
		if t.Year() == 0 {
			now := time.Now().UTC()
			t = t.AddDate(now.Year(), 0, 0)
			if t.After(now.AddDate(0, 0, 2)) {
				t = t.AddDate(-1, 0, 0)
			}
		}
		return t, true
	}
	return time.Time{}, false
}

var dosTimeLayouts = []string{
	"01-02-06 03:04PM",
	"01-02-2006 03:04PM",
	"01-02-06 15:04",
	"01-02-2006 15:04",
}

// parseDosLine handles IIS/DOS style lines:
//
//	01-10-23  02:14PM       <DIR>          archive
//	01-10-23  02:14PM            1234      report v2.txt
//
// Unlike the Unix dialect the timestamp is the signature: if the first
// two tokens do not parse as a date the dialect is rejected outright.
// The name is the substring after the third token so that internal
// space runs inside the name survive verbatim.
func parseDosLine(line string) (Entry, bool) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return Entry{}, false
	}

	modTime, ok := parseDosTime(fields[0] + " " + fields[1])
	if !ok {
		return Entry{}, false
	}

	var size *int64
	isDir := false
	if strings.EqualFold(fields[2], "<DIR>") {
		isDir = true
	} else {
		n, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil || n < 0 {
			return Entry{}, false
		}
		size = &n
	}

	name := strings.TrimSpace(line[offsetAfterToken(line, 3):])
	if name == "" {
		return Entry{}, false
	}

	return Entry{
		Name:    name,
		IsDir:   isDir,
		Size:    size,
		ModTime: &modTime,
		Raw:     line,
	}, true
}

func parseDosTime(s string) (time.Time, bool) {
	for _, layout := range dosTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// offsetAfterToken returns the byte offset immediately after the n-th
// whitespace-delimited token of s.
func offsetAfterToken(s string, n int) int {
	i := 0
	for t := 0; t < n && i < len(s); t++ {
		for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
		for i < len(s) && s[i] != ' ' && s[i] != '\t' {
			i++
		}
	}
	return i
}
