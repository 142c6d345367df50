package listing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine_UnixDirectory(t *testing.T) {
	e := ParseLine("drwxr-xr-x 2 u g 4096 Jan 10 10:00 folder")

	assert.Equal(t, "folder", e.Name)
	assert.True(t, e.IsDir)
	assert.Equal(t, "drwxr-xr-x", e.Permissions)
	require.NotNil(t, e.Size)
	assert.Equal(t, int64(4096), *e.Size)
	require.NotNil(t, e.ModTime)
	assert.Equal(t, time.January, e.ModTime.Month())
	assert.Equal(t, 10, e.ModTime.Day())
	assert.Equal(t, 10, e.ModTime.Hour())
	assert.Equal(t, 0, e.ModTime.Minute())
}

func TestParseLine_UnixFileWithSpacesInName(t *testing.T) {
	e := ParseLine("-rw-r--r-- 1 u g 1234 Jan 20 2023 my file.txt")

	assert.Equal(t, "my file.txt", e.Name)
	assert.False(t, e.IsDir)
	assert.Equal(t, "-rw-r--r--", e.Permissions)
	require.NotNil(t, e.Size)
	assert.Equal(t, int64(1234), *e.Size)
	require.NotNil(t, e.ModTime)
	assert.Equal(t, 2023, e.ModTime.Year())
	assert.Equal(t, time.January, e.ModTime.Month())
	assert.Equal(t, 20, e.ModTime.Day())
}

func TestParseLine_UnixMissingLinkCount(t *testing.T) {
	e := ParseLine("-rw-r--r-- owner group 512 Feb 3 08:15 notes.md")

	assert.Equal(t, "notes.md", e.Name)
	assert.False(t, e.IsDir)
	require.NotNil(t, e.Size)
	assert.Equal(t, int64(512), *e.Size)
}

func TestParseLine_UnixBadDateDegrades(t *testing.T) {
	e := ParseLine("-rw-r--r-- 1 u g 99 Xxx 99 zz:zz strange.bin")

	// Recognized dialect, degraded date.
	assert.Equal(t, "strange.bin", e.Name)
	assert.Equal(t, "-rw-r--r--", e.Permissions)
	require.NotNil(t, e.Size)
	assert.Equal(t, int64(99), *e.Size)
	assert.Nil(t, e.ModTime)
}

func TestParseLine_UnixReparseIsIdempotent(t *testing.T) {
	lines := []string{
		"drwxr-xr-x 2 u g 4096 Jan 10 10:00 folder",
		"-rw-r--r-- 1 u g 1234 Jan 20 2023 my file.txt",
		"-rwxr-x--- 12 alice staff 70 Dec 1 23:59 run.sh",
	}
	for _, line := range lines {
		first := ParseLine(line)
		second := ParseLine(first.Raw)
		assert.Equal(t, first, second, "line %q", line)
	}
}

func TestParseLine_DosDirectory(t *testing.T) {
	e := ParseLine("01-10-23  02:14PM  <DIR>  archive")

	assert.Equal(t, "archive", e.Name)
	assert.True(t, e.IsDir)
	assert.Nil(t, e.Size)
	assert.Empty(t, e.Permissions)
	require.NotNil(t, e.ModTime)
	assert.Equal(t, 2023, e.ModTime.Year())
	assert.Equal(t, 14, e.ModTime.Hour())
}

func TestParseLine_DosFile(t *testing.T) {
	e := ParseLine("01-10-23  02:14PM  1234  report.txt")

	assert.Equal(t, "report.txt", e.Name)
	assert.False(t, e.IsDir)
	require.NotNil(t, e.Size)
	assert.Equal(t, int64(1234), *e.Size)
}

func TestParseLine_DosNameKeepsInnerSpaces(t *testing.T) {
	e := ParseLine("01-10-23  02:14PM  1234  report  v2.txt")

	// Multiple spaces inside the name come through verbatim.
	assert.Equal(t, "report  v2.txt", e.Name)
}

func TestParseLine_DosCaseInsensitiveDirMarker(t *testing.T) {
	e := ParseLine("01-10-23  02:14PM  <dir>  stuff")

	assert.True(t, e.IsDir)
	assert.Nil(t, e.Size)
}

func TestParseLine_DosRejectedWithoutDate(t *testing.T) {
	e := ParseLine("nodate  02:14PM  <DIR>  archive")

	// Falls through to the raw fallback.
	assert.Equal(t, "nodate  02:14PM  <DIR>  archive", e.Name)
	assert.False(t, e.IsDir)
	assert.Nil(t, e.ModTime)
}

func TestParseLine_Fallback(t *testing.T) {
	e := ParseLine("not a listing line at all")

	assert.Equal(t, "not a listing line at all", e.Name)
	assert.False(t, e.IsDir)
	assert.Nil(t, e.Size)
	assert.Nil(t, e.ModTime)
	assert.Empty(t, e.Permissions)
	assert.Equal(t, "not a listing line at all", e.Raw)
}

func TestParseLine_FallbackTrimsName(t *testing.T) {
	e := ParseLine("  padded junk  ")

	assert.Equal(t, "padded junk", e.Name)
	assert.Equal(t, "  padded junk  ", e.Raw)
}

func TestParse_OneEntryPerLine(t *testing.T) {
	text := "drwxr-xr-x 2 u g 4096 Jan 10 10:00 folder\r\n" +
		"total 42\r\n" +
		"-rw-r--r-- 1 u g 1234 Jan 20 2023 my file.txt\r\n" +
		"01-10-23  02:14PM  <DIR>  archive\r\n" +
		"garbage here\r\n"

	entries := Parse(text)
	require.Len(t, entries, 5)

	assert.Equal(t, "folder", entries[0].Name)
	assert.Equal(t, "total 42", entries[1].Name) // header line survives as fallback
	assert.Equal(t, "my file.txt", entries[2].Name)
	assert.Equal(t, "archive", entries[3].Name)
	assert.Equal(t, "garbage here", entries[4].Name)
}

func TestParse_MixedLineTerminators(t *testing.T) {
	entries := Parse("a\nb\r\nc\rd")
	require.Len(t, entries, 4)
	assert.Equal(t, "a", entries[0].Name)
	assert.Equal(t, "d", entries[3].Name)
}

func TestParse_TrailingTerminatorDiscarded(t *testing.T) {
	assert.Len(t, Parse("one line\n"), 1)
	assert.Len(t, Parse("one line"), 1)
	assert.Len(t, Parse(""), 0)
	// Only a single trailing empty line is dropped.
	assert.Len(t, Parse("one line\n\n"), 2)
}

func TestParse_PreservesOrder(t *testing.T) {
	entries := Parse("z\na\nm\n")
	require.Len(t, entries, 3)
	assert.Equal(t, "z", entries[0].Name)
	assert.Equal(t, "a", entries[1].Name)
	assert.Equal(t, "m", entries[2].Name)
}
