package content

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
)

func TestClassify_Utf8Text(t *testing.T) {
	res := Classify([]byte("hello"))

	assert.True(t, res.IsText)
	assert.Equal(t, "utf-8", res.Encoding)
	assert.Equal(t, "hello", res.Text)
}

func TestClassify_Utf8Multibyte(t *testing.T) {
	res := Classify([]byte("héllo wörld — ✓"))

	assert.True(t, res.IsText)
	assert.Equal(t, "utf-8", res.Encoding)
	assert.Equal(t, "héllo wörld — ✓", res.Text)
}

func TestClassify_Empty(t *testing.T) {
	res := Classify(nil)

	assert.True(t, res.IsText)
	assert.Equal(t, "utf-8", res.Encoding)
	assert.Empty(t, res.Text)

	res = Classify([]byte{})
	assert.True(t, res.IsText)
	assert.Empty(t, res.Text)
}

func TestClassify_PngHeaderIsBinary(t *testing.T) {
	res := Classify([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})

	assert.False(t, res.IsText)
	assert.Equal(t, BinaryEncoding, res.Encoding)
	assert.Empty(t, res.Text)
}

func TestClassify_NulBytesAreBinary(t *testing.T) {
	res := Classify([]byte("ab\x00cd"))

	assert.False(t, res.IsText)
	assert.Equal(t, BinaryEncoding, res.Encoding)
}

func TestClassify_RandomBinary(t *testing.T) {
	data := []byte{0x00, 0x01, 0x02, 0xfe, 0xff, 0x10, 0x80, 0x81}

	res := Classify(data)
	assert.False(t, res.IsText)
	assert.Equal(t, BinaryEncoding, res.Encoding)
}

func TestClassify_MultilineText(t *testing.T) {
	res := Classify([]byte("line one\r\nline two\n\tindented\n"))

	assert.True(t, res.IsText)
	assert.Equal(t, "utf-8", res.Encoding)
}

func TestClassify_ShiftJisText(t *testing.T) {
	plain := "これは日本語のテキストです。文字コードの判定には十分な長さがあります。"
	raw, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(plain))
	require.NoError(t, err)

	res := Classify(raw)

	assert.True(t, res.IsText)
	assert.Equal(t, "shift_jis", res.Encoding)
	assert.Equal(t, plain, res.Text)
	assert.GreaterOrEqual(t, res.Confidence, 0.8)
}

func TestClassify_NeverPanics(t *testing.T) {
	inputs := [][]byte{
		nil,
		{0xff},
		{0xc3}, // truncated multi-byte sequence
		bytes.Repeat([]byte{0xee, 0x00}, 512),
		[]byte("plain"),
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { Classify(in) })
	}
}

func TestStrictDecode_Latin1(t *testing.T) {
	raw, err := charmap.Windows1252.NewEncoder().Bytes([]byte("café au lait"))
	require.NoError(t, err)

	text, err := strictDecode(charmap.Windows1252, raw)
	require.NoError(t, err)
	assert.Equal(t, "café au lait", text)
}

func TestStrictDecode_RejectsTruncatedMultibyte(t *testing.T) {
	raw, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte("日本語のテキスト"))
	require.NoError(t, err)

	// Complete buffer decodes.
	text, err := strictDecode(japanese.ShiftJIS, raw)
	require.NoError(t, err)
	assert.Equal(t, "日本語のテキスト", text)

	// Cutting a code point in half must fail, not substitute.
	_, err = strictDecode(japanese.ShiftJIS, raw[:len(raw)-1])
	assert.Error(t, err)
}

func TestStrictDecode_RejectsControlBytes(t *testing.T) {
	_, err := strictDecode(charmap.Windows1252, []byte("ok\x01ok"))
	assert.Error(t, err)
}

func TestEncodingByName(t *testing.T) {
	assert.NotNil(t, EncodingByName("UTF-8"))
	assert.NotNil(t, EncodingByName("windows-1252"))
	assert.NotNil(t, EncodingByName("Shift_JIS"))
	assert.NotNil(t, EncodingByName("GB-18030"))
	assert.Nil(t, EncodingByName("no-such-charset"))
}

func TestEncodeText_RoundTrip(t *testing.T) {
	raw, err := EncodeText("grüße", "windows-1252")
	require.NoError(t, err)

	text, err := strictDecode(charmap.Windows1252, raw)
	require.NoError(t, err)
	assert.Equal(t, "grüße", text)
}

func TestEncodeText_DefaultUtf8(t *testing.T) {
	raw, err := EncodeText("hello", "")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), raw)
}

func TestEncodeText_UnknownEncoding(t *testing.T) {
	_, err := EncodeText("hello", "klingon-8")
	assert.Error(t, err)

	var unknownErr *UnknownEncodingError
	assert.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "klingon-8", unknownErr.Name)
}

func TestMimeType(t *testing.T) {
	assert.Equal(t, "text/html", MimeType("/site/index.html"))
	assert.Equal(t, "application/octet-stream", MimeType("/data/blob.xyz"))
	assert.Equal(t, "application/octet-stream", MimeType("README"))
}

func TestResolveMimeType_TextOverride(t *testing.T) {
	// Text-classified content with a generic extension reports text/plain.
	assert.Equal(t, "text/plain", ResolveMimeType("/logs/output.xyz", true))
	// Binary content keeps the generic type.
	assert.Equal(t, "application/octet-stream", ResolveMimeType("/logs/output.xyz", false))
	// A real extension wins either way.
	assert.Equal(t, "text/html", ResolveMimeType("/site/index.html", true))
}

func TestInit_Idempotent(t *testing.T) {
	Init()
	Init()
	assert.NotNil(t, detector)
}
