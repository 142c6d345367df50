package content

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// encodings maps the charset names the detector emits (lowercased) to
// their decoders. Names outside this table fall back to the IANA
// registry lookup in EncodingByName.
var encodings = map[string]encoding.Encoding{
	"utf-8":        unicode.UTF8,
	"utf-16le":     unicode.UTF16(unicode.LittleEndian, unicode.UseBOM),
	"utf-16be":     unicode.UTF16(unicode.BigEndian, unicode.UseBOM),
	"iso-8859-1":   charmap.ISO8859_1,
	"iso-8859-2":   charmap.ISO8859_2,
	"iso-8859-5":   charmap.ISO8859_5,
	"iso-8859-6":   charmap.ISO8859_6,
	"iso-8859-7":   charmap.ISO8859_7,
	"iso-8859-8":   charmap.ISO8859_8,
	"iso-8859-9":   charmap.ISO8859_9,
	"iso-8859-15":  charmap.ISO8859_15,
	"windows-1250": charmap.Windows1250,
	"windows-1251": charmap.Windows1251,
	"windows-1252": charmap.Windows1252,
	"windows-1253": charmap.Windows1253,
	"windows-1254": charmap.Windows1254,
	"windows-1255": charmap.Windows1255,
	"windows-1256": charmap.Windows1256,
	"koi8-r":       charmap.KOI8R,
	"ibm855":       charmap.CodePage855,
	"ibm866":       charmap.CodePage866,
	"shift_jis":    japanese.ShiftJIS,
	"euc-jp":       japanese.EUCJP,
	"iso-2022-jp":  japanese.ISO2022JP,
	"euc-kr":       korean.EUCKR,
	"gbk":          simplifiedchinese.GBK,
	"gb-18030":     simplifiedchinese.GB18030,
	"gb18030":      simplifiedchinese.GB18030,
	"big5":         traditionalchinese.Big5,
}

// EncodingByName resolves a charset name to a decoder, consulting the
// local table first and the IANA index second. Returns nil for names
// no decoder is available for.
func EncodingByName(name string) encoding.Encoding {
	if e, ok := encodings[strings.ToLower(strings.TrimSpace(name))]; ok {
		return e
	}
	e, err := ianaindex.IANA.Encoding(name)
	if err != nil || e == nil {
		return nil
	}
	return e
}

// canonicalName normalizes a detector charset name for the outward
// response ("UTF-8" -> "utf-8", "Shift_JIS" -> "shift_jis").
func canonicalName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// EncodeText converts text to bytes under the named encoding. An empty
// name means UTF-8. Unknown names and unrepresentable characters are
// caller errors, unlike inbound classification which never fails.
func EncodeText(text, encodingName string) ([]byte, error) {
	name := canonicalName(encodingName)
	if name == "" || name == "utf-8" {
		return []byte(text), nil
	}
	enc := EncodingByName(name)
	if enc == nil {
		return nil, &UnknownEncodingError{Name: encodingName}
	}
	return enc.NewEncoder().Bytes([]byte(text))
}

// UnknownEncodingError reports an encoding name with no known codec.
type UnknownEncodingError struct {
	Name string
}

func (e *UnknownEncodingError) Error() string {
	return "unknown encoding: " + e.Name
}
