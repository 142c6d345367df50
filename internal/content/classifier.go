// Package content decides whether downloaded bytes are text, and in
// which encoding, before they go out in a response. Detection is a
// two-stage pipeline: a statistical charset guess gated by a
// confidence threshold, then a strict decode that must round-trip the
// buffer without substitutions. Anything that fails either stage ships
// as base64.
package content

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/saintfish/chardet"

	"golang.org/x/text/encoding"
)

// BinaryEncoding is the sentinel encoding label for non-text content;
// the response body carries base64 in that case.
const BinaryEncoding = "base64"

// minConfidence is the detector score (0-100) required before a
// candidate encoding is even attempted. False negatives fall back to
// base64, which is safe; false positives would corrupt output.
const minConfidence = 80

// Result is the outcome of classifying one byte buffer.
type Result struct {
	IsText     bool
	Encoding   string
	Text       string
	Confidence float64
}

var (
	setupOnce sync.Once
	detector  *chardet.Detector
)

// Init performs the one-time process-wide detector setup. It is
// idempotent and also triggered lazily by Classify; calling it from
// main just front-loads the work.
func Init() {
	setupOnce.Do(func() {
		detector = chardet.NewTextDetector()
	})
}

// Classify decides text-vs-binary for a byte buffer. It is a total
// function: malformed data is an expected input and never an error.
func Classify(data []byte) Result {
	Init()

	if len(data) == 0 {
		return Result{IsText: true, Encoding: "utf-8", Confidence: 1}
	}

	// Valid UTF-8 without NUL bytes needs no statistical guess; this
	// also canonicalizes plain ASCII to utf-8.
	if bytes.IndexByte(data, 0) < 0 && utf8.Valid(data) {
		if text, err := checkDecoded(string(data)); err == nil {
			return Result{IsText: true, Encoding: "utf-8", Text: text, Confidence: 1}
		}
	}

	best, err := detector.DetectBest(data)
	if err != nil || best == nil {
		return binaryResult(0)
	}
	confidence := float64(best.Confidence) / 100

	if best.Confidence < minConfidence {
		return binaryResult(confidence)
	}

	enc := EncodingByName(best.Charset)
	if enc == nil {
		return binaryResult(confidence)
	}

	text, err := strictDecode(enc, data)
	if err != nil {
		return binaryResult(confidence)
	}

	return Result{
		IsText:     true,
		Encoding:   canonicalName(best.Charset),
		Text:       text,
		Confidence: confidence,
	}
}

func binaryResult(confidence float64) Result {
	return Result{Encoding: BinaryEncoding, Confidence: confidence}
}

var errNotText = errors.New("content: buffer does not strictly decode as text")

// strictDecode decodes data under enc with zero tolerance: a decoder
// error, a substitution rune, or stray control characters in the
// output all fail the candidate. This catches encodings that score
// well statistically but do not actually round-trip the buffer.
func strictDecode(enc encoding.Encoding, data []byte) (string, error) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return checkDecoded(string(out))
}

// checkDecoded rejects decoded output that still looks binary: the
// replacement rune means the decoder substituted something, and
// control characters outside tab/newline do not occur in text files.
func checkDecoded(s string) (string, error) {
	if strings.ContainsRune(s, utf8.RuneError) {
		return "", errNotText
	}
	for _, r := range s {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			return "", errNotText
		}
		if r == 0x7f {
			return "", errNotText
		}
	}
	return s, nil
}
