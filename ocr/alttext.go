package ocr

import (
	"errors"
	"strings"
)

// ErrOCRNotEnabled is returned when OCR functions are called but OCR support
// was not compiled in. Rebuild with -tags ocr to enable OCR support.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// MaxAltTextLen is the longest description AltText returns, in runes
const MaxAltTextLen = 200

// Condense collapses whitespace in recognized text to single spaces and cuts
// it to at most max runes, ending with "…" when cut.
func Condense(text string, max int) string {
	s := strings.Join(strings.Fields(text), " ")
	if max <= 0 {
		return s
	}

	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return strings.TrimRight(string(runes[:max-1]), " ") + "…"
}
