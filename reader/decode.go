package reader

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// decodeString converts a string shown with a font that has no ToUnicode
// map to UTF-8 and reports how many glyph codes it contains.
//
// Strings starting with a UTF-16BE byte order mark, and hex strings whose
// every high byte is zero (the common 2-byte CID layout for Latin text), are
// decoded as UTF-16BE with two bytes per code. Everything else is read as
// Windows-1252 with one byte per code.
func decodeString(s pdfString) (string, int) {
	raw := s.raw
	if len(raw) == 0 {
		return "", 0
	}

	if len(raw) >= 2 && raw[0] == 0xFE && raw[1] == 0xFF {
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		if out, err := dec.Bytes(raw); err == nil {
			return clean(string(out)), (len(raw) - 2) / 2
		}
	}

	if s.hex && isTwoByte(raw) {
		dec := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
		if out, err := dec.Bytes(raw); err == nil {
			return clean(string(out)), len(raw) / 2
		}
	}

	out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return clean(strings.ToValidUTF8(string(raw), "�")), len(raw)
	}
	return clean(string(out)), len(raw)
}

// isTwoByte reports whether raw looks like big-endian 2-byte codes with an
// empty high byte.
func isTwoByte(raw []byte) bool {
	if len(raw)%2 != 0 {
		return false
	}
	for i := 0; i < len(raw); i += 2 {
		if raw[i] != 0 {
			return false
		}
	}
	return true
}

// clean drops NUL and other C0 control characters except tab and newline.
func clean(s string) string {
	if !strings.ContainsFunc(s, isDropped) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !isDropped(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isDropped(r rune) bool {
	return r < 0x20 && r != '\t' && r != '\n'
}
