// Package font decodes the character codes of shown PDF strings through a
// font's ToUnicode CMap.
package font

import (
	"encoding/hex"
	"errors"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// ErrNoMappings is returned by ParseCMap when the data holds no bfchar or
// bfrange entries
var ErrNoMappings = errors.New("font: cmap has no mappings")

// CMap maps character codes to Unicode text
type CMap struct {
	// Single character mappings: charCode -> unicode string
	charMappings map[uint32]string

	// Range mappings for efficiency
	rangeMappings []CMapRange

	// codespace declares the byte widths codes are read with
	codespace []codespaceRange
}

// CMapRange maps StartCode..EndCode onto consecutive Unicode values. The
// last rune of Start is incremented by the code offset.
type CMapRange struct {
	StartCode uint32
	EndCode   uint32
	Start     string
}

type codespaceRange struct {
	low, high uint32
	width     int // bytes per code
}

// NewCMap creates a new empty CMap
func NewCMap() *CMap {
	return &CMap{charMappings: make(map[uint32]string)}
}

// ParseCMap parses the decoded content of a ToUnicode stream
func ParseCMap(data []byte) (*CMap, error) {
	cm := NewCMap()
	content := string(data)

	for _, section := range sections(content, "begincodespacerange", "endcodespacerange") {
		cm.parseCodespace(tokenize(section))
	}
	for _, section := range sections(content, "beginbfchar", "endbfchar") {
		cm.parseBfChar(tokenize(section))
	}
	for _, section := range sections(content, "beginbfrange", "endbfrange") {
		cm.parseBfRange(tokenize(section))
	}

	if len(cm.charMappings) == 0 && len(cm.rangeMappings) == 0 {
		return nil, ErrNoMappings
	}
	return cm, nil
}

// sections returns the text between every begin/end keyword pair
func sections(content, begin, end string) []string {
	var out []string
	for {
		b := strings.Index(content, begin)
		if b == -1 {
			return out
		}
		content = content[b+len(begin):]
		e := strings.Index(content, end)
		if e == -1 {
			return out
		}
		out = append(out, content[:e])
		content = content[e+len(end):]
	}
}

// token is a hex string (with its byte width) or an array bracket
type token struct {
	bracket byte
	data    []byte
}

// tokenize splits a section into hex strings and brackets. Anything else,
// such as the comments some producers leave in, is skipped.
func tokenize(section string) []token {
	var out []token
	for i := 0; i < len(section); i++ {
		switch c := section[i]; c {
		case '[', ']':
			out = append(out, token{bracket: c})
		case '<':
			end := strings.IndexByte(section[i:], '>')
			if end == -1 {
				return out
			}
			if data, ok := decodeHex(section[i+1 : i+end]); ok {
				out = append(out, token{data: data})
			}
			i += end
		case '%':
			nl := strings.IndexAny(section[i:], "\r\n")
			if nl == -1 {
				return out
			}
			i += nl
		}
	}
	return out
}

func (cm *CMap) parseCodespace(toks []token) {
	for i := 0; i+1 < len(toks); i += 2 {
		lo, hi := toks[i].data, toks[i+1].data
		if len(lo) == 0 || len(lo) != len(hi) || len(lo) > 4 {
			continue
		}
		cm.codespace = append(cm.codespace, codespaceRange{
			low:   codeValue(lo),
			high:  codeValue(hi),
			width: len(lo),
		})
	}
}

// parseBfChar reads <srcCode> <dstUnicode> pairs
func (cm *CMap) parseBfChar(toks []token) {
	for i := 0; i+1 < len(toks); i += 2 {
		src, dst := toks[i], toks[i+1]
		if src.bracket != 0 || dst.bracket != 0 || len(src.data) == 0 || len(src.data) > 4 {
			continue
		}
		cm.charMappings[codeValue(src.data)] = unicodeText(dst.data)
		cm.noteWidth(len(src.data))
	}
}

// parseBfRange reads <srcCodeStart> <srcCodeEnd> <dstUnicode> and the array
// form <srcCodeStart> <srcCodeEnd> [<u1> <u2> ...]
func (cm *CMap) parseBfRange(toks []token) {
	for i := 0; i+2 < len(toks); {
		lo, hi := toks[i], toks[i+1]
		if lo.bracket != 0 || hi.bracket != 0 || len(lo.data) == 0 || len(lo.data) > 4 {
			i++
			continue
		}
		start, end := codeValue(lo.data), codeValue(hi.data)
		cm.noteWidth(len(lo.data))

		if toks[i+2].bracket != '[' {
			if end >= start {
				cm.rangeMappings = append(cm.rangeMappings, CMapRange{
					StartCode: start,
					EndCode:   end,
					Start:     unicodeText(toks[i+2].data),
				})
			}
			i += 3
			continue
		}

		i += 3
		for code := start; i < len(toks) && toks[i].bracket != ']'; i++ {
			if code <= end {
				cm.charMappings[code] = unicodeText(toks[i].data)
			}
			code++
		}
		i++ // closing bracket
	}
}

// noteWidth records the code width seen in a mapping when the CMap declares
// no codespace of its own
func (cm *CMap) noteWidth(width int) {
	for _, cs := range cm.codespace {
		if cs.width == width {
			return
		}
	}
	cm.codespace = append(cm.codespace, codespaceRange{
		low:   0,
		high:  1<<(8*width) - 1,
		width: width,
	})
}

// Lookup looks up a character code and returns its Unicode text
func (cm *CMap) Lookup(charCode uint32) (string, bool) {
	if unicode, ok := cm.charMappings[charCode]; ok {
		return unicode, true
	}

	for _, r := range cm.rangeMappings {
		if charCode >= r.StartCode && charCode <= r.EndCode {
			return offsetText(r.Start, charCode-r.StartCode), true
		}
	}
	return "", false
}

// Decode converts the bytes of a shown string to text and reports how many
// character codes they held. Codes are read with the widths of the CMap's
// codespace, shortest match first, and with defaultWidth bytes where no
// codespace range matches. Unmapped one-byte codes are read as Latin-1 and
// wider ones become U+FFFD.
func (cm *CMap) Decode(data []byte, defaultWidth int) (string, int) {
	if defaultWidth < 1 {
		defaultWidth = 1
	}

	var b strings.Builder
	codes := 0
	for i := 0; i < len(data); codes++ {
		width := cm.codeWidth(data[i:], defaultWidth)
		code := codeValue(data[i : i+width])
		i += width

		if text, ok := cm.Lookup(code); ok {
			b.WriteString(text)
		} else if width == 1 {
			b.WriteRune(rune(code))
		} else {
			b.WriteRune(utf8.RuneError)
		}
	}
	return b.String(), codes
}

// codeWidth returns the byte length of the code at the start of data
func (cm *CMap) codeWidth(data []byte, defaultWidth int) int {
	best := 0
	for _, cs := range cm.codespace {
		if cs.width > len(data) || (best != 0 && cs.width >= best) {
			continue
		}
		if code := codeValue(data[:cs.width]); code >= cs.low && code <= cs.high {
			best = cs.width
		}
	}
	if best == 0 {
		best = min(defaultWidth, len(data))
	}
	return best
}

// codeValue reads up to four bytes as a big-endian code
func codeValue(data []byte) uint32 {
	var v uint32
	for _, c := range data {
		v = v<<8 | uint32(c)
	}
	return v
}

// decodeHex decodes the body of a <...> string. Whitespace is ignored and an
// odd final digit is read as if followed by 0.
func decodeHex(s string) ([]byte, bool) {
	s = strings.Join(strings.Fields(s), "")
	if len(s)%2 != 0 {
		s += "0"
	}
	data, err := hex.DecodeString(s)
	return data, err == nil
}

// unicodeText decodes a destination string, which is UTF-16BE
func unicodeText(data []byte) string {
	if len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF {
		data = data[2:]
	}
	if len(data) == 1 {
		return string(rune(data[0]))
	}
	units := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		units = append(units, uint16(data[i])<<8|uint16(data[i+1]))
	}
	return string(utf16.Decode(units))
}

// offsetText adds offset to the last rune of s
func offsetText(s string, offset uint32) string {
	if offset == 0 || s == "" {
		return s
	}
	r, size := utf8.DecodeLastRuneInString(s)
	return s[:len(s)-size] + string(r+rune(offset))
}
