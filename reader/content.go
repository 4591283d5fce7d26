package reader

import (
	"bytes"
	"strconv"
)

// Operand values produced by the content scanner. Numbers are float64,
// booleans are bool and null is nil.
type (
	pdfName   string
	pdfArray  []any
	pdfDict   map[string]any
	pdfString struct {
		raw []byte
		hex bool
	}
)

// operation is a single content stream operator with its operands.
// Inline images are reported as operator "BI" with the image dictionary and
// the raw image bytes as operands.
type operation struct {
	operator string
	operands []any
}

// scanner splits a decoded content stream into operations. It is lenient:
// bytes it cannot make sense of are skipped rather than reported.
type scanner struct {
	data []byte
	pos  int
}

// parseContent returns every operation in data, in stream order.
func parseContent(data []byte) []operation {
	s := &scanner{data: data}
	var ops []operation
	var stack []any

	for {
		s.skipSpace()
		if s.pos >= len(s.data) {
			return ops
		}

		c := s.data[s.pos]
		if isRegular(c) && !isNumberStart(c) {
			word := s.readKeyword()
			switch word {
			case "true":
				stack = append(stack, true)
				continue
			case "false":
				stack = append(stack, false)
				continue
			case "null":
				stack = append(stack, nil)
				continue
			case "BI":
				ops = append(ops, s.readInlineImage())
				stack = nil
				continue
			}
			ops = append(ops, operation{operator: word, operands: stack})
			stack = nil
			continue
		}

		if v, ok := s.readOperand(); ok {
			stack = append(stack, v)
		}
	}
}

// readOperand parses the operand at the current position. ok is false when
// the byte could not start an operand and was skipped.
func (s *scanner) readOperand() (any, bool) {
	c := s.data[s.pos]
	switch {
	case isNumberStart(c):
		return s.readNumber(), true
	case c == '(':
		return s.readLiteral(), true
	case c == '<' && s.peek(1) == '<':
		return s.readDict(), true
	case c == '<':
		return s.readHex(), true
	case c == '/':
		return s.readName(), true
	case c == '[':
		return s.readArray(), true
	}
	s.pos++
	return nil, false
}

func (s *scanner) peek(offset int) byte {
	if s.pos+offset < len(s.data) {
		return s.data[s.pos+offset]
	}
	return 0
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if c == '%' {
			for s.pos < len(s.data) && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
				s.pos++
			}
			continue
		}
		if !isSpace(c) {
			return
		}
		s.pos++
	}
}

func (s *scanner) readKeyword() string {
	start := s.pos
	for s.pos < len(s.data) && isRegular(s.data[s.pos]) {
		s.pos++
	}
	return string(s.data[start:s.pos])
}

func (s *scanner) readNumber() float64 {
	start := s.pos
	s.pos++
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if (c >= '0' && c <= '9') || c == '.' {
			s.pos++
			continue
		}
		break
	}
	v, err := strconv.ParseFloat(string(s.data[start:s.pos]), 64)
	if err != nil {
		return 0
	}
	return v
}

// readLiteral parses a (...) string with nesting and escape sequences.
func (s *scanner) readLiteral() pdfString {
	s.pos++ // (
	var out bytes.Buffer
	depth := 1

	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++

		switch c {
		case '(':
			depth++
			out.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				return pdfString{raw: out.Bytes()}
			}
			out.WriteByte(c)
		case '\\':
			if s.pos >= len(s.data) {
				break
			}
			e := s.data[s.pos]
			s.pos++
			switch e {
			case 'n':
				out.WriteByte('\n')
			case 'r':
				out.WriteByte('\r')
			case 't':
				out.WriteByte('\t')
			case 'b':
				out.WriteByte('\b')
			case 'f':
				out.WriteByte('\f')
			case '\r':
				// line continuation
				if s.pos < len(s.data) && s.data[s.pos] == '\n' {
					s.pos++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for i := 0; i < 2 && s.pos < len(s.data); i++ {
						d := s.data[s.pos]
						if d < '0' || d > '7' {
							break
						}
						v = v*8 + int(d-'0')
						s.pos++
					}
					out.WriteByte(byte(v))
				} else {
					out.WriteByte(e)
				}
			}
		default:
			out.WriteByte(c)
		}
	}

	return pdfString{raw: out.Bytes()}
}

// readHex parses a <...> string. An odd final digit is padded with 0.
func (s *scanner) readHex() pdfString {
	s.pos++ // <
	var out []byte
	var hi byte
	half := false

	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		if c == '>' {
			break
		}
		v, ok := hexValue(c)
		if !ok {
			continue
		}
		if half {
			out = append(out, hi<<4|v)
		} else {
			hi = v
		}
		half = !half
	}
	if half {
		out = append(out, hi<<4)
	}
	return pdfString{raw: out, hex: true}
}

func (s *scanner) readName() pdfName {
	s.pos++ // /
	var out []byte
	for s.pos < len(s.data) && isRegular(s.data[s.pos]) {
		c := s.data[s.pos]
		if c == '#' && s.pos+2 < len(s.data) {
			h, ok1 := hexValue(s.data[s.pos+1])
			l, ok2 := hexValue(s.data[s.pos+2])
			if ok1 && ok2 {
				out = append(out, h<<4|l)
				s.pos += 3
				continue
			}
		}
		out = append(out, c)
		s.pos++
	}
	return pdfName(out)
}

func (s *scanner) readArray() pdfArray {
	s.pos++ // [
	arr := pdfArray{}
	for {
		s.skipSpace()
		if s.pos >= len(s.data) {
			return arr
		}
		c := s.data[s.pos]
		if c == ']' {
			s.pos++
			return arr
		}
		if isRegular(c) && !isNumberStart(c) {
			switch s.readKeyword() {
			case "true":
				arr = append(arr, true)
			case "false":
				arr = append(arr, false)
			default:
				arr = append(arr, nil)
			}
			continue
		}
		if v, ok := s.readOperand(); ok {
			arr = append(arr, v)
		}
	}
}

func (s *scanner) readDict() pdfDict {
	s.pos += 2 // <<
	d := pdfDict{}
	for {
		s.skipSpace()
		if s.pos >= len(s.data) {
			return d
		}
		if s.data[s.pos] == '>' && s.peek(1) == '>' {
			s.pos += 2
			return d
		}
		if s.data[s.pos] != '/' {
			s.pos++
			continue
		}
		key := s.readName()
		s.skipSpace()
		if s.pos >= len(s.data) {
			return d
		}
		if isRegular(s.data[s.pos]) && !isNumberStart(s.data[s.pos]) {
			d[string(key)] = pdfName(s.readKeyword())
			continue
		}
		if v, ok := s.readOperand(); ok {
			d[string(key)] = v
		}
	}
}

// readInlineImage consumes "<dict pairs> ID <data> EI" following BI.
func (s *scanner) readInlineImage() operation {
	params := pdfDict{}
	for {
		s.skipSpace()
		if s.pos >= len(s.data) {
			return operation{operator: "BI", operands: []any{params, []byte(nil)}}
		}
		if s.data[s.pos] == '/' {
			key := s.readName()
			s.skipSpace()
			if s.pos >= len(s.data) {
				continue
			}
			if s.data[s.pos] == '/' {
				params[string(key)] = s.readName()
			} else if isRegular(s.data[s.pos]) && !isNumberStart(s.data[s.pos]) {
				params[string(key)] = pdfName(s.readKeyword())
			} else if v, ok := s.readOperand(); ok {
				params[string(key)] = v
			}
			continue
		}
		if isRegular(s.data[s.pos]) && !isNumberStart(s.data[s.pos]) {
			if s.readKeyword() == "ID" {
				break
			}
			continue
		}
		s.readOperand()
	}

	// a single white-space byte separates ID from the data
	if s.pos < len(s.data) && isSpace(s.data[s.pos]) {
		s.pos++
	}
	start := s.pos
	end := len(s.data)
	for i := start; i+1 < len(s.data); i++ {
		if s.data[i] != 'E' || s.data[i+1] != 'I' {
			continue
		}
		before := i == start || isSpace(s.data[i-1])
		after := i+2 >= len(s.data) || isSpace(s.data[i+2]) || isDelimiter(s.data[i+2])
		if before && after {
			end = i
			break
		}
	}

	data := s.data[start:end]
	if n := len(data); n > 0 && isSpace(data[n-1]) {
		data = data[:n-1]
	}
	s.pos = end + 2
	if s.pos > len(s.data) {
		s.pos = len(s.data)
	}
	return operation{operator: "BI", operands: []any{params, data}}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isRegular(c byte) bool {
	return !isSpace(c) && !isDelimiter(c)
}

func isNumberStart(c byte) bool {
	return (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.'
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
