package pdf

import (
	"strings"
)

// scanTextFragments pulls the shown text out of a decoded PDF content stream.
// It tracks string operands and emits a fragment whenever a text-showing
// operator (Tj, TJ, ' or ") consumes them. Strings are decoded byte-for-byte;
// fonts with multi-byte CID encodings come out garbled, which matches what the
// upstream pdf.js-based extractor produced for such documents.
func scanTextFragments(content []byte) []string {
	var (
		fragments  []string
		operands   []string
		arrayStart = -1
	)

	flushShow := func(joined bool) {
		var frag string
		if joined && arrayStart >= 0 && arrayStart <= len(operands) {
			frag = strings.Join(operands[arrayStart:], "")
		} else if len(operands) > 0 {
			frag = operands[len(operands)-1]
		}
		if frag != "" {
			fragments = append(fragments, frag)
		}
		operands = operands[:0]
		arrayStart = -1
	}

	i := 0
	for i < len(content) {
		c := content[i]
		switch {
		case c == '%':
			for i < len(content) && content[i] != '\n' {
				i++
			}
		case c == '(':
			s, next := readLiteralString(content, i)
			operands = append(operands, s)
			i = next
		case c == '<':
			if i+1 < len(content) && content[i+1] == '<' {
				i += 2
				continue
			}
			s, next := readHexString(content, i)
			operands = append(operands, s)
			i = next
		case c == '[':
			arrayStart = len(operands)
			i++
		case c == ']':
			i++
		case isRegular(c):
			start := i
			for i < len(content) && isRegular(content[i]) {
				i++
			}
			switch string(content[start:i]) {
			case "TJ":
				flushShow(true)
			case "Tj", "'", "\"":
				flushShow(false)
			case "BT", "ET":
				operands = operands[:0]
				arrayStart = -1
			}
		default:
			i++
		}
	}
	return fragments
}

func isRegular(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0,
		'(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return false
	}
	return true
}

// readLiteralString decodes a ( ... ) string starting at open. It returns the
// decoded value and the index just past the closing parenthesis.
func readLiteralString(content []byte, open int) (string, int) {
	var b strings.Builder
	depth := 1
	i := open + 1
	for i < len(content) {
		c := content[i]
		switch c {
		case '\\':
			if i+1 >= len(content) {
				return b.String(), i + 1
			}
			i++
			switch e := content[i]; e {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case '(', ')', '\\':
				b.WriteByte(e)
			case '\n':
				// line continuation, emit nothing
			default:
				if e >= '0' && e <= '7' {
					val := int(e - '0')
					for n := 0; n < 2 && i+1 < len(content) && content[i+1] >= '0' && content[i+1] <= '7'; n++ {
						i++
						val = val*8 + int(content[i]-'0')
					}
					b.WriteByte(byte(val))
				} else {
					b.WriteByte(e)
				}
			}
			i++
		case '(':
			depth++
			b.WriteByte(c)
			i++
		case ')':
			depth--
			if depth == 0 {
				return b.String(), i + 1
			}
			b.WriteByte(c)
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), i
}

// readHexString decodes a < ... > string starting at open. A missing final
// hex digit is padded with zero per the PDF spec.
func readHexString(content []byte, open int) (string, int) {
	var b strings.Builder
	var hi = -1
	i := open + 1
	for i < len(content) {
		c := content[i]
		if c == '>' {
			if hi >= 0 {
				b.WriteByte(byte(hi << 4))
			}
			return b.String(), i + 1
		}
		if v := hexVal(c); v >= 0 {
			if hi < 0 {
				hi = v
			} else {
				b.WriteByte(byte(hi<<4 | v))
				hi = -1
			}
		}
		i++
	}
	return b.String(), i
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}
