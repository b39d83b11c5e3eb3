package plaintext

import (
	"bytes"
	"context"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Extractor passes .txt, .csv and .json bodies through as UTF-8 text.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractText decodes raw as UTF-8. A leading byte-order mark is dropped and
// whitespace is kept verbatim. Each maximal ill-formed subpart becomes one
// U+FFFD, the way browsers decode, so "\xE2\x82A" yields "�A" and a
// lone surrogate encoding yields three replacements.
func (e *Extractor) ExtractText(_ context.Context, raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return string(raw), nil
	}

	var b strings.Builder
	b.Grow(len(raw) + 8)
	for i := 0; i < len(raw); {
		if raw[i] < utf8.RuneSelf {
			b.WriteByte(raw[i])
			i++
			continue
		}
		r, size := utf8.DecodeRune(raw[i:])
		if r != utf8.RuneError || size > 1 {
			b.Write(raw[i : i+size])
			i += size
			continue
		}
		b.WriteRune(utf8.RuneError)
		i += maximalSubpart(raw[i:])
	}
	return b.String(), nil
}

// maximalSubpart returns how many bytes at the start of b, which does not begin
// with a well-formed sequence, form the longest prefix of one. It is at least 1.
func maximalSubpart(b []byte) int {
	need, lo, hi := 0, byte(0x80), byte(0xBF)
	switch lead := b[0]; {
	case lead >= 0xC2 && lead <= 0xDF:
		need = 1
	case lead >= 0xE0 && lead <= 0xEF:
		need = 2
		if lead == 0xE0 {
			lo = 0xA0
		} else if lead == 0xED {
			hi = 0x9F
		}
	case lead >= 0xF0 && lead <= 0xF4:
		need = 3
		if lead == 0xF0 {
			lo = 0x90
		} else if lead == 0xF4 {
			hi = 0x8F
		}
	default:
		return 1
	}

	n := 1
	for ; need > 0 && n < len(b); need-- {
		if c := b[n]; c < lo || c > hi {
			break
		}
		n++
		lo, hi = 0x80, 0xBF
	}
	return n
}
