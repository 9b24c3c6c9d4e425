package executor

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// DefaultEncodings returns the decode policy of the host OS: which commands
// print in a legacy code page instead of UTF-8. The returned map is a copy.
func DefaultEncodings() map[string]encoding.Encoding {
	out := map[string]encoding.Encoding{}
	for k, v := range hostEncodings() {
		out[k] = v
	}
	return out
}

// decode converts raw subprocess output with enc. Bytes that cannot be
// decoded are replaced rather than reported.
func decode(raw []byte, enc encoding.Encoding) string {
	if len(raw) == 0 {
		return ""
	}
	if enc == nil {
		enc = unicode.UTF8
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "�")
	}
	return string(out)
}

// normalize turns CRLF into LF and strips control characters other than tab
// and newline, including C1 controls produced by code page decoding.
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r < 0x20, r >= 0x7f && r <= 0x9f:
			return -1
		}
		return r
	}, s)
}
