package api

import "strings"

// rawQueryValue leaves a query value readable, escaping only the bytes that
// cannot travel in a request target: C0 controls, space, DEL, non-ASCII,
// double and single quotes, '#', '<' and '>'. Reserved characters such as
// '/', '&' and '=' pass through untouched, as a browser does when a value is
// concatenated into a URL.
func rawQueryValue(s string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if needsEscape(c) {
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0x0f])
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func needsEscape(c byte) bool {
	if c <= 0x20 || c >= 0x7f {
		return true
	}
	switch c {
	case '"', '#', '\'', '<', '>':
		return true
	}
	return false
}
