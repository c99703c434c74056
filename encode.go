package jsonp

import "strings"

const upperhex = "0123456789ABCDEF"

// shouldEscape reports whether c falls outside the encodeURIComponent
// unreserved set: A-Z a-z 0-9 - _ . ! ~ * ' ( )
func shouldEscape(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return false
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return false
	}
	return true
}

// percentEncode escapes s the way a browser's encodeURIComponent does:
// every byte of the UTF-8 form outside the unreserved set becomes %XX.
func percentEncode(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if shouldEscape(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscape(c) {
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&15])
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

var strictReplacer = strings.NewReplacer("*", "%252A", "'", "%2527")

// strictEncode is percentEncode plus escaping of * and ' for signature
// base strings. Note the replacements are %252A and %2527, not %2A and
// %27; servers verifying signatures rely on this exact form.
func strictEncode(s string) string {
	return strictReplacer.Replace(percentEncode(s))
}
