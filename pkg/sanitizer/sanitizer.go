// Package sanitizer normalizes free text and contact fields submitted by
// users before they are validated and stored.
package sanitizer

import (
	"net/url"
	"strings"
	"unicode"
)

// Text strips control characters except newline and tab, unifies line
// endings and trims the ends.
func Text(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == '\r':
			return '\n'
		case unicode.IsControl(r), r == '\u200b', r == '\ufeff':
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// Line is Text collapsed onto one line with single spaces.
func Line(s string) string {
	return strings.Join(strings.Fields(Text(s)), " ")
}

func Email(s string) string {
	return strings.ToLower(Line(s))
}

// Phone keeps a leading plus and the digits, converting Arabic-Indic and
// Persian digits to ASCII. Input without any digit is returned trimmed so
// validation can report it.
func Phone(s string) string {
	s = Line(s)
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= '٠' && r <= '٩':
			b.WriteRune('0' + (r - '٠'))
		case r >= '۰' && r <= '۹':
			b.WriteRune('0' + (r - '۰'))
		}
	}
	out := b.String()
	if strings.TrimPrefix(out, "+") == "" {
		return s
	}
	return out
}

// URL assumes https when the scheme is missing, lowercases the host and
// drops a bare trailing slash. Unparseable input is returned trimmed.
func URL(s string) string {
	s = Line(s)
	if s == "" {
		return ""
	}
	raw := s
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return s
	}
	u.Host = strings.ToLower(u.Host)
	if u.Path == "/" {
		u.Path = ""
	}
	return u.String()
}
