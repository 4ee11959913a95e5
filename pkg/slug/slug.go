package slug

import (
	"crypto/rand"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const separator = '-'

type Option func(*config)

type config struct {
	maxLength    int
	suffixLength int
}

// MaxLength caps the slug at n runes, suffix included. Zero means no cap.
func MaxLength(n int) Option {
	return func(c *config) {
		c.maxLength = n
	}
}

// WithSuffix appends n random lowercase alphanumerics.
func WithSuffix(n int) Option {
	return func(c *config) {
		c.suffixLength = n
	}
}

// arabic maps Arabic letters to a plain Latin spelling. Short vowels and
// tatweel are dropped before lookup.
var arabic = map[rune]string{
	'ا': "a", 'أ': "a", 'إ': "i", 'آ': "a", 'ٱ': "a", 'ء': "",
	'ب': "b", 'ت': "t", 'ث': "th", 'ج': "j", 'ح': "h", 'خ': "kh",
	'د': "d", 'ذ': "dh", 'ر': "r", 'ز': "z", 'س': "s", 'ش': "sh",
	'ص': "s", 'ض': "d", 'ط': "t", 'ظ': "z", 'ع': "", 'غ': "gh",
	'ف': "f", 'ق': "q", 'ك': "k", 'ل': "l", 'م': "m", 'ن': "n",
	'ه': "h", 'ة': "a", 'و': "w", 'ؤ': "w", 'ي': "y", 'ى': "a", 'ئ': "y",
	'٠': "0", '١': "1", '٢': "2", '٣': "3", '٤': "4",
	'٥': "5", '٦': "6", '٧': "7", '٨': "8", '٩': "9",
}

// Make builds a slug from s. Characters that are neither letters nor
// digits collapse into a single separator.
func Make(s string, opts ...Option) string {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	strip := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(strip, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	pendingSep := false
	for _, r := range strings.ToLower(s) {
		var part string
		switch {
		case r == 'ـ':
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			part = string(r)
		default:
			latin, ok := arabic[r]
			if !ok {
				pendingSep = b.Len() > 0
				continue
			}
			part = latin
		}
		if part == "" {
			continue
		}
		if pendingSep {
			b.WriteRune(separator)
			pendingSep = false
		}
		b.WriteString(part)
	}
	out := b.String()

	room := cfg.maxLength
	if cfg.suffixLength > 0 && room > 0 {
		room -= cfg.suffixLength + 1
		if room < 0 {
			room = 0
		}
	}
	if cfg.maxLength > 0 && len(out) > room {
		out = strings.TrimRight(out[:room], string(separator))
	}

	if cfg.suffixLength > 0 {
		n := cfg.suffixLength
		if cfg.maxLength > 0 {
			n = min(n, cfg.maxLength)
		}
		if out == "" {
			return suffix(n)
		}
		return out + string(separator) + suffix(n)
	}
	return out
}

func suffix(n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		for i := range b {
			b[i] = alphabet[i%len(alphabet)]
		}
		return string(b)
	}
	for i := range b {
		b[i] = alphabet[int(b[i])%len(alphabet)]
	}
	return string(b)
}
