package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/orbsaiuk/DatesHub-sub003/pkg/sanitizer"
)

func TestText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "line one\nline two", sanitizer.Text("  line one\r\nline two\x00 "))
	assert.Equal(t, "a\nb", sanitizer.Text("a\rb"))
	assert.Equal(t, "تمور", sanitizer.Text("\ufeffتمور\u200b"))
	assert.Equal(t, "tab\tkept", sanitizer.Text("tab\tkept"))
}

func TestLine(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Golden Palm Dates", sanitizer.Line("  Golden \n Palm\t\tDates "))
	assert.Empty(t, sanitizer.Line(" \n "))
}

func TestEmail(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "sales@palm.example", sanitizer.Email(" Sales@Palm.Example "))
}

func TestPhone(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"+966 (50) 123-4567": "+966501234567",
		"٠٥٠١٢٣٤٥٦٧":         "0501234567",
		"۰۵۰ ۱۲۳":            "050123",
		"050+123":            "050123",
		"call me":            "call me",
		"":                   "",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizer.Phone(in), in)
	}
}

func TestURL(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"palm.example":                 "https://palm.example",
		" HTTPS://Palm.Example/ ":      "https://palm.example",
		"http://palm.example/shop?x=1": "http://palm.example/shop?x=1",
		"ftp://palm.example":           "ftp://palm.example",
		"not a url":                    "not a url",
		"":                             "",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizer.URL(in), in)
	}
}
