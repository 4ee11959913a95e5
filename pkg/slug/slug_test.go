package slug_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/orbsaiuk/DatesHub-sub003/pkg/slug"
)

func TestMake(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"latin", "Golden Palm Dates", "golden-palm-dates"},
		{"accents", "Café Olé", "cafe-ole"},
		{"punctuation collapses", "  Dates & Co. -- Riyadh!  ", "dates-co-riyadh"},
		{"arabic", "تمور الواحة", "tmwr-alwaha"},
		{"arabic digits", "مزرعة ٣", "mzra-3"},
		{"mixed", "Al Noor نور", "al-noor-nwr"},
		{"nothing usable", "!!! ???", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, slug.Make(tt.in))
		})
	}
}

func TestMakeMaxLength(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "golden-palm", slug.Make("Golden Palm Dates", slug.MaxLength(12)))
	assert.Equal(t, "golden", slug.Make("Golden Palm", slug.MaxLength(6)))
}

func TestMakeWithSuffix(t *testing.T) {
	t.Parallel()

	got := slug.Make("Oasis Farms", slug.WithSuffix(6))
	assert.Regexp(t, regexp.MustCompile(`^oasis-farms-[a-z0-9]{6}$`), got)
	assert.NotEqual(t, got, slug.Make("Oasis Farms", slug.WithSuffix(6)))

	got = slug.Make("Golden Palm Dates", slug.MaxLength(14), slug.WithSuffix(6))
	assert.LessOrEqual(t, len(got), 14)
	assert.True(t, strings.HasPrefix(got, "golden-"), got)

	assert.Regexp(t, regexp.MustCompile(`^[a-z0-9]{6}$`), slug.Make("!!!", slug.WithSuffix(6)))
}
