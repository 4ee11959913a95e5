package validator

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// RequiredString validates that a string is not empty after trimming whitespace.
func RequiredString(field, value string) Rule {
	return Rule{
		Check: func() bool {
			return strings.TrimSpace(value) != ""
		},
		Error: ValidationError{
			Field:             field,
			Message:           "field is required",
			TranslationKey:    "validation.required",
			TranslationValues: map[string]any{"field": field},
		},
	}
}

// MaxRunes validates that value has at most max characters.
func MaxRunes(field, value string, max int) Rule {
	return Rule{
		Check: func() bool {
			return utf8.RuneCountInString(value) <= max
		},
		Error: ValidationError{
			Field:          field,
			Message:        fmt.Sprintf("must be at most %d characters long", max),
			TranslationKey: "validation.max_length",
			TranslationValues: map[string]any{
				"field": field,
				"max":   max,
			},
		},
	}
}

func MinRunes(field, value string, min int) Rule {
	return Rule{
		Check: func() bool {
			return utf8.RuneCountInString(value) >= min
		},
		Error: ValidationError{
			Field:          field,
			Message:        fmt.Sprintf("must be at least %d characters long", min),
			TranslationKey: "validation.min_length",
			TranslationValues: map[string]any{
				"field": field,
				"min":   min,
			},
		},
	}
}

// ValidURL validates an absolute http(s) URL.
func ValidURL(field, value string) Rule {
	return Rule{
		Check: func() bool {
			u, err := url.ParseRequestURI(strings.TrimSpace(value))
			if err != nil {
				return false
			}
			return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
		},
		Error: ValidationError{
			Field:             field,
			Message:           "must be a valid URL",
			TranslationKey:    "validation.url",
			TranslationValues: map[string]any{"field": field},
		},
	}
}

// NotEqual validates that two identifiers differ, e.g. a conversation
// counterpart and its initiator.
func NotEqual[T comparable](field string, value, other T) Rule {
	return Rule{
		Check: func() bool {
			return value != other
		},
		Error: ValidationError{
			Field:             field,
			Message:           "must differ",
			TranslationKey:    "validation.not_equal",
			TranslationValues: map[string]any{"field": field},
		},
	}
}
