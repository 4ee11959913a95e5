// Package validator builds declarative validation rules.
//
// A Rule pairs a Check with translation-friendly error metadata. Apply
// evaluates rules and aggregates failures into ValidationErrors, which
// implements error:
//
//	err := validator.Apply(
//		validator.RequiredString("text", req.Text),
//		validator.MaxRunes("text", req.Text, 5000),
//	)
//
// Length rules count runes, so Arabic and English text get the same
// limits.
package validator
