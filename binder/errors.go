package binder

import "errors"

var (
	// ErrBinderNotApplicable is returned when a binder does not apply to the
	// request (e.g. a body binder on a GET). handler.Wrap skips such binders.
	ErrBinderNotApplicable = errors.New("binder not applicable")

	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrInvalidJSON          = errors.New("invalid JSON")
	ErrInvalidForm          = errors.New("invalid form data")
	ErrInvalidQuery         = errors.New("invalid query parameter")
	ErrInvalidPath          = errors.New("invalid path parameter")
)
