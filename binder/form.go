package binder

import (
	"fmt"
	"mime"
	"net/http"
)

// Form binds `form` tagged fields from urlencoded or multipart bodies.
func Form() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if !hasBody(r) {
			return ErrBinderNotApplicable
		}

		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil {
			return fmt.Errorf("%w: missing content type", ErrUnsupportedMediaType)
		}

		switch mediaType {
		case "application/x-www-form-urlencoded":
			if err := r.ParseForm(); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidForm, err)
			}
		case "multipart/form-data":
			if err := r.ParseMultipartForm(10 << 20); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidForm, err)
			}
		default:
			return ErrBinderNotApplicable
		}

		return bindToStruct(v, "form", r.PostForm, ErrInvalidForm)
	}
}
