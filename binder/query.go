package binder

import "net/http"

// Query binds `query` tagged fields from the URL query string.
//
//	type PublicOffersRequest struct {
//		Type string `query:"type"`
//	}
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		return bindToStruct(v, "query", r.URL.Query(), ErrInvalidQuery)
	}
}
