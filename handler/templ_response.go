package handler

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"
)

// TemplOption is an alias for datastar's PatchElementOption.
type TemplOption = datastar.PatchElementOption

// WithTarget sets the selector the component is patched into.
func WithTarget(selector string) TemplOption {
	return datastar.WithSelector(selector)
}

// WithPatchMode sets how the component is merged into the DOM.
func WithPatchMode(mode datastar.ElementPatchMode) TemplOption {
	return datastar.WithMode(mode)
}

type templResponse struct {
	status  int
	partial templ.Component
	full    templ.Component
	options []datastar.PatchElementOption
}

// Render patches the partial over SSE for DataStar requests and writes the
// full component as HTML otherwise.
func (t templResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if IsDataStar(r) {
		sse := datastar.NewSSE(w, r)
		return sse.PatchElementTempl(t.partial, t.options...)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if t.status != 0 {
		w.WriteHeader(t.status)
	}
	return t.full.Render(r.Context(), w)
}

// Templ renders a templ component.
func Templ(component templ.Component, opts ...TemplOption) Response {
	return templResponse{partial: component, full: component, options: opts}
}

// TemplWithStatus renders a full page with a non-200 status, e.g. a
// not-found view.
func TemplWithStatus(status int, component templ.Component) Response {
	return templResponse{status: status, partial: component, full: component}
}

// TemplPartial renders only partial for DataStar requests and full otherwise.
//
//	return handler.TemplPartial(
//		views.MessageItem(msg),
//		views.ThreadPage(thread),
//		handler.WithTarget("#messages"),
//		handler.WithPatchMode(handler.PatchAppend),
//	)
func TemplPartial(partial, full templ.Component, opts ...TemplOption) Response {
	return templResponse{partial: partial, full: full, options: opts}
}
