// Package views renders the site's pages as templ components.
package views

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/orbsaiuk/DatesHub-sub003/pkg/i18n"
)

// page writes HTML and keeps the first error.
type page struct {
	ctx context.Context
	w   io.Writer
	err error
}

// raw writes trusted markup.
func (p *page) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

// text writes escaped text.
func (p *page) text(s string) {
	p.raw(templ.EscapeString(s))
}

// t writes the escaped translation of key.
func (p *page) t(key string, args ...string) {
	p.text(i18n.T(p.ctx, key, args...))
}

// tag writes markup from format with every argument escaped.
func (p *page) tag(format string, args ...any) {
	escaped := make([]any, len(args))
	for i, a := range args {
		escaped[i] = templ.EscapeString(fmt.Sprint(a))
	}
	p.raw(fmt.Sprintf(format, escaped...))
}

func (p *page) render(c templ.Component) {
	if p.err == nil && c != nil {
		p.err = c.Render(p.ctx, p.w)
	}
}

// component adapts a page-writing function to templ.Component.
func component(fn func(p *page)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{ctx: ctx, w: w}
		fn(p)
		return p.err
	})
}

// safeURL drops javascript: and other unsafe schemes from user-supplied links.
func safeURL(s string) string {
	return string(templ.URL(s))
}
