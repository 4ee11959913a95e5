// Package i18n loads nested YAML translations and resolves the request
// locale.
//
// Translation files are keyed by language at the top level:
//
//	en:
//	  messages:
//	    text_too_long: "Message must be at most %{max} characters"
//
// Keys use dot notation ("messages.text_too_long") and placeholders use
// %{name}, filled from key/value argument pairs:
//
//	tr.T("en", "messages.text_too_long", "max", "5000")
//
// Middleware stores both the locale and the translator in the request
// context so handlers and views can call the package-level T.
package i18n
