// Package slug turns display names into URL-safe identifiers.
//
// Latin text is lowercased and stripped of accents. Arabic letters are
// transliterated so an Arabic-only name still yields a readable slug:
//
//	slug.Make("Café Olé")                 // "cafe-ole"
//	slug.Make("تمور الواحة")              // "tmwr-alwaha"
//	slug.Make("Oasis Farms", slug.WithSuffix(6)) // "oasis-farms-k3x9q2"
//
// MaxLength counts the suffix and its separator.
package slug
