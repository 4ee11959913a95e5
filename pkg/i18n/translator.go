package i18n

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DefaultLanguage is used when nothing better can be negotiated.
const DefaultLanguage = "ar"

// Translator resolves dot-separated keys against loaded translations.
// It is safe for concurrent use once constructed.
type Translator struct {
	translations  map[string]map[string]any
	defaultLang   string
	fallbackToKey bool
	logMissing    bool
	logger        *slog.Logger
	tags          []language.Tag
	matcher       language.Matcher
}

// Option configures a Translator.
type Option func(*Translator)

// WithDefaultLanguage sets the language used when negotiation fails.
func WithDefaultLanguage(lang string) Option {
	return func(t *Translator) {
		if lang != "" {
			t.defaultLang = lang
		}
	}
}

// WithFallbackToKey controls whether a missing key renders as itself
// (the default) or as an empty string.
func WithFallbackToKey(fallback bool) Option {
	return func(t *Translator) {
		t.fallbackToKey = fallback
	}
}

// WithLogger sets the logger. Missing translations are logged at warn
// level when WithMissingTranslationsLogging is enabled.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Translator) {
		if logger != nil {
			t.logger = logger
		}
	}
}

func WithMissingTranslationsLogging(enabled bool) Option {
	return func(t *Translator) {
		t.logMissing = enabled
	}
}

// NewTranslator reads every *.yaml and *.yml file at the root of fsys.
func NewTranslator(fsys fs.FS, opts ...Option) (*Translator, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, errors.Join(ErrFailedToReadFile, err)
	}

	translations := make(map[string]map[string]any)
	for _, entry := range entries {
		ext := strings.ToLower(path.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}

		data, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, errors.Join(ErrFailedToReadFile, err)
		}

		parsed, err := ParseYAML(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		for lang, tree := range parsed {
			if existing, ok := translations[lang]; ok {
				mergeTree(existing, tree)
				continue
			}
			translations[lang] = tree
		}
	}

	return New(translations, opts...)
}

// New builds a Translator from an already parsed translation tree.
func New(translations map[string]map[string]any, opts ...Option) (*Translator, error) {
	if len(translations) == 0 {
		return nil, ErrNoTranslations
	}

	t := &Translator{
		translations:  translations,
		defaultLang:   DefaultLanguage,
		fallbackToKey: true,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}

	// The default language goes first so the matcher falls back to it.
	langs := t.SupportedLanguages()
	t.tags = append(t.tags, language.Make(t.defaultLang))
	for _, lang := range langs {
		if lang != t.defaultLang {
			t.tags = append(t.tags, language.Make(lang))
		}
	}
	t.matcher = language.NewMatcher(t.tags)

	return t, nil
}

// ParseYAML parses a translation document whose top-level keys are
// language codes.
func ParseYAML(data []byte) (map[string]map[string]any, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Join(ErrFailedToParseYAML, err)
	}

	result := make(map[string]map[string]any, len(raw))
	for lang, val := range raw {
		tree, ok := val.(map[string]any)
		if !ok || lang == "" {
			return nil, fmt.Errorf("%w: language %q must map to an object, got %T", ErrInvalidStructure, lang, val)
		}
		result[strings.ToLower(lang)] = tree
	}
	return result, nil
}

func mergeTree(dst, src map[string]any) {
	for k, v := range src {
		srcMap, srcOK := v.(map[string]any)
		dstMap, dstOK := dst[k].(map[string]any)
		if srcOK && dstOK {
			mergeTree(dstMap, srcMap)
			continue
		}
		dst[k] = v
	}
}

// SupportedLanguages returns the loaded language codes, sorted.
func (t *Translator) SupportedLanguages() []string {
	langs := make([]string, 0, len(t.translations))
	for lang := range t.translations {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// DefaultLanguage returns the configured fallback language.
func (t *Translator) DefaultLanguage() string {
	return t.defaultLang
}

// Supports reports whether lang has translations loaded.
func (t *Translator) Supports(lang string) bool {
	_, ok := t.translations[strings.ToLower(lang)]
	return ok
}

// Has reports whether key resolves to a string in lang.
func (t *Translator) Has(lang, key string) bool {
	v, ok := lookup(t.translations[lang], key)
	if !ok {
		return false
	}
	_, ok = v.(string)
	return ok
}

// T translates key into lang. Arguments are key/value pairs substituted
// into %{key} placeholders. Missing keys fall back to the default language
// and then to the key itself.
func (t *Translator) T(lang, key string, args ...string) string {
	if s, ok := t.resolve(lang, key); ok {
		return substitute(s, args)
	}
	if lang != t.defaultLang {
		if s, ok := t.resolve(t.defaultLang, key); ok {
			return substitute(s, args)
		}
	}

	if t.logMissing {
		t.logger.Warn("translation not found", slog.String("lang", lang), slog.String("key", key))
	}
	if t.fallbackToKey {
		return substitute(key, args)
	}
	return ""
}

func (t *Translator) resolve(lang, key string) (string, bool) {
	v, ok := lookup(t.translations[lang], key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Match negotiates the best supported language for the given
// Accept-Language header value.
func (t *Translator) Match(acceptLanguage string) string {
	if acceptLanguage == "" {
		return t.defaultLang
	}
	if len(acceptLanguage) > maxAcceptLanguageLength {
		acceptLanguage = acceptLanguage[:maxAcceptLanguageLength]
	}

	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return t.defaultLang
	}

	_, idx, confidence := t.matcher.Match(tags...)
	if confidence == language.No {
		return t.defaultLang
	}
	base, _ := t.tags[idx].Base()
	return base.String()
}

const maxAcceptLanguageLength = 4096

func lookup(tree map[string]any, key string) (any, bool) {
	if tree == nil || key == "" {
		return nil, false
	}

	parts := strings.Split(key, ".")
	current := tree
	for i, part := range parts {
		v, ok := current[part]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		if current, ok = v.(map[string]any); !ok {
			return nil, false
		}
	}
	return nil, false
}

var placeholder = regexp.MustCompile(`%\{([^}]+)\}`)

func substitute(tmpl string, args []string) string {
	if len(args) < 2 || !strings.Contains(tmpl, "%{") {
		return tmpl
	}

	params := make(map[string]string, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		params[args[i]] = args[i+1]
	}

	return placeholder.ReplaceAllStringFunc(tmpl, func(match string) string {
		if v, ok := params[match[2:len(match)-1]]; ok {
			return v
		}
		return match
	})
}
