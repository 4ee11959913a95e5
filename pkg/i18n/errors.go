package i18n

import "errors"

var (
	ErrNoTranslations    = errors.New("i18n: no translation files found")
	ErrInvalidStructure  = errors.New("i18n: invalid translation file structure")
	ErrFailedToReadFile  = errors.New("i18n: failed to read translation file")
	ErrFailedToParseYAML = errors.New("i18n: failed to parse yaml")
)
