package locale

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/es"
	"github.com/go-playground/locales/fr"
	ut "github.com/go-playground/universal-translator"
	"golang.org/x/text/language"
)

// ErrUnsupportedLocale is returned when no catalog matches a locale name.
var ErrUnsupportedLocale = errors.New("unsupported locale")

// Catalog resolves translators for the supported locales.
// It is immutable after NewCatalog returns and safe for concurrent use.
type Catalog struct {
	uni     *ut.UniversalTranslator
	matcher language.Matcher
	names   []string
}

// NewCatalog builds the catalog for en, fr and es with en as the fallback.
func NewCatalog() (*Catalog, error) {
	supported := []locales.Translator{en.New(), fr.New(), es.New()}
	uni := ut.New(supported[0], supported...)

	tags := make([]language.Tag, 0, len(supported))
	names := make([]string, 0, len(supported))
	for _, l := range supported {
		name := l.Locale()
		trans, found := uni.GetTranslator(name)
		if !found {
			return nil, fmt.Errorf("translator for %q not registered", name)
		}
		for key, text := range tables[name] {
			if err := trans.Add(key, text, false); err != nil {
				return nil, fmt.Errorf("failed to add %s message %q: %w", name, key, err)
			}
		}
		tags = append(tags, language.MustParse(name))
		names = append(names, name)
	}

	if err := uni.VerifyTranslations(); err != nil {
		return nil, fmt.Errorf("failed to verify translations: %w", err)
	}

	return &Catalog{
		uni:     uni,
		matcher: language.NewMatcher(tags),
		names:   names,
	}, nil
}

// Supported returns the locale names the catalog carries.
func (c *Catalog) Supported() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Resolve returns the translator for a BCP 47 locale name. Regional variants
// fall back to their base language ("fr-CA" resolves to "fr").
func (c *Catalog) Resolve(name string) (ut.Translator, error) {
	tag, err := language.Parse(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnsupportedLocale, name, err)
	}

	_, idx, confidence := c.matcher.Match(tag)
	if confidence == language.No {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLocale, name)
	}

	trans, found := c.uni.GetTranslator(c.names[idx])
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLocale, name)
	}
	return trans, nil
}

// Message renders key with params. A missing key renders as the key itself
// and is logged, so a gap in a table never fails a request.
func Message(trans ut.Translator, key string, params ...string) string {
	text, err := trans.T(key, params...)
	if err != nil {
		slog.Warn("missing translation",
			slog.String("locale", trans.Locale()),
			slog.String("key", key),
			slog.String("error", err.Error()))
		return key
	}
	return text
}
