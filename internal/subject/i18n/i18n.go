// Package i18n holds the desk's English and Arabic message catalog and picks
// the language for a request.
package i18n

import (
	"context"
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"regdesk/pkg/requestcontext"
)

// Translator renders a message key in one language.
type Translator interface {
	T(key string, args ...any) string
}

var supported = []language.Tag{language.English, language.Arabic}

// Bundle owns the catalog and hands out per-language localizers.
type Bundle struct {
	catalog  *catalog.Builder
	matcher  language.Matcher
	fallback language.Tag
}

// NewBundle builds the catalog. fallback is used when nothing matches.
func NewBundle(fallback string) *Bundle {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, e := range messages {
		_ = b.SetString(language.English, key, e.en)
		_ = b.SetString(language.Arabic, key, e.ar)
	}
	bundle := &Bundle{
		catalog:  b,
		matcher:  language.NewMatcher(supported),
		fallback: language.English,
	}
	bundle.fallback = bundle.Match(fallback)
	return bundle
}

// Match picks a supported language from an Accept-Language style list.
func (b *Bundle) Match(accept ...string) language.Tag {
	var tags []language.Tag
	for _, a := range accept {
		parsed, _, err := language.ParseAcceptLanguage(a)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	if len(tags) == 0 {
		return b.fallback
	}
	_, idx, conf := b.matcher.Match(tags...)
	if conf == language.No {
		return b.fallback
	}
	return supported[idx]
}

// Localizer renders messages for one language.
type Localizer struct {
	tag     language.Tag
	printer *message.Printer
}

func (b *Bundle) Localizer(tag language.Tag) *Localizer {
	return &Localizer{tag: tag, printer: message.NewPrinter(tag, message.Catalog(b.catalog))}
}

// ForContext returns the localizer for the request language set by Middleware.
func (b *Bundle) ForContext(ctx context.Context) *Localizer {
	return b.Localizer(b.Match(requestcontext.Locale(ctx)))
}

func (l *Localizer) T(key string, args ...any) string {
	return l.printer.Sprintf(key, args...)
}

func (l *Localizer) Tag() language.Tag { return l.tag }

// Dir is the text direction for the localizer's language.
func (l *Localizer) Dir() string { return Direction(l.tag) }

// IsArabic reports whether dates and digits should use Arabic conventions.
func (l *Localizer) IsArabic() bool {
	base, _ := l.tag.Base()
	return base.String() == "ar"
}

// Direction returns "rtl" for right-to-left scripts and "ltr" otherwise.
func Direction(tag language.Tag) string {
	script, _ := tag.Script()
	switch script.String() {
	case "Arab", "Hebr", "Thaa", "Syrc":
		return "rtl"
	default:
		return "ltr"
	}
}

// Middleware resolves the request language from ?lang, then Accept-Language.
func (b *Bundle) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag := b.Match(r.Header.Get("Accept-Language"))
		if lang := r.URL.Query().Get("lang"); lang != "" {
			tag = b.Match(lang)
		}
		w.Header().Set("Content-Language", tag.String())
		ctx := requestcontext.WithLocale(r.Context(), tag.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
