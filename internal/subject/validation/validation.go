// Package validation gates each wizard section. Failures are advisory,
// translated strings; an empty result means the section may advance.
package validation

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"regdesk/internal/subject/form"
	"regdesk/internal/subject/i18n"
	"regdesk/internal/subject/imaging"
	"regdesk/pkg/domain"
	pstrings "regdesk/pkg/platform/strings"
	"regdesk/pkg/requestcontext"
)

// Section describes one wizard step. Index is 1-based.
type Section struct {
	Index int    `json:"index"`
	Key   string `json:"key"`
}

// Limits bound the photo size per category group.
type Limits struct {
	AdultMaxBytes int64
	MinorMaxBytes int64
}

// DefaultLimits are 5 MB for adults and 6 MB for children and disabled subjects.
var DefaultLimits = Limits{AdultMaxBytes: 5 << 20, MinorMaxBytes: 6 << 20}

type Validator struct {
	limits Limits
}

type Option func(*Validator)

func WithLimits(l Limits) Option {
	return func(v *Validator) {
		if l.AdultMaxBytes > 0 {
			v.limits.AdultMaxBytes = l.AdultMaxBytes
		}
		if l.MinorMaxBytes > 0 {
			v.limits.MinorMaxBytes = l.MinorMaxBytes
		}
	}
}

func New(opts ...Option) *Validator {
	v := &Validator{limits: DefaultLimits}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Sections lists the wizard steps for a category.
func (v *Validator) Sections(category domain.Category) []Section {
	rules := sectionsFor(category)
	out := make([]Section, len(rules))
	for i, s := range rules {
		out[i] = Section{Index: i + 1, Key: s.key}
	}
	return out
}

// MaxImageBytes is the photo size limit for a category.
func (v *Validator) MaxImageBytes(category domain.Category) int64 {
	if category.IsAdult() {
		return v.limits.AdultMaxBytes
	}
	return v.limits.MinorMaxBytes
}

// Validate checks one section. img may be nil before a photo is chosen.
func (v *Validator) Validate(ctx context.Context, f *form.Form, img *imaging.Image, section int, tr i18n.Translator) []string {
	if tr == nil {
		tr = keyTranslator{}
	}
	rules := sectionsFor(f.Category())
	if section < 1 || section > len(rules) {
		return []string{tr.T(i18n.MsgUnknownSection, section)}
	}
	c := &check{
		f:        f,
		img:      img,
		tr:       tr,
		now:      requestcontext.Now(ctx),
		maxBytes: v.MaxImageBytes(f.Category()),
		msgs:     []string{},
	}
	rules[section-1].rule(c)
	return c.msgs
}

// ValidateAll runs every section and returns the failing ones by index.
func (v *Validator) ValidateAll(ctx context.Context, f *form.Form, img *imaging.Image, tr i18n.Translator) map[int][]string {
	failures := map[int][]string{}
	for i := range sectionsFor(f.Category()) {
		if msgs := v.Validate(ctx, f, img, i+1, tr); len(msgs) > 0 {
			failures[i+1] = msgs
		}
	}
	return failures
}

func sectionsFor(category domain.Category) []section {
	switch category {
	case domain.CategoryChild:
		return childSections
	case domain.CategoryDisabled:
		return disabledSections
	case domain.CategoryMan, domain.CategoryWoman:
		return adultSections
	default:
		return nil
	}
}

type check struct {
	f        *form.Form
	img      *imaging.Image
	tr       i18n.Translator
	now      time.Time
	maxBytes int64
	msgs     []string
}

func (c *check) add(key string, args ...any) {
	c.msgs = append(c.msgs, c.tr.T(key, args...))
}

func (c *check) required(field, key string) {
	if c.f.String(field) == "" {
		c.add(key)
	}
}

func (c *check) name() {
	n := utf8.RuneCountInString(c.f.String(form.FieldName))
	switch {
	case n == 0:
		c.add(i18n.MsgNameRequired)
	case n < 2:
		c.add(i18n.MsgNameTooShort)
	}
}

// requiredDate reports a missing, malformed or (when futureKey is set) future
// date. ok is true only for a usable date.
func (c *check) requiredDate(field, missingKey, futureKey string) (time.Time, bool) {
	if c.f.String(field) == "" {
		c.add(missingKey)
		return time.Time{}, false
	}
	return c.optionalDate(field, futureKey)
}

func (c *check) optionalDate(field, futureKey string) (time.Time, bool) {
	raw := c.f.String(field)
	if raw == "" {
		return time.Time{}, false
	}
	t, ok := parseDate(raw)
	if !ok {
		c.add(i18n.MsgDateInvalid)
		return time.Time{}, false
	}
	if futureKey != "" && t.After(c.now) {
		c.add(futureKey)
		return t, false
	}
	return t, true
}

// digitsExactly accepts ASCII or Arabic-Indic digits, ignoring spaces and dashes.
func digitsExactly(s string, n int) bool {
	s = pstrings.NormalizeDigits(s)
	count := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			count++
		case r == ' ' || r == '-':
		default:
			return false
		}
	}
	return count == n
}

func oneOf(s string, options []string) bool {
	for _, o := range options {
		if strings.EqualFold(s, o) {
			return true
		}
	}
	return false
}

type keyTranslator struct{}

func (keyTranslator) T(key string, _ ...any) string { return key }
