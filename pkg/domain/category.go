package domain

import (
	"strings"

	dErrors "regdesk/pkg/domain-errors"
)

// Category is the subject category a registration form is built for.
// Invariant: the value is one of the four supported categories.
//
// Construct via ParseCategory at trust boundaries; direct casting bypasses
// validation.
type Category string

const (
	CategoryMan      Category = "man"
	CategoryWoman    Category = "woman"
	CategoryChild    Category = "child"
	CategoryDisabled Category = "disabled"
)

var validCategories = map[Category]bool{
	CategoryMan:      true,
	CategoryWoman:    true,
	CategoryChild:    true,
	CategoryDisabled: true,
}

// ParseCategory constructs a Category from external input (route params,
// CLI flags). Matching is case-insensitive.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "category cannot be empty")
	}
	c := Category(s)
	if !c.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported category")
	}
	return c, nil
}

// Categories lists every category in wizard menu order.
func Categories() []Category {
	return []Category{CategoryMan, CategoryWoman, CategoryChild, CategoryDisabled}
}

func (c Category) IsValid() bool { return validCategories[c] }

func (c Category) String() string { return string(c) }

// IsAdult reports whether the category registers adults subject to the
// minimum-age rule.
func (c Category) IsAdult() bool {
	return c == CategoryMan || c == CategoryWoman
}

// SearchScope groups categories the way lookup screens cache results.
type SearchScope string

const (
	ScopeAdults       SearchScope = "adults"
	ScopeChildren     SearchScope = "children"
	ScopeDisabilities SearchScope = "disabilities"
)

// Scope returns the search scope a category's records are listed under.
func (c Category) Scope() SearchScope {
	switch c {
	case CategoryChild:
		return ScopeChildren
	case CategoryDisabled:
		return ScopeDisabilities
	default:
		return ScopeAdults
	}
}
