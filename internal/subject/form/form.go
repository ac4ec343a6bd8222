// Package form holds the in-progress state of one registration wizard.
package form

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"sync"
	"time"

	"regdesk/pkg/domain"
	dErrors "regdesk/pkg/domain-errors"
	"regdesk/pkg/requestcontext"
)

// DateLayout is the wire format for every date field.
const DateLayout = "2006-01-02"

// Record is the flat field bag behind a form. Values are string, bool or a
// nested map[string]any for dotted sections.
type Record map[string]any

// Form is safe for concurrent use. Updates replace the record rather than
// mutating it, so snapshots handed out earlier never change.
type Form struct {
	mu       sync.RWMutex
	category domain.Category
	record   Record
}

// New seeds a form from the category's initial data.
func New(category domain.Category) *Form {
	return &Form{category: category, record: InitialData(category)}
}

// FromRecord builds a form around a copy of record, starting from the
// category's initial data so every field is present.
func FromRecord(ctx context.Context, category domain.Category, record Record) *Form {
	f := New(category)
	for k, v := range record {
		_ = f.Apply(ctx, k, v)
	}
	return f
}

func (f *Form) Category() domain.Category { return f.category }

// Apply sets one field. name and full_name mirror each other, dotted paths
// merge into nested maps, and dob recomputes age.
func (f *Form) Apply(ctx context.Context, field string, value any) error {
	field = strings.TrimSpace(field)
	if field == "" || strings.HasPrefix(field, ".") || strings.HasSuffix(field, ".") {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid field name")
	}
	if nested, ok := value.(map[string]any); ok {
		for k, v := range nested {
			if err := f.Apply(ctx, field+"."+k, v); err != nil {
				return err
			}
		}
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	next := maps.Clone(f.record)
	v := normalize(field, value)

	switch field {
	case FieldName, FieldFullName:
		next[FieldName] = v
		next[FieldFullName] = v
	case FieldDOB:
		next[FieldDOB] = v
		next[FieldAge] = ageField(asString(v), requestcontext.Now(ctx))
	default:
		if head, rest, ok := strings.Cut(field, "."); ok {
			child, isMap := next[head].(map[string]any)
			if !isMap {
				if existing, present := next[head]; present && existing != "" && existing != nil {
					return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("field %q is not a section", head))
				}
				child = map[string]any{}
			}
			next[head] = setPath(cloneMap(child), rest, v)
		} else {
			next[field] = v
		}
	}
	f.record = next
	return nil
}

// Snapshot returns a deep copy of the record.
func (f *Form) Snapshot() Record {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return deepCopy(f.record)
}

// String returns a field as a trimmed string. Dotted paths read nested maps.
func (f *Form) String(field string) string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return strings.TrimSpace(asString(lookup(f.record, field)))
}

// Bool returns a flag. Missing or non-boolean values read as false.
func (f *Form) Bool(field string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	b, _ := lookup(f.record, field).(bool)
	return b
}

// Age returns whole years between dob and now.
func Age(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}

// ParseDate parses a form date in the local wire layout.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func ageField(dob string, now time.Time) string {
	t, ok := ParseDate(dob)
	if !ok || t.After(now) {
		return ""
	}
	return strconv.Itoa(Age(t, now))
}

func normalize(field string, value any) any {
	leaf := field
	if i := strings.LastIndex(field, "."); i >= 0 {
		leaf = field[i+1:]
	}
	if IsFlag(leaf) {
		return asBool(value)
	}
	switch v := value.(type) {
	case nil:
		return ""
	case string, bool:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "1", "true", "on", "yes":
			return true
		}
	}
	return false
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprint(s)
	}
}

func lookup(r Record, field string) any {
	head, rest, nested := strings.Cut(field, ".")
	if !nested {
		return r[field]
	}
	child, ok := r[head].(map[string]any)
	if !ok {
		return nil
	}
	return lookup(child, rest)
}

func setPath(m map[string]any, path string, v any) map[string]any {
	head, rest, nested := strings.Cut(path, ".")
	if !nested {
		m[path] = v
		return m
	}
	child, _ := m[head].(map[string]any)
	m[head] = setPath(cloneMap(child), rest, v)
	return m
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return maps.Clone(m)
}

func deepCopy(r map[string]any) Record {
	out := make(Record, len(r))
	for k, v := range r {
		if nested, ok := v.(map[string]any); ok {
			out[k] = map[string]any(deepCopy(nested))
			continue
		}
		out[k] = v
	}
	return out
}
