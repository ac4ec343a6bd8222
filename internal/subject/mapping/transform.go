package mapping

import (
	"fmt"
	"strings"
	"time"

	"regdesk/internal/subject/form"
	pstrings "regdesk/pkg/platform/strings"
)

// Transform normalizes a value on its way to the backend and back.
type Transform int

const (
	Text Transform = iota
	// Flag renders booleans as "1"/"0".
	Flag
	// Date renders YYYY-MM-DD and trims backend timestamps on the way back.
	Date
	// Digits keeps ASCII digits only, mapping Arabic-Indic digits first.
	Digits
)

func (t Transform) String() string {
	switch t {
	case Flag:
		return "flag"
	case Date:
		return "date"
	case Digits:
		return "digits"
	default:
		return "text"
	}
}

func (t Transform) toBackend(v any) string {
	switch t {
	case Flag:
		if b, _ := v.(bool); b {
			return "1"
		}
		return "0"
	case Digits:
		return pstrings.DigitsOnly(text(v))
	case Date:
		s := text(v)
		if d, ok := form.ParseDate(s); ok {
			return d.Format(form.DateLayout)
		}
		return s
	default:
		return text(v)
	}
}

func (t Transform) fromBackend(v any) any {
	switch t {
	case Flag:
		switch b := v.(type) {
		case bool:
			return b
		case float64:
			return b != 0
		default:
			s := strings.ToLower(text(v))
			return s == "1" || s == "true" || s == "yes"
		}
	case Date:
		s := text(v)
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
			if d, err := time.Parse(layout, s); err == nil {
				return d.Format(form.DateLayout)
			}
		}
		return s
	default:
		return text(v)
	}
}

func text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		if s == float64(int64(s)) {
			return fmt.Sprintf("%d", int64(s))
		}
		return fmt.Sprint(s)
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}
