package display

import (
	"fmt"
	"strings"
)

// lookup reads a record value as text. name falls back to full_name.
func lookup(record map[string]any, key string) string {
	if key == "name" {
		return firstString(record, "name", "full_name")
	}
	return stringify(record[key])
}

func firstString(record map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := stringify(record[k]); s != "" {
			return s
		}
	}
	return ""
}

func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case bool:
		if s {
			return "1"
		}
		return "0"
	case float64:
		if s == float64(int64(s)) {
			return fmt.Sprintf("%d", int64(s))
		}
		return fmt.Sprint(s)
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}

func truthy(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
