package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Record is a subject as the registry returns it.
type Record map[string]any

// ID is a registry identifier. The registry sends it as a string or a number.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("registry id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Envelope is the registry's common response shape.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	UserID  ID     `json:"user_id,omitempty"`
	User    Record `json:"user,omitempty"`
}

// failed reports whether the registry answered 200 but refused the request.
func (e Envelope) failed() bool {
	switch strings.ToLower(e.Status) {
	case "error", "fail", "failed", "failure":
		return true
	}
	return false
}

// RegistrationResult is the outcome of a registration call. Placeholder is
// set when the registry accepted the upload without identifying the user.
type RegistrationResult struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	UserID      string `json:"user_id,omitempty"`
	User        Record `json:"user,omitempty"`
	Placeholder bool   `json:"placeholder"`
}

func resultFrom(env Envelope) *RegistrationResult {
	res := &RegistrationResult{
		Status:  env.Status,
		Message: env.Message,
		UserID:  env.UserID.String(),
		User:    env.User,
	}
	if res.UserID == "" && res.User != nil {
		res.UserID = idOf(res.User)
	}
	if res.UserID == "" {
		res.Placeholder = true
		if res.Status == "" {
			res.Status = "success"
		}
		if res.Message == "" {
			res.Message = "registration accepted"
		}
	}
	return res
}

func idOf(r Record) string {
	for _, key := range []string{"id", "user_id", "unique_id"} {
		switch v := r[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatInt(int64(v), 10)
		}
	}
	return ""
}

// SearchResult lists matching subjects.
type SearchResult struct {
	Users []Record `json:"users"`
	Total int      `json:"total"`
}

// Counts are the registry totals per form type.
type Counts struct {
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"by_category,omitempty"`
}

// Recognition is the registry's face match answer.
type Recognition struct {
	Matched    bool    `json:"matched"`
	UserID     string  `json:"user_id,omitempty"`
	Confidence float64 `json:"confidence"`
	User       Record  `json:"user,omitempty"`
	Message    string  `json:"message,omitempty"`
}

// errorMessage pulls a human readable message out of an error body. FastAPI
// puts it under detail, which may be a string or a list of objects.
func errorMessage(body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(truncate(string(body), 512))
	}
	if len(payload.Detail) > 0 {
		var s string
		if json.Unmarshal(payload.Detail, &s) == nil && s != "" {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(payload.Detail, &items) == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
