package admin

import (
	"time"

	"regdesk/pkg/platform/audit"
)

// AuditEventResponse is the HTTP view of one audit event.
type AuditEventResponse struct {
	Timestamp       time.Time `json:"timestamp"`
	Category        string    `json:"category"`
	Action          string    `json:"action"`
	OperatorID      string    `json:"operator_id,omitempty"`
	Username        string    `json:"username,omitempty"`
	Subject         string    `json:"subject,omitempty"`
	SubjectCategory string    `json:"subject_category,omitempty"`
	Decision        string    `json:"decision,omitempty"`
	Reason          string    `json:"reason,omitempty"`
	IP              string    `json:"ip,omitempty"`
	RequestID       string    `json:"request_id,omitempty"`
}

// AuditListResponse wraps a page of events, newest first.
type AuditListResponse struct {
	Events []AuditEventResponse `json:"events"`
	Total  int                  `json:"total"`
}

func toResponse(events []audit.Event) AuditListResponse {
	out := AuditListResponse{Events: make([]AuditEventResponse, 0, len(events)), Total: len(events)}
	for _, e := range events {
		r := AuditEventResponse{
			Timestamp:       e.Timestamp,
			Category:        string(e.Category),
			Action:          e.Action,
			Username:        e.Username,
			Subject:         e.Subject,
			SubjectCategory: e.SubjectCategory,
			Decision:        e.Decision,
			Reason:          e.Reason,
			IP:              e.IP,
			RequestID:       e.RequestID,
		}
		if !e.OperatorID.IsNil() {
			r.OperatorID = e.OperatorID.String()
		}
		out.Events = append(out.Events, r)
	}
	return out
}
