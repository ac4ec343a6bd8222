package audit

import (
	"context"
	"time"

	id "regdesk/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// Categories drive retention and routing in downstream sinks.
type EventCategory string

const (
	// CategoryCompliance covers events with legal significance: subjects being
	// registered, viewed or removed from the registry.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers operator authentication outcomes.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine lookups that can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from service logic to capture key desk actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category   EventCategory
	Timestamp  time.Time
	OperatorID id.OperatorID
	Username   string
	// Subject is the registry record id, or the username for session events.
	Subject string
	// SubjectCategory is man, woman, child or disabled when known.
	SubjectCategory string
	Action          string
	Decision        string
	Reason          string
	IP              string
	RequestID       string
}

type AuditEvent string

const (
	// Registry events
	EventSubjectRegistered     AuditEvent = "subject_registered"
	EventSubjectRegisterFailed AuditEvent = "subject_register_failed"
	EventSubjectDeleted        AuditEvent = "subject_deleted"
	EventSubjectViewed         AuditEvent = "subject_viewed"

	// Lookup events
	EventSearchPerformed         AuditEvent = "search_performed"
	EventIdentificationPerformed AuditEvent = "identification_performed"

	// Session events
	EventOperatorLoggedIn  AuditEvent = "operator_logged_in"
	EventOperatorLoggedOut AuditEvent = "operator_logged_out"
	EventLoginFailed       AuditEvent = "login_failed"
	EventOperatorLockedOut AuditEvent = "operator_locked_out"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventSubjectRegistered: CategoryCompliance,
	EventSubjectDeleted:    CategoryCompliance,
	EventSubjectViewed:     CategoryCompliance,

	EventLoginFailed:           CategorySecurity,
	EventOperatorLoggedIn:      CategorySecurity,
	EventOperatorLoggedOut:     CategorySecurity,
	EventOperatorLockedOut:     CategorySecurity,
	EventSubjectRegisterFailed: CategorySecurity,

	EventSearchPerformed:         CategoryOperations,
	EventIdentificationPerformed: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Appender accepts audit events. Sinks that cannot be queried (Kafka) only
// implement this half.
type Appender interface {
	Append(ctx context.Context, event Event) error
}

// Store persists and lists audit events.
type Store interface {
	Appender
	ListByOperator(ctx context.Context, operatorID id.OperatorID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
