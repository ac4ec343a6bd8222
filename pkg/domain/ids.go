package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "regdesk/pkg/domain-errors"
)

// OperatorID identifies a desk operator (police officer account).
type OperatorID uuid.UUID

// SessionID identifies one operator login session.
type SessionID uuid.UUID

// SubjectID is the identifier the backend assigns to a registered subject.
// Its format is owned by the backend, so only emptiness and length are checked.
type SubjectID string

const maxSubjectIDLength = 128

func parseUUID(s, label string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	return u, nil
}

// ParseOperatorID validates a UUID string at trust boundaries.
func ParseOperatorID(s string) (OperatorID, error) {
	u, err := parseUUID(s, "operator id")
	return OperatorID(u), err
}

// ParseSessionID validates a UUID string at trust boundaries.
func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "session id")
	return SessionID(u), err
}

func (id OperatorID) String() string { return uuid.UUID(id).String() }
func (id OperatorID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) String() string { return uuid.UUID(id).String() }
func (id SessionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// ParseSubjectID rejects empty, oversized, or path-like identifiers before
// they are interpolated into backend URLs.
func ParseSubjectID(s string) (SubjectID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "subject id is required")
	}
	if len(s) > maxSubjectIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "subject id is too long")
	}
	if strings.ContainsAny(s, "/?#\\\x00 ") || strings.Contains(s, "..") {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid subject id")
	}
	return SubjectID(s), nil
}

func (id SubjectID) String() string { return string(id) }
func (id SubjectID) IsNil() bool { return id == "" }

func (id OperatorID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *OperatorID) UnmarshalText(b []byte) error {
	var u uuid.UUID
	if err := u.UnmarshalText(b); err != nil {
		return err
	}
	*id = OperatorID(u)
	return nil
}

func (id SessionID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *SessionID) UnmarshalText(b []byte) error {
	var u uuid.UUID
	if err := u.UnmarshalText(b); err != nil {
		return err
	}
	*id = SessionID(u)
	return nil
}
