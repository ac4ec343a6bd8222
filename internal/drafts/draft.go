// Package drafts keeps an operator's in-progress or edit-mode form so a
// reload does not lose it.
package drafts

import (
	"context"
	"time"

	id "regdesk/pkg/domain"
)

// Draft is one saved form.
type Draft struct {
	OperatorID id.OperatorID  `json:"operator_id"`
	Category   id.Category    `json:"category"`
	SubjectID  string         `json:"subject_id,omitempty"`
	Record     map[string]any `json:"record"`
	Section    int            `json:"section,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at"`
	ExpiresAt  time.Time      `json:"expires_at"`
}

// Store persists drafts. Load returns sentinel.ErrNotFound for a missing or
// expired draft.
type Store interface {
	Save(ctx context.Context, d *Draft) error
	Load(ctx context.Context, operatorID id.OperatorID, category id.Category) (*Draft, error)
	Delete(ctx context.Context, operatorID id.OperatorID, category id.Category) error
}

func storageKey(operatorID id.OperatorID, category id.Category) string {
	return "regdesk:draft:" + operatorID.String() + ":" + category.String()
}
