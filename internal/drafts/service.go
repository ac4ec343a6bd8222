package drafts

import (
	"context"
	"errors"
	"time"

	id "regdesk/pkg/domain"
	dErrors "regdesk/pkg/domain-errors"
	"regdesk/pkg/platform/sentinel"
	"regdesk/pkg/requestcontext"
)

const defaultTTL = 24 * time.Hour

// Service scopes drafts to the operator on the request.
type Service struct {
	store Store
	ttl   time.Duration
}

func NewService(store Store, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Service{store: store, ttl: ttl}
}

// Save replaces the operator's draft for category.
func (s *Service) Save(ctx context.Context, category id.Category, subjectID string, section int, record map[string]any) (*Draft, error) {
	operatorID := requestcontext.OperatorID(ctx)
	if operatorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "no operator session")
	}
	if record == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "record is required")
	}
	now := requestcontext.Now(ctx)
	d := &Draft{
		OperatorID: operatorID,
		Category:   category,
		SubjectID:  subjectID,
		Record:     record,
		Section:    section,
		UpdatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}
	if err := s.store.Save(ctx, d); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save draft")
	}
	return d, nil
}

// Get returns the operator's draft for category.
func (s *Service) Get(ctx context.Context, category id.Category) (*Draft, error) {
	d, err := s.store.Load(ctx, requestcontext.OperatorID(ctx), category)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "no draft saved")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load draft")
	}
	return d, nil
}

// Discard drops the draft. Discarding nothing is not an error.
func (s *Service) Discard(ctx context.Context, category id.Category) error {
	if err := s.store.Delete(ctx, requestcontext.OperatorID(ctx), category); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete draft")
	}
	return nil
}
