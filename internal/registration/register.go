package registration

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"regdesk/internal/backend"
	"regdesk/internal/subject/form"
	"regdesk/internal/subject/i18n"
	"regdesk/internal/subject/imaging"
	"regdesk/internal/subject/mapping"
	"regdesk/pkg/domain"
	dErrors "regdesk/pkg/domain-errors"
	"regdesk/pkg/platform/audit"
	"regdesk/pkg/requestcontext"
)

const faceAngleMarker = "Face angle"

// Form returns the initial state of a category's wizard. With fromID the
// form is pre-populated from that registry record for editing.
func (s *Service) Form(ctx context.Context, category domain.Category, fromID string) (*FormState, error) {
	state := &FormState{
		Category: category,
		Sections: s.validator.Sections(category),
	}
	if strings.TrimSpace(fromID) == "" {
		state.Data = form.New(category).Snapshot()
		return state, nil
	}

	subjectID, err := domain.ParseSubjectID(fromID)
	if err != nil {
		return nil, err
	}
	record, err := s.backend.GetUser(ctx, subjectID)
	if err != nil {
		return nil, s.backendError(ctx, err)
	}
	f, err := mapping.ToForm(ctx, category, expandBlob(record))
	if err != nil {
		return nil, err
	}
	state.SubjectID = subjectID.String()
	state.Data = f.Snapshot()
	return state, nil
}

// ValidateSection checks one wizard section against the submitted fields.
func (s *Service) ValidateSection(ctx context.Context, req RegisterRequest, section int) (*SectionResult, error) {
	f := form.FromRecord(ctx, req.Category, req.Fields)
	img, err := imaging.Resolve(ctx, req.Upload, req.Capture)
	if err != nil && !errors.Is(err, imaging.ErrNoImage) {
		return nil, err
	}
	msgs := s.validator.Validate(ctx, f, img, section, s.localizer(ctx))
	if len(msgs) > 0 {
		s.metrics.IncrementValidationFailure(req.Category.String(), section)
	}
	return &SectionResult{Section: section, Valid: len(msgs) == 0, Messages: msgs}, nil
}

// Register validates every section, builds the submission and sends it.
// Identical submissions within the same second share one backend call.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*backend.RegistrationResult, error) {
	category := req.Category
	f := form.FromRecord(ctx, category, req.Fields)

	img, err := imaging.Resolve(ctx, req.Upload, req.Capture)
	if err != nil && !errors.Is(err, imaging.ErrNoImage) {
		s.metrics.IncrementRegistration(category.String(), "invalid")
		return nil, err
	}

	if failures := s.validator.ValidateAll(ctx, f, img, s.localizer(ctx)); len(failures) > 0 {
		for section := range failures {
			s.metrics.IncrementValidationFailure(category.String(), section)
		}
		s.metrics.IncrementRegistration(category.String(), "invalid")
		return nil, dErrors.New(dErrors.CodeValidation, "form has validation errors").WithDetails(flatten(failures))
	}

	sub, err := mapping.Build(ctx, f, img)
	if err != nil {
		s.metrics.IncrementRegistration(category.String(), "invalid")
		return nil, err
	}

	// The shared call outlives the caller that started it, so a disconnect
	// does not fail the joined duplicates. It is audited under that caller.
	key := fmt.Sprintf("%s-%s-%s-%d",
		f.String(form.FieldName), f.String(form.FieldDOB), category, requestcontext.Now(ctx).Unix())
	submitCtx := requestcontext.Detach(ctx)
	v, err, shared := s.flight.Do(key, func() (any, error) {
		return s.submit(submitCtx, sub)
	})
	if shared {
		s.logger.DebugContext(ctx, "duplicate submission joined in-flight registration",
			"category", category,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if err != nil {
		return nil, s.backendError(ctx, err)
	}
	return v.(*backend.RegistrationResult), nil
}

// submit runs once per deduplicated submission.
func (s *Service) submit(ctx context.Context, sub *mapping.Submission) (*backend.RegistrationResult, error) {
	category := sub.Category
	name, _ := sub.Get("name")

	res, err := s.backend.Register(ctx, sub)
	if err != nil {
		s.metrics.IncrementRegistration(category.String(), "failed")
		s.emit(ctx, audit.Event{
			Action:          string(audit.EventSubjectRegisterFailed),
			Subject:         name,
			SubjectCategory: category.String(),
			Decision:        "failed",
			Reason:          string(backend.CategoryOf(err)),
		})
		s.logger.WarnContext(ctx, "registration failed",
			"category", category,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, err
	}

	s.metrics.IncrementRegistration(category.String(), "success")
	s.emit(ctx, audit.Event{
		Action:          string(audit.EventSubjectRegistered),
		Subject:         res.UserID,
		SubjectCategory: category.String(),
		Decision:        "registered",
	})
	s.logger.InfoContext(ctx, "subject registered",
		"category", category,
		"user_id", res.UserID,
		"placeholder", res.Placeholder,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.followUp(ctx, category, res, sub.Image)
	return res, nil
}

// backendError turns registry failures into desk errors with translated
// operator-facing messages.
func (s *Service) backendError(ctx context.Context, err error) error {
	loc := s.localizer(ctx)
	var ae *backend.APIError
	if errors.As(err, &ae) && strings.Contains(ae.Message, faceAngleMarker) {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, loc.T(i18n.MsgFaceAngle))
	}
	mapped := backend.ToDomainError(err)
	de, ok := dErrors.As(mapped)
	if !ok {
		return mapped
	}
	switch de.Code {
	case dErrors.CodeUnavailable, dErrors.CodeTimeout:
		return dErrors.Wrap(err, de.Code, loc.T(i18n.MsgBackendUnavailable))
	case dErrors.CodeNotFound:
		return dErrors.Wrap(err, de.Code, loc.T(i18n.MsgSubjectNotFound))
	case dErrors.CodeBadGateway:
		return dErrors.Wrap(err, de.Code, loc.T(i18n.MsgRegisterFailed))
	}
	return mapped
}

// flatten lists failures in section order, each prefixed with its section.
func flatten(failures map[int][]string) []string {
	sections := make([]int, 0, len(failures))
	for section := range failures {
		sections = append(sections, section)
	}
	sort.Ints(sections)
	var out []string
	for _, section := range sections {
		for _, msg := range failures[section] {
			out = append(out, strconv.Itoa(section)+": "+msg)
		}
	}
	return out
}
