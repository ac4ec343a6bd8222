package registration

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"regdesk/internal/backend"
	"regdesk/internal/searchcache"
	"regdesk/internal/subject/display"
	"regdesk/internal/subject/imaging"
	"regdesk/internal/subject/mapping"
	"regdesk/pkg/domain"
	dErrors "regdesk/pkg/domain-errors"
	"regdesk/pkg/platform/audit"
	"regdesk/pkg/requestcontext"
)

// Subject renders one registry record for the request language.
func (s *Service) Subject(ctx context.Context, rawID string) (*display.View, error) {
	subjectID, err := domain.ParseSubjectID(rawID)
	if err != nil {
		return nil, err
	}
	record, err := s.backend.GetUser(ctx, subjectID)
	if err != nil {
		return nil, s.backendError(ctx, err)
	}
	record = expandBlob(record)
	category := categoryOf(record)

	view := s.display.View(category, record, display.Options{Localizer: s.localizer(ctx)})
	if view.ID == "" {
		view.ID = subjectID.String()
	}
	s.emit(ctx, audit.Event{
		Action:          string(audit.EventSubjectViewed),
		Subject:         subjectID.String(),
		SubjectCategory: category.String(),
		Decision:        "viewed",
	})
	return &view, nil
}

// Delete removes a subject and drops every cached search that could list it.
func (s *Service) Delete(ctx context.Context, rawID string) error {
	subjectID, err := domain.ParseSubjectID(rawID)
	if err != nil {
		return err
	}
	if err := s.backend.DeleteUser(ctx, subjectID); err != nil {
		return s.backendError(ctx, err)
	}
	s.emit(ctx, audit.Event{
		Action:   string(audit.EventSubjectDeleted),
		Subject:  subjectID.String(),
		Decision: "deleted",
	})
	s.logger.InfoContext(ctx, "subject deleted",
		"user_id", subjectID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.cache != nil {
		for _, scope := range []domain.SearchScope{domain.ScopeAdults, domain.ScopeChildren, domain.ScopeDisabilities} {
			if err := s.cache.Invalidate(ctx, scope); err != nil {
				s.logger.WarnContext(ctx, "failed to invalidate search cache", "scope", scope, "error", err)
			}
		}
	}
	return nil
}

// Search looks query up in each category, in parallel. No categories means
// all of them.
func (s *Service) Search(ctx context.Context, query string, categories []domain.Category) (*SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "search query is required")
	}
	if len(categories) == 0 {
		categories = domain.Categories()
	}

	groups := make([]SearchGroup, len(categories))
	g, gctx := errgroup.WithContext(ctx)
	for i, category := range categories {
		g.Go(func() error {
			group, err := s.searchCategory(gctx, query, category)
			if err != nil {
				return err
			}
			groups[i] = *group
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, s.backendError(ctx, err)
	}

	resp := &SearchResponse{Query: query, Groups: groups}
	for _, group := range groups {
		resp.Total += group.Total
	}
	s.emit(ctx, audit.Event{
		Action:   string(audit.EventSearchPerformed),
		Decision: "searched",
		Reason:   strconv.Itoa(resp.Total) + " results",
	})
	return resp, nil
}

func (s *Service) searchCategory(ctx context.Context, query string, category domain.Category) (*SearchGroup, error) {
	key := searchcache.Key{
		Operator: requestcontext.OperatorID(ctx),
		Scope:    category.Scope(),
		Query:    category.String() + ":" + query,
	}
	var slot searchcache.Slot
	if s.cache != nil {
		var cached SearchGroup
		var hit bool
		if slot, hit = s.cache.Get(ctx, key, &cached); hit {
			cached.Cached = true
			return &cached, nil
		}
	}

	res, err := s.backend.Search(ctx, backend.SearchQuery{Query: query, FormType: category.String(), Limit: s.searchLimit})
	if err != nil {
		return nil, err
	}
	group := &SearchGroup{Category: category, Total: res.Total, Users: res.Users}
	if group.Users == nil {
		group.Users = []backend.Record{}
	}
	if s.cache != nil {
		s.cache.Put(ctx, slot, group)
	}
	return group, nil
}

// Count returns the registry totals.
func (s *Service) Count(ctx context.Context) (*backend.Counts, error) {
	counts, err := s.backend.Count(ctx)
	if err != nil {
		return nil, s.backendError(ctx, err)
	}
	return counts, nil
}

// Identify runs a face lookup from an uploaded photo or a camera capture.
func (s *Service) Identify(ctx context.Context, upload *imaging.Upload, capture string) (*Identification, error) {
	img, err := imaging.Resolve(ctx, upload, capture)
	if err != nil {
		return nil, err
	}
	if !img.IsAllowedType() {
		return nil, dErrors.New(dErrors.CodeUnsupportedMedia, "photo must be a JPEG or PNG image")
	}

	var rec *backend.Recognition
	if img.Source == imaging.SourceUpload {
		rec, err = s.backend.Recognize(ctx, img)
	} else {
		rec, err = s.backend.RecognizeBase64(ctx, base64.StdEncoding.EncodeToString(img.Data))
	}
	if err != nil {
		return nil, s.backendError(ctx, err)
	}

	out := &Identification{
		Matched:    rec.Matched,
		UserID:     rec.UserID,
		Confidence: rec.Confidence,
		Message:    rec.Message,
	}
	if rec.Matched && rec.User != nil {
		record := expandBlob(rec.User)
		view := s.display.View(categoryOf(record), record, display.Options{Localizer: s.localizer(ctx)})
		if view.ID == "" {
			view.ID = rec.UserID
		}
		out.View = &view
	}

	decision := "no_match"
	if rec.Matched {
		decision = "matched"
	}
	s.emit(ctx, audit.Event{
		Action:   string(audit.EventIdentificationPerformed),
		Subject:  rec.UserID,
		Decision: decision,
	})
	return out, nil
}

// Health reports whether the registry answers.
func (s *Service) Health(ctx context.Context) error {
	if err := s.backend.Health(ctx); err != nil {
		return s.backendError(ctx, err)
	}
	return nil
}

// categoryOf reads the form type a record was registered with. Records
// without one are shown with the adult columns.
func categoryOf(record backend.Record) domain.Category {
	for _, key := range []string{mapping.KeyFormType, "category"} {
		if raw, ok := record[key].(string); ok {
			if c, err := domain.ParseCategory(raw); err == nil {
				return c
			}
		}
	}
	if _, ok := record["child_data"]; ok {
		return domain.CategoryChild
	}
	if gender, _ := record["gender"].(string); strings.EqualFold(gender, "female") {
		return domain.CategoryWoman
	}
	return domain.CategoryMan
}

// expandBlob lifts the fields of a user_data or child_data blob to the top
// level. Top-level values win.
func expandBlob(record backend.Record) backend.Record {
	out := make(backend.Record, len(record))
	for k, v := range record {
		out[k] = v
	}
	for _, key := range []string{"user_data", "child_data"} {
		var blob map[string]any
		switch v := record[key].(type) {
		case map[string]any:
			blob = v
		case string:
			if json.Unmarshal([]byte(v), &blob) != nil {
				continue
			}
		default:
			continue
		}
		for k, v := range blob {
			if _, exists := out[k]; !exists {
				out[k] = v
			}
		}
	}
	return out
}
