package registration

import (
	"context"

	"golang.org/x/sync/errgroup"

	"regdesk/internal/backend"
	"regdesk/internal/subject/imaging"
	"regdesk/pkg/domain"
	"regdesk/pkg/requestcontext"
)

// Follow-up task names, used as the metrics label.
const (
	taskVerify     = "verify"
	taskReadBack   = "read_back"
	taskClearCache = "clear_cache"
	taskInvalidate = "invalidate_search"
)

// followUp runs the post-registration checks in the background. They are
// best effort: failures are logged and counted, never returned.
func (s *Service) followUp(ctx context.Context, category domain.Category, res *backend.RegistrationResult, img *imaging.Image) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(requestcontext.Detach(ctx), s.followUpTimeout)
		defer cancel()

		var g errgroup.Group
		g.Go(s.task(ctx, taskVerify, func(ctx context.Context) error { return s.verify(ctx, res, img) }))
		g.Go(s.task(ctx, taskReadBack, func(ctx context.Context) error { return s.readBack(ctx, res) }))
		g.Go(s.task(ctx, taskClearCache, s.backend.ClearCache))
		g.Go(s.task(ctx, taskInvalidate, func(ctx context.Context) error {
			if s.cache == nil {
				return nil
			}
			return s.cache.Invalidate(ctx, category.Scope())
		}))
		_ = g.Wait()
	}()
}

func (s *Service) task(ctx context.Context, name string, fn func(context.Context) error) func() error {
	return func() error {
		if err := fn(ctx); err != nil {
			s.metrics.IncrementFollowUpFailure(name)
			s.logger.WarnContext(ctx, "registration follow-up failed",
				"task", name,
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		return nil
	}
}

// verify asks the recognizer whether the registered photo is findable. The
// breaker stops hammering a recognizer that keeps failing.
func (s *Service) verify(ctx context.Context, res *backend.RegistrationResult, img *imaging.Image) error {
	if img == nil {
		return nil
	}
	if !s.breaker.Allow() {
		s.logger.DebugContext(ctx, "skipping face verification, recognizer circuit open")
		return nil
	}
	rec, err := s.backend.Recognize(ctx, img)
	if err != nil {
		if _, change := s.breaker.RecordFailure(); change.Opened {
			s.metrics.SetRecognizerOpen(true)
			s.logger.WarnContext(ctx, "recognizer circuit opened", "error", err)
		}
		return err
	}
	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.metrics.SetRecognizerOpen(false)
		s.logger.InfoContext(ctx, "recognizer circuit closed")
	}

	switch {
	case !rec.Matched:
		s.logger.InfoContext(ctx, "face verification found no match for new registration",
			"user_id", res.UserID,
		)
	case res.UserID != "" && rec.UserID != "" && rec.UserID != res.UserID:
		s.logger.WarnContext(ctx, "face verification matched a different subject",
			"user_id", res.UserID,
			"matched_user_id", rec.UserID,
			"confidence", rec.Confidence,
		)
	}
	return nil
}

// readBack confirms the registry can serve the new record.
func (s *Service) readBack(ctx context.Context, res *backend.RegistrationResult) error {
	if res.Placeholder || res.UserID == "" {
		return nil
	}
	subjectID, err := domain.ParseSubjectID(res.UserID)
	if err != nil {
		return err
	}
	_, err = s.backend.GetUser(ctx, subjectID)
	return err
}
