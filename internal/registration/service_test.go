package registration

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"regdesk/internal/backend"
	"regdesk/internal/platform/metrics"
	"regdesk/internal/registration/mocks"
	"regdesk/internal/searchcache"
	"regdesk/internal/subject/form"
	"regdesk/internal/subject/imaging"
	"regdesk/internal/subject/mapping"
	"regdesk/pkg/domain"
	dErrors "regdesk/pkg/domain-errors"
	"regdesk/pkg/platform/audit"
	"regdesk/pkg/platform/audit/publisher"
	auditmemory "regdesk/pkg/platform/audit/store/memory"
	"regdesk/pkg/platform/circuit"
	"regdesk/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Backend,AuditPublisher,SearchCache

var registrationTime = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	operatorID domain.OperatorID
	backend    *mocks.MockBackend
	auditStore *auditmemory.InMemoryStore
	cacheStore *searchcache.InMemoryStore
	cache      *searchcache.Cache
	metrics    *metrics.Metrics
	breaker    *circuit.Breaker
	svc        *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.backend = mocks.NewMockBackend(ctrl)
	s.auditStore = auditmemory.NewInMemoryStore()
	s.cacheStore = searchcache.NewInMemoryStore()
	s.cache = searchcache.New(s.cacheStore, searchcache.WithTTL(time.Minute))
	s.metrics = metrics.NewWithRegistry(prometheus.NewRegistry())
	s.breaker = circuit.New("recognizer-test", circuit.WithFailureThreshold(1), circuit.WithCooldown(time.Hour))

	s.operatorID = domain.OperatorID(uuid.New())
	ctx := requestcontext.WithOperator(context.Background(), s.operatorID, "officer")
	s.ctx = requestcontext.WithTime(ctx, registrationTime)

	s.svc = New(s.backend,
		WithSearchCache(s.cache),
		WithAuditPublisher(publisher.NewPublisher(s.auditStore)),
		WithMetrics(s.metrics),
		WithRecognizerBreaker(s.breaker),
		WithFollowUpTimeout(time.Second),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func (s *ServiceSuite) TearDownTest() {
	s.svc.Close()
}

func jpegUpload() *imaging.Upload {
	return &imaging.Upload{
		Filename:    "ali.jpg",
		ContentType: imaging.MIMEJPEG,
		Data:        append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 256)...),
	}
}

func aliHassan() form.Record {
	return form.Record{
		form.FieldName:         "Ali Hassan",
		form.FieldDOB:          "1990-01-01",
		form.FieldNationalID:   "12345678901234",
		form.FieldPhoneNumber:  "01234567890",
		form.FieldPhoneCompany: "Vodafone",
	}
}

func (s *ServiceSuite) manRequest() RegisterRequest {
	return RegisterRequest{Category: domain.CategoryMan, Fields: aliHassan(), Upload: jpegUpload()}
}

// expectFollowUps accepts the background checks for a registered user.
func (s *ServiceSuite) expectFollowUps(userID string) {
	s.backend.EXPECT().Recognize(gomock.Any(), gomock.Any()).
		Return(&backend.Recognition{Matched: true, UserID: userID, Confidence: 0.97}, nil).AnyTimes()
	s.backend.EXPECT().GetUser(gomock.Any(), domain.SubjectID(userID)).
		Return(backend.Record{"id": userID}, nil).AnyTimes()
	s.backend.EXPECT().ClearCache(gomock.Any()).Return(nil).AnyTimes()
}

// seedCache stores v the way a search does after a miss.
func (s *ServiceSuite) seedCache(key searchcache.Key, v any) {
	slot, _ := s.cache.Get(s.ctx, key, &SearchGroup{})
	s.cache.Put(s.ctx, slot, v)
}

func (s *ServiceSuite) actions() []string {
	events, err := s.auditStore.ListRecent(context.Background(), 0)
	s.Require().NoError(err)
	out := make([]string, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		out = append(out, events[i].Action)
	}
	return out
}

func (s *ServiceSuite) TestRegister_SendsSubmissionAndRunsFollowUps() {
	var sent *mapping.Submission
	s.backend.EXPECT().Register(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, sub *mapping.Submission) (*backend.RegistrationResult, error) {
			sent = sub
			return &backend.RegistrationResult{Status: "success", UserID: "42"}, nil
		})
	s.expectFollowUps("42")

	key := searchcache.Key{Operator: s.operatorID, Scope: domain.ScopeAdults, Query: "man:ali"}
	s.seedCache(key, SearchGroup{Category: domain.CategoryMan, Total: 1})

	res, err := s.svc.Register(s.ctx, s.manRequest())
	s.Require().NoError(err)
	s.Equal("42", res.UserID)
	s.False(res.Placeholder)

	s.Require().NotNil(sent)
	name, _ := sent.Get("name")
	s.Equal("Ali Hassan", name)
	age, _ := sent.Get("age")
	s.Equal("34", age)
	s.Equal(imaging.SourceUpload, sent.Image.Source)

	s.svc.Close()
	var cached SearchGroup
	_, hit := s.cache.Get(s.ctx, key, &cached)
	s.False(hit, "registration should bust the adults search scope")

	s.Equal([]string{string(audit.EventSubjectRegistered)}, s.actions())
	s.Equal(float64(1), promtestutil.ToFloat64(s.metrics.Registrations.WithLabelValues("man", "success")))
	s.Equal(float64(0), promtestutil.ToFloat64(s.metrics.FollowUpFailures.WithLabelValues(taskVerify)))
}

func (s *ServiceSuite) TestRegister_Child() {
	req := RegisterRequest{
		Category: domain.CategoryChild,
		Fields: form.Record{
			form.FieldName:               "Omar Said",
			form.FieldDOB:                "2015-03-10",
			form.FieldGuardianName:       "Mona Said",
			form.FieldGuardianPhone:      "01012345678",
			form.FieldGuardianNationalID: "28001011234567",
			form.FieldRelationship:       "mother",
			form.FieldLastSeenLocation:   "Tahrir Square",
			form.FieldDisappearanceDate:  "2024-06-01",
		},
		Upload: jpegUpload(),
	}
	var sent *mapping.Submission
	s.backend.EXPECT().Register(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, sub *mapping.Submission) (*backend.RegistrationResult, error) {
			sent = sub
			return &backend.RegistrationResult{Status: "success", UserID: "c-9"}, nil
		})
	s.expectFollowUps("c-9")

	res, err := s.svc.Register(s.ctx, req)
	s.Require().NoError(err)
	s.Equal("c-9", res.UserID)

	s.Require().NotNil(sent)
	s.Equal(domain.CategoryChild, sent.Category)
	reporter, _ := sent.Get("reporter_name")
	s.Equal("Mona Said", reporter)
	area, _ := sent.Get("area_of_disappearance")
	s.Equal("Tahrir Square", area)
	s.Equal(float64(1), promtestutil.ToFloat64(s.metrics.Registrations.WithLabelValues("child", "success")))
}

func (s *ServiceSuite) TestRegister_Disabled() {
	fields := form.Record{
		form.FieldName:           "Hoda Adel",
		form.FieldNationalID:     "29001011234567",
		form.FieldDOB:            "1990-01-01",
		form.FieldDisabilityType: "visual",
		form.FieldGuardianName:   "Adel Kamal",
		form.FieldGuardianPhone:  "01098765432",
		form.FieldRelationship:   "father",
	}

	s.Run("complete form is sent", func() {
		var sent *mapping.Submission
		s.backend.EXPECT().Register(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, sub *mapping.Submission) (*backend.RegistrationResult, error) {
				sent = sub
				return &backend.RegistrationResult{Status: "success", UserID: "d-3"}, nil
			})
		s.expectFollowUps("d-3")

		res, err := s.svc.Register(s.ctx, RegisterRequest{Category: domain.CategoryDisabled, Fields: fields, Upload: jpegUpload()})
		s.Require().NoError(err)
		s.Equal("d-3", res.UserID)

		s.Require().NotNil(sent)
		dob, _ := sent.Get("dob")
		s.NotEmpty(dob)
		disability, _ := sent.Get("disability_type")
		s.Equal("visual", disability)
	})

	s.Run("missing dob is reported against the personal section", func() {
		incomplete := form.Record{}
		for k, v := range fields {
			incomplete[k] = v
		}
		delete(incomplete, form.FieldDOB)

		_, err := s.svc.Register(s.ctx, RegisterRequest{Category: domain.CategoryDisabled, Fields: incomplete, Upload: jpegUpload()})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		de, _ := dErrors.As(err)
		s.Equal([]string{"1: Date of birth is required"}, de.Details)
	})
}

func (s *ServiceSuite) TestRegister_CancelledCallerDoesNotFailJoinedDuplicate() {
	release := make(chan struct{})
	entered := make(chan struct{})
	s.backend.EXPECT().Register(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ *mapping.Submission) (*backend.RegistrationResult, error) {
			close(entered)
			<-release
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return &backend.RegistrationResult{Status: "success", UserID: "8"}, nil
		}).Times(1)
	s.expectFollowUps("8")

	firstCtx, cancel := context.WithCancel(s.ctx)
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		_, _ = s.svc.Register(firstCtx, s.manRequest())
	}()
	<-entered

	var dup *backend.RegistrationResult
	var dupErr error
	dupDone := make(chan struct{})
	go func() {
		defer close(dupDone)
		dup, dupErr = s.svc.Register(s.ctx, s.manRequest())
	}()
	time.Sleep(100 * time.Millisecond)
	cancel()
	close(release)
	<-firstDone
	<-dupDone

	s.Require().NoError(dupErr)
	s.Equal("8", dup.UserID)
}

func (s *ServiceSuite) TestRegister_ValidationFailuresNeverReachBackend() {
	s.Run("missing name", func() {
		req := s.manRequest()
		delete(req.Fields, form.FieldName)

		_, err := s.svc.Register(s.ctx, req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		de, _ := dErrors.As(err)
		s.Contains(de.Details, "1: Name is required")
	})

	s.Run("missing photo", func() {
		req := s.manRequest()
		req.Upload = nil

		_, err := s.svc.Register(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		de, _ := dErrors.As(err)
		s.Contains(de.Details, "7: Please upload or capture a photo")
	})

	s.Run("undecodable capture", func() {
		req := s.manRequest()
		req.Upload = nil
		req.Capture = "data:image/jpeg;base64,@@@"

		_, err := s.svc.Register(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Equal(float64(3), promtestutil.ToFloat64(s.metrics.Registrations.WithLabelValues("man", "invalid")))
	s.Empty(s.actions())
}

func (s *ServiceSuite) TestRegister_FaceAngleRewritten() {
	s.backend.EXPECT().Register(gomock.Any(), gomock.Any()).Return(nil, &backend.APIError{
		Category:   backend.ErrorBadRequest,
		Operation:  "register",
		StatusCode: 400,
		Message:    "Face angle too steep, please look at the camera",
	})

	_, err := s.svc.Register(s.ctx, s.manRequest())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	de, _ := dErrors.As(err)
	s.Equal("The face must look straight at the camera. Please retake the photo.", de.Message)

	s.Equal([]string{string(audit.EventSubjectRegisterFailed)}, s.actions())
	s.Equal(float64(1), promtestutil.ToFloat64(s.metrics.Registrations.WithLabelValues("man", "failed")))
}

func (s *ServiceSuite) TestRegister_OutageIsTranslated() {
	s.backend.EXPECT().Register(gomock.Any(), gomock.Any()).Return(nil, &backend.APIError{
		Category:  backend.ErrorUpstreamOutage,
		Operation: "register",
		Message:   "registry unreachable",
		Retryable: true,
	})

	ctx := requestcontext.WithLocale(s.ctx, "ar")
	_, err := s.svc.Register(ctx, s.manRequest())
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	de, _ := dErrors.As(err)
	s.Equal("خدمة السجل غير متاحة حاليًا. يرجى المحاولة لاحقًا.", de.Message)
}

func (s *ServiceSuite) TestRegister_DuplicateSubmitSharesOneCall() {
	release := make(chan struct{})
	entered := make(chan struct{})
	s.backend.EXPECT().Register(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, *mapping.Submission) (*backend.RegistrationResult, error) {
			close(entered)
			<-release
			return &backend.RegistrationResult{Status: "success", UserID: "7"}, nil
		}).Times(1)
	s.expectFollowUps("7")

	var wg sync.WaitGroup
	results := make([]*backend.RegistrationResult, 2)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.svc.Register(s.ctx, s.manRequest())
			s.NoError(err)
			results[i] = res
		}()
		if i == 0 {
			<-entered
		}
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	s.Equal("7", results[0].UserID)
	s.Equal("7", results[1].UserID)
	s.svc.Close()
	s.Equal([]string{string(audit.EventSubjectRegistered)}, s.actions())
}

func (s *ServiceSuite) TestFollowUps_RecognizerBreakerOpens() {
	s.backend.EXPECT().Register(gomock.Any(), gomock.Any()).
		Return(&backend.RegistrationResult{Status: "success", UserID: "9"}, nil).Times(2)
	s.backend.EXPECT().Recognize(gomock.Any(), gomock.Any()).
		Return(nil, &backend.APIError{Category: backend.ErrorUpstreamOutage, Retryable: true}).Times(1)
	s.backend.EXPECT().GetUser(gomock.Any(), domain.SubjectID("9")).Return(backend.Record{"id": "9"}, nil).Times(2)
	s.backend.EXPECT().ClearCache(gomock.Any()).Return(errors.New("boom")).Times(2)

	_, err := s.svc.Register(s.ctx, s.manRequest())
	s.Require().NoError(err)
	s.svc.Close()
	s.True(s.breaker.IsOpen())
	s.Equal(float64(1), promtestutil.ToFloat64(s.metrics.RecognizerOpen))

	req := s.manRequest()
	req.Fields[form.FieldName] = "Omar Said"
	_, err = s.svc.Register(s.ctx, req)
	s.Require().NoError(err)
	s.svc.Close()

	s.Equal(float64(1), promtestutil.ToFloat64(s.metrics.FollowUpFailures.WithLabelValues(taskVerify)))
	s.Equal(float64(2), promtestutil.ToFloat64(s.metrics.FollowUpFailures.WithLabelValues(taskClearCache)))
}

func (s *ServiceSuite) TestRegister_PlaceholderSkipsReadBack() {
	s.backend.EXPECT().Register(gomock.Any(), gomock.Any()).
		Return(&backend.RegistrationResult{Status: "success", Message: "registration accepted", Placeholder: true}, nil)
	s.backend.EXPECT().Recognize(gomock.Any(), gomock.Any()).Return(&backend.Recognition{}, nil)
	s.backend.EXPECT().ClearCache(gomock.Any()).Return(nil)

	res, err := s.svc.Register(s.ctx, s.manRequest())
	s.Require().NoError(err)
	s.True(res.Placeholder)
}

func (s *ServiceSuite) TestForm() {
	s.Run("blank wizard", func() {
		state, err := s.svc.Form(s.ctx, domain.CategoryChild, "")
		s.Require().NoError(err)
		s.Len(state.Sections, 5)
		s.Equal("", state.Data[form.FieldName])
		s.Empty(state.SubjectID)
	})

	s.Run("edit mode prefill", func() {
		s.backend.EXPECT().GetUser(gomock.Any(), domain.SubjectID("42")).Return(backend.Record{
			"id":          "42",
			"name":        "Ali Hassan",
			"dob":         "1990-01-01T00:00:00",
			"has_vehicle": "1",
			"user_data":   `{"vehicle_plate_number":"ABC 123","additional_notes":"tall"}`,
		}, nil)

		state, err := s.svc.Form(s.ctx, domain.CategoryMan, "42")
		s.Require().NoError(err)
		s.Equal("42", state.SubjectID)
		s.Equal("Ali Hassan", state.Data[form.FieldFullName])
		s.Equal("1990-01-01", state.Data[form.FieldDOB])
		s.Equal("34", state.Data[form.FieldAge])
		s.Equal(true, state.Data[form.FieldHasVehicle])
		s.Equal("ABC 123", state.Data[form.FieldLicensePlate])
		s.Equal("tall", state.Data[mapping.KeyNotes])
	})

	s.Run("unknown record", func() {
		s.backend.EXPECT().GetUser(gomock.Any(), domain.SubjectID("404")).
			Return(nil, &backend.APIError{Category: backend.ErrorNotFound, StatusCode: 404})
		_, err := s.svc.Form(s.ctx, domain.CategoryMan, "404")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("path-like id", func() {
		_, err := s.svc.Form(s.ctx, domain.CategoryMan, "../users")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *ServiceSuite) TestValidateSection() {
	req := RegisterRequest{Category: domain.CategoryMan, Fields: form.Record{form.FieldName: "A"}}

	res, err := s.svc.ValidateSection(s.ctx, req, 1)
	s.Require().NoError(err)
	s.False(res.Valid)
	s.Contains(res.Messages, "Name must be at least 2 characters")

	res, err = s.svc.ValidateSection(s.ctx, req, 3)
	s.Require().NoError(err)
	s.True(res.Valid)
	s.Empty(res.Messages)

	s.Equal(float64(1), promtestutil.ToFloat64(s.metrics.ValidationFailures.WithLabelValues("man", "1")))
}

func (s *ServiceSuite) TestSubject() {
	s.backend.EXPECT().GetUser(gomock.Any(), domain.SubjectID("c-1")).Return(backend.Record{
		"form_type":  "child",
		"name":       "Omar",
		"child_data": map[string]any{"reporter_name": "Mona"},
	}, nil)

	view, err := s.svc.Subject(s.ctx, "c-1")
	s.Require().NoError(err)
	s.Equal(domain.CategoryChild, view.Category)
	s.Equal("c-1", view.ID)
	s.Equal("ltr", view.Dir)

	values := map[string]string{}
	for _, item := range view.Items {
		values[item.Key] = item.Value
	}
	s.Equal("Omar", values["name"])
	s.Equal("Mona", values["reporter_name"])
	s.Equal([]string{string(audit.EventSubjectViewed)}, s.actions())
}

func (s *ServiceSuite) TestDeleteBustsEveryScope() {
	s.backend.EXPECT().DeleteUser(gomock.Any(), domain.SubjectID("42")).Return(nil)
	for _, scope := range []domain.SearchScope{domain.ScopeAdults, domain.ScopeChildren, domain.ScopeDisabilities} {
		s.seedCache(searchcache.Key{Operator: s.operatorID, Scope: scope, Query: "q"}, SearchGroup{})
	}

	s.Require().NoError(s.svc.Delete(s.ctx, "42"))

	for _, scope := range []domain.SearchScope{domain.ScopeAdults, domain.ScopeChildren, domain.ScopeDisabilities} {
		var g SearchGroup
		_, hit := s.cache.Get(s.ctx, searchcache.Key{Operator: s.operatorID, Scope: scope, Query: "q"}, &g)
		s.False(hit)
	}
	s.Equal([]string{string(audit.EventSubjectDeleted)}, s.actions())
}

func (s *ServiceSuite) TestSearch_CachesPerCategory() {
	for _, c := range domain.Categories() {
		s.backend.EXPECT().Search(gomock.Any(), backend.SearchQuery{Query: "ali", FormType: c.String(), Limit: defaultSearchLimit}).
			Return(&backend.SearchResult{Users: []backend.Record{{"id": c.String() + "-1"}}, Total: 1}, nil).Times(1)
	}

	first, err := s.svc.Search(s.ctx, " ali ", nil)
	s.Require().NoError(err)
	s.Equal(4, first.Total)
	s.Require().Len(first.Groups, 4)
	s.Equal(domain.CategoryMan, first.Groups[0].Category)
	s.False(first.Groups[0].Cached)

	second, err := s.svc.Search(s.ctx, "ali", []domain.Category{domain.CategoryChild})
	s.Require().NoError(err)
	s.Require().Len(second.Groups, 1)
	s.True(second.Groups[0].Cached)
	s.Equal("child-1", second.Groups[0].Users[0]["id"])

	_, err = s.svc.Search(s.ctx, "  ", nil)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestSearch_BackendFailure() {
	s.backend.EXPECT().Search(gomock.Any(), gomock.Any()).
		Return(nil, &backend.APIError{Category: backend.ErrorTimeout, Retryable: true})

	_, err := s.svc.Search(s.ctx, "ali", []domain.Category{domain.CategoryWoman})
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
}

func (s *ServiceSuite) TestIdentify() {
	s.Run("upload uses multipart recognize", func() {
		s.backend.EXPECT().Recognize(gomock.Any(), gomock.Any()).Return(&backend.Recognition{
			Matched:    true,
			UserID:     "42",
			Confidence: 0.91,
			User:       backend.Record{"name": "Ali Hassan", "form_type": "man"},
		}, nil)

		res, err := s.svc.Identify(s.ctx, jpegUpload(), "")
		s.Require().NoError(err)
		s.True(res.Matched)
		s.Require().NotNil(res.View)
		s.Equal("42", res.View.ID)
		s.Equal(domain.CategoryMan, res.View.Category)
	})

	s.Run("capture uses base64 recognize", func() {
		png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
		encoded := base64.StdEncoding.EncodeToString(png)
		s.backend.EXPECT().RecognizeBase64(gomock.Any(), encoded).Return(&backend.Recognition{Matched: false}, nil)

		res, err := s.svc.Identify(s.ctx, nil, "data:image/png;base64,"+encoded)
		s.Require().NoError(err)
		s.False(res.Matched)
		s.Nil(res.View)
	})

	s.Run("nothing to identify", func() {
		_, err := s.svc.Identify(s.ctx, nil, "")
		s.ErrorIs(err, imaging.ErrNoImage)
	})

	s.Run("unsupported format", func() {
		_, err := s.svc.Identify(s.ctx, &imaging.Upload{Filename: "x.gif", Data: []byte("GIF89a......")}, "")
		s.True(dErrors.HasCode(err, dErrors.CodeUnsupportedMedia))
	})
}

func (s *ServiceSuite) TestCountAndHealth() {
	s.backend.EXPECT().Count(gomock.Any()).Return(&backend.Counts{Total: 12, ByCategory: map[string]int{"man": 12}}, nil)
	counts, err := s.svc.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(12, counts.Total)

	s.backend.EXPECT().Health(gomock.Any()).Return(&backend.APIError{Category: backend.ErrorUpstreamOutage, StatusCode: 503})
	err = s.svc.Health(s.ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func TestExpandBlobKeepsTopLevelValues(t *testing.T) {
	out := expandBlob(backend.Record{
		"name":      "Top",
		"user_data": `{"name":"Blob","job":"nurse"}`,
	})
	if out["name"] != "Top" || out["job"] != "nurse" {
		t.Fatalf("unexpected merge: %v", out)
	}
}

func TestCategoryOf(t *testing.T) {
	cases := map[string]struct {
		record backend.Record
		want   domain.Category
	}{
		"form type":   {backend.Record{"form_type": "Disabled"}, domain.CategoryDisabled},
		"child blob":  {backend.Record{"child_data": "{}"}, domain.CategoryChild},
		"female":      {backend.Record{"gender": "female"}, domain.CategoryWoman},
		"no evidence": {backend.Record{}, domain.CategoryMan},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := categoryOf(tc.record); got != tc.want {
				t.Fatalf("categoryOf() = %s, want %s", got, tc.want)
			}
		})
	}
}
