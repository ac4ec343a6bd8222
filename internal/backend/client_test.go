package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"regdesk/internal/platform/metrics"
	"regdesk/internal/subject/imaging"
	"regdesk/internal/subject/mapping"
	"regdesk/pkg/domain"
	dErrors "regdesk/pkg/domain-errors"
	"regdesk/pkg/requestcontext"
)

type ClientSuite struct {
	suite.Suite
	server   *httptest.Server
	handler  http.HandlerFunc
	attempts atomic.Int32
	metrics  *metrics.Metrics
	client   *Client
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.attempts.Store(0)
	s.handler = func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.attempts.Add(1)
		s.handler(w, r)
	}))
	s.metrics = metrics.NewWithRegistry(prometheus.NewRegistry())
	s.client = New(s.server.URL,
		WithTokenSource(StaticToken("secret-token")),
		WithRetries(2, 0),
		WithMetrics(s.metrics),
		WithEndpoints(map[domain.Category]string{domain.CategoryChild: "/children"}),
	)
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func submission(category domain.Category) *mapping.Submission {
	return &mapping.Submission{
		Category: category,
		Fields:   []mapping.Field{{Name: "name", Value: "Ali Hassan"}, {Name: "form_type", Value: string(category)}},
		BlobKey:  mapping.BlobKey(category),
		Blob:     map[string]string{"name": "Ali Hassan", "form_type": string(category)},
		Image:    &imaging.Image{Filename: "ali.jpg", ContentType: imaging.MIMEJPEG, Data: []byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2, 3}},
	}
}

func (s *ClientSuite) TestRegister() {
	s.Run("uploads multipart with bearer token", func() {
		s.handler = func(w http.ResponseWriter, r *http.Request) {
			s.Equal(http.MethodPost, r.Method)
			s.Equal("/register/upload", r.URL.Path)
			s.Equal("Bearer secret-token", r.Header.Get("Authorization"))
			s.Equal("req-1", r.Header.Get("X-Request-ID"))
			s.Require().NoError(r.ParseMultipartForm(1 << 20))
			s.Equal("Ali Hassan", r.FormValue("name"))
			s.Contains(r.FormValue("user_data"), `"name":"Ali Hassan"`)
			file, header, err := r.FormFile("file")
			s.Require().NoError(err)
			defer file.Close()
			s.Equal("ali.jpg", header.Filename)
			writeJSON(w, http.StatusOK, map[string]any{"status": "success", "message": "registered", "user_id": 42})
		}
		ctx := requestcontext.WithRequestID(context.Background(), "req-1")

		res, err := s.client.Register(ctx, submission(domain.CategoryMan))
		s.Require().NoError(err)
		s.Equal("42", res.UserID)
		s.Equal("registered", res.Message)
		s.False(res.Placeholder)
	})

	s.Run("routes categories to their configured endpoint", func() {
		s.handler = func(w http.ResponseWriter, r *http.Request) {
			s.Equal("/children", r.URL.Path)
			writeJSON(w, http.StatusOK, map[string]any{"status": "success", "user": map[string]any{"id": "c-9"}})
		}
		res, err := s.client.Register(context.Background(), submission(domain.CategoryChild))
		s.Require().NoError(err)
		s.Equal("c-9", res.UserID)
	})

	s.Run("synthesizes a placeholder when no user comes back", func() {
		s.handler = func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
		res, err := s.client.Register(context.Background(), submission(domain.CategoryMan))
		s.Require().NoError(err)
		s.True(res.Placeholder)
		s.Equal("success", res.Status)
		s.Empty(res.UserID)
	})

	s.Run("status error in a 200 body is a rejected request", func() {
		s.attempts.Store(0)
		s.handler = func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"status": "error", "message": "Face angle too steep"})
		}
		_, err := s.client.Register(context.Background(), submission(domain.CategoryMan))
		s.Require().Error(err)
		s.Equal(ErrorBadRequest, CategoryOf(err))
		s.Equal(int32(1), s.attempts.Load())
	})
}

func (s *ClientSuite) TestRetries() {
	s.Run("transient failures are retried until success", func() {
		s.attempts.Store(0)
		s.handler = func(w http.ResponseWriter, r *http.Request) {
			if s.attempts.Load() < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
		}
		s.Require().NoError(s.client.Health(context.Background()))
		s.Equal(int32(3), s.attempts.Load())
		s.Equal(float64(2), promtestutil.ToFloat64(s.metrics.BackendRetries.WithLabelValues("health")))
	})

	s.Run("gives up after two retries", func() {
		s.attempts.Store(0)
		s.handler = func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadGateway, map[string]any{"detail": "upstream down"})
		}
		err := s.client.Health(context.Background())
		s.Require().Error(err)
		s.Equal(int32(3), s.attempts.Load())
		s.Equal(ErrorUpstreamOutage, CategoryOf(err))
		s.True(IsRetryable(err))
		s.Contains(err.Error(), "upstream down")
	})

	for _, tc := range []struct {
		status   int
		category ErrorCategory
	}{
		{http.StatusBadRequest, ErrorBadRequest},
		{http.StatusUnauthorized, ErrorAuthentication},
		{http.StatusForbidden, ErrorAuthentication},
		{http.StatusNotFound, ErrorNotFound},
		{http.StatusConflict, ErrorBadRequest},
		{http.StatusRequestEntityTooLarge, ErrorBadRequest},
		{http.StatusUnsupportedMediaType, ErrorBadRequest},
		{http.StatusUnprocessableEntity, ErrorBadRequest},
		{http.StatusTeapot, ErrorBadData},
	} {
		s.Run(fmt.Sprintf("%d is not retried", tc.status), func() {
			s.attempts.Store(0)
			s.handler = func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tc.status, map[string]any{"detail": "nope"})
			}
			err := s.client.Health(context.Background())
			s.Require().Error(err)
			s.Equal(int32(1), s.attempts.Load())
			s.Equal(tc.category, CategoryOf(err))
			s.False(IsRetryable(err))
		})
	}

	for _, status := range []int{http.StatusRequestTimeout, http.StatusTooManyRequests} {
		s.Run(fmt.Sprintf("%d is retried", status), func() {
			s.attempts.Store(0)
			s.handler = func(w http.ResponseWriter, r *http.Request) {
				if s.attempts.Load() < 2 {
					w.WriteHeader(status)
					return
				}
				writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
			}
			s.Require().NoError(s.client.Health(context.Background()))
			s.Equal(int32(2), s.attempts.Load())
		})
	}

	s.Run("cancelled context stops the backoff", func() {
		client := New(s.server.URL, WithRetries(2, time.Hour))
		s.handler = func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) }
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := client.Health(ctx)
		s.Require().Error(err)
		s.Equal(ErrorTimeout, CategoryOf(err))
	})
}

func (s *ClientSuite) TestGetUser() {
	s.Run("enveloped record", func() {
		s.handler = func(w http.ResponseWriter, r *http.Request) {
			s.Equal("/users/u-1", r.URL.Path)
			writeJSON(w, http.StatusOK, map[string]any{"status": "success", "user": map[string]any{"id": "u-1", "name": "Ali"}})
		}
		rec, err := s.client.GetUser(context.Background(), domain.SubjectID("u-1"))
		s.Require().NoError(err)
		s.Equal("Ali", rec["name"])
	})

	s.Run("bare record", func() {
		s.handler = func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"id": 7, "name": "Sara"})
		}
		rec, err := s.client.GetUser(context.Background(), domain.SubjectID("7"))
		s.Require().NoError(err)
		s.Equal("Sara", rec["name"])
	})

	s.Run("missing subject", func() {
		s.handler = func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]any{"detail": "User not found"})
		}
		_, err := s.client.GetUser(context.Background(), domain.SubjectID("x"))
		s.Equal(ErrorNotFound, CategoryOf(err))
		s.True(dErrors.HasCode(ToDomainError(err), dErrors.CodeNotFound))
	})

	s.Run("unreadable body", func() {
		s.handler = func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "<html>oops</html>")
		}
		_, err := s.client.GetUser(context.Background(), domain.SubjectID("x"))
		s.Equal(ErrorBadData, CategoryOf(err))
	})
}

func (s *ClientSuite) TestSearchAndCount() {
	s.Run("search passes filters", func() {
		s.handler = func(w http.ResponseWriter, r *http.Request) {
			s.Equal("/search", r.URL.Path)
			s.Equal("ali", r.URL.Query().Get("q"))
			s.Equal("man", r.URL.Query().Get("form_type"))
			writeJSON(w, http.StatusOK, map[string]any{"users": []map[string]any{{"id": "1"}, {"id": "2"}}})
		}
		res, err := s.client.Search(context.Background(), SearchQuery{Query: "ali", FormType: "man"})
		s.Require().NoError(err)
		s.Len(res.Users, 2)
		s.Equal(2, res.Total)
	})

	s.Run("count sums categories when no total is given", func() {
		s.handler = func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"status": "success", "man": 3, "child": 2})
		}
		counts, err := s.client.Count(context.Background())
		s.Require().NoError(err)
		s.Equal(5, counts.Total)
		s.Equal(2, counts.ByCategory["child"])
	})
}

func (s *ClientSuite) TestRecognize() {
	s.Run("multipart upload", func() {
		s.handler = func(w http.ResponseWriter, r *http.Request) {
			s.Equal("/recognize", r.URL.Path)
			_, _, err := r.FormFile("file")
			s.Require().NoError(err)
			writeJSON(w, http.StatusOK, map[string]any{"status": "success", "user_id": "u-3", "similarity": 0.91})
		}
		rec, err := s.client.Recognize(context.Background(), &imaging.Image{Filename: "f.png", ContentType: imaging.MIMEPNG, Data: []byte{1, 2}})
		s.Require().NoError(err)
		s.True(rec.Matched)
		s.Equal("u-3", rec.UserID)
		s.InDelta(0.91, rec.Confidence, 0.0001)
	})

	s.Run("base64 capture", func() {
		s.handler = func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			s.Require().NoError(json.NewDecoder(r.Body).Decode(&body))
			s.Equal("aGVsbG8=", body["image"])
			writeJSON(w, http.StatusOK, map[string]any{"status": "success", "matched": false})
		}
		rec, err := s.client.RecognizeBase64(context.Background(), "aGVsbG8=")
		s.Require().NoError(err)
		s.False(rec.Matched)
	})

	s.Run("no image", func() {
		_, err := s.client.Recognize(context.Background(), nil)
		s.ErrorIs(err, imaging.ErrNoImage)
	})
}

func (s *ClientSuite) TestDeleteAndClearCache() {
	var paths []string
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"status": "success"})
	}
	s.Require().NoError(s.client.DeleteUser(context.Background(), domain.SubjectID("u-1")))
	s.Require().NoError(s.client.ClearCache(context.Background()))
	s.Equal([]string{"DELETE /users/u-1", "POST /cache/clear"}, paths)
}

func TestToDomainError(t *testing.T) {
	suite.Run(t, new(domainErrorSuite))
}

type domainErrorSuite struct{ suite.Suite }

func (s *domainErrorSuite) TestMapping() {
	cases := map[ErrorCategory]dErrors.Code{
		ErrorTimeout:        dErrors.CodeTimeout,
		ErrorBadRequest:     dErrors.CodeBadRequest,
		ErrorNotFound:       dErrors.CodeNotFound,
		ErrorUpstreamOutage: dErrors.CodeUnavailable,
		ErrorAuthentication: dErrors.CodeBadGateway,
		ErrorBadData:        dErrors.CodeBadGateway,
	}
	for category, code := range cases {
		err := ToDomainError(newAPIError(category, "op", 0, "message", nil))
		s.True(dErrors.HasCode(err, code), string(category))
	}
	plain := errors.New("plain")
	s.Equal(plain, ToDomainError(plain))
}
