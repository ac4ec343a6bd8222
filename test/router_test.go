package test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regdesk/internal/backend"
	"regdesk/internal/drafts"
	"regdesk/internal/platform/metrics"
	"regdesk/internal/registration"
	"regdesk/internal/session"
	"regdesk/internal/subject/i18n"
	httptransport "regdesk/internal/transport/http"
	"regdesk/pkg/platform/middleware/admin"
	"regdesk/pkg/testutil"
)

// fakeRegistry answers the registry endpoints the smoke test touches.
func fakeRegistry(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/count", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"man":3,"child":2}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	sessions := session.New(session.DevDirectory(), session.NewTokenService("test-signing-key"),
		session.WithLogger(logger))
	regSvc := registration.New(
		backend.New(fakeRegistry(t).URL, backend.WithRetries(0, time.Millisecond), backend.WithLogger(logger)),
		registration.WithLogger(logger),
		registration.WithMetrics(m),
	)
	t.Cleanup(regSvc.Close)

	return httptransport.NewRouter(httptransport.Deps{
		Logger:         logger,
		Metrics:        m,
		Bundle:         i18n.NewBundle("en"),
		Sessions:       sessions,
		Registration:   regSvc,
		Drafts:         drafts.NewService(drafts.NewInMemoryStore(), time.Hour),
		AdminToken:     "ops-token",
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
}

func login(t *testing.T, router http.Handler) string {
	t.Helper()
	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/login",
		map[string]string{"username": "officer", "password": "officer123"}))
	testutil.AssertStatusOK(t, rr)
	res := testutil.UnmarshalResponse[session.LoginResult](t, rr)
	require.NotEmpty(t, res.AccessToken)
	return res.AccessToken
}

func TestDeskRouter(t *testing.T) {
	testutil.Given(t, "the assembled desk router", func(t *testing.T) {
		router := newRouter(t)

		testutil.When(t, "calling GET /health without a session", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/health"))

			testutil.Then(t, "the registry health is reported", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
			})
		})

		testutil.When(t, "calling GET /count without a session", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/count"))

			testutil.Then(t, "it is rejected", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
			})
		})

		testutil.When(t, "an officer logs in and asks for the totals", func(t *testing.T) {
			token := login(t, router)
			req := testutil.NewRequest(t, http.MethodGet, "/count")
			req.Header.Set("Authorization", "Bearer "+token)
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "the registry counts come back summed", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				counts := testutil.UnmarshalResponse[backend.Counts](t, rr)
				assert.Equal(t, 5, counts.Total)
				assert.Equal(t, 2, counts.ByCategory["child"])
			})
		})

		testutil.When(t, "an officer saves a draft", func(t *testing.T) {
			token := login(t, router)
			put := testutil.NewJSONRequest(t, http.MethodPut, "/drafts/child", map[string]any{
				"section": 2,
				"record":  map[string]any{"name": "Omar"},
			})
			put.Header.Set("Authorization", "Bearer "+token)
			putRR := testutil.DoRequest(router, put)

			get := testutil.NewRequest(t, http.MethodGet, "/drafts/child")
			get.Header.Set("Authorization", "Bearer "+token)
			getRR := testutil.DoRequest(router, get)

			testutil.Then(t, "it can be read back", func(t *testing.T) {
				testutil.AssertStatusOK(t, putRR)
				testutil.AssertStatusOK(t, getRR)
				var body map[string]any
				require.NoError(t, json.Unmarshal(getRR.Body.Bytes(), &body))
				assert.EqualValues(t, 2, body["section"])
			})
		})

		testutil.When(t, "scraping /metrics", func(t *testing.T) {
			anonymous := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
			req := testutil.NewRequest(t, http.MethodGet, "/metrics")
			req.Header.Set(admin.HeaderToken, "ops-token")
			authorized := testutil.DoRequest(router, req)

			testutil.Then(t, "the admin token is required", func(t *testing.T) {
				testutil.AssertStatus(t, anonymous, http.StatusUnauthorized)
				testutil.AssertStatusOK(t, authorized)
				assert.Contains(t, authorized.Body.String(), "regdesk_http_request_duration_seconds")
			})
		})
	})
}
