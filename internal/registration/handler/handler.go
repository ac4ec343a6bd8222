package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"regdesk/internal/backend"
	"regdesk/internal/registration"
	"regdesk/internal/subject/display"
	"regdesk/internal/subject/form"
	"regdesk/internal/subject/imaging"
	"regdesk/pkg/domain"
	dErrors "regdesk/pkg/domain-errors"
	"regdesk/pkg/platform/httputil"
	pstrings "regdesk/pkg/platform/strings"
	"regdesk/pkg/requestcontext"
)

// MaxMultipartBytes bounds a registration upload: form fields plus a photo
// comfortably above the largest per-category limit, so oversize photos get a
// validation message rather than a transport error.
const MaxMultipartBytes = 16 << 20

const (
	fieldFile    = "file"
	fieldCapture = "capture"
)

// Service is the registration surface the handler needs.
type Service interface {
	Form(ctx context.Context, category domain.Category, fromID string) (*registration.FormState, error)
	ValidateSection(ctx context.Context, req registration.RegisterRequest, section int) (*registration.SectionResult, error)
	Register(ctx context.Context, req registration.RegisterRequest) (*backend.RegistrationResult, error)
	Subject(ctx context.Context, id string) (*display.View, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string, categories []domain.Category) (*registration.SearchResponse, error)
	Count(ctx context.Context) (*backend.Counts, error)
	Identify(ctx context.Context, upload *imaging.Upload, capture string) (*registration.Identification, error)
	Health(ctx context.Context) error
}

// Handler serves the wizard, lookup and identification routes.
type Handler struct {
	service Service
	auth    func(http.Handler) http.Handler
	logger  *slog.Logger
}

// New builds the handler. auth guards every route except /health; nil leaves
// them open.
func New(service Service, auth func(http.Handler) http.Handler, logger *slog.Logger) *Handler {
	return &Handler{service: service, auth: auth, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Group(func(protected chi.Router) {
		if h.auth != nil {
			protected.Use(h.auth)
		}
		protected.Get("/forms/{category}", h.handleForm)
		protected.Post("/forms/{category}/sections/{section}/validate", h.handleValidate)
		protected.Post("/register/{category}", h.handleRegister)
		protected.Get("/subjects/{id}", h.handleSubject)
		protected.Delete("/subjects/{id}", h.handleDelete)
		protected.Get("/search", h.handleSearch)
		protected.Get("/count", h.handleCount)
		protected.Post("/identification", h.handleIdentify)
	})
}

func (h *Handler) handleForm(w http.ResponseWriter, r *http.Request) {
	category, err := domain.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	state, err := h.service.Form(r.Context(), category, r.URL.Query().Get("from"))
	if err != nil {
		h.warn(r, "failed to load form", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, state)
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	category, err := domain.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	section, err := strconv.Atoi(chi.URLParam(r, "section"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "section must be a number"))
		return
	}
	req, err := readSubmission(w, r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req.Category = category

	res, err := h.service.ValidateSection(r.Context(), req, section)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	category, err := domain.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := readSubmission(w, r)
	if err != nil {
		h.warn(r, "invalid registration upload", err)
		httputil.WriteError(w, err)
		return
	}
	req.Category = category

	res, err := h.service.Register(ctx, req)
	if err != nil {
		h.warn(r, "registration rejected", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}

func (h *Handler) handleSubject(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Subject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Language", view.Lang)
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.warn(r, "failed to delete subject", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var categories []domain.Category
	for _, raw := range pstrings.SplitList(q.Get("category")) {
		c, err := domain.ParseCategory(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		categories = append(categories, c)
	}
	res, err := h.service.Search(r.Context(), q.Get("q"), categories)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleCount(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.Count(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, counts)
}

func (h *Handler) handleIdentify(w http.ResponseWriter, r *http.Request) {
	req, err := readSubmission(w, r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.service.Identify(r.Context(), req.Upload, req.Capture)
	if err != nil {
		h.warn(r, "identification failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Health(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) warn(r *http.Request, msg string, err error) {
	ctx := r.Context()
	h.logger.WarnContext(ctx, msg,
		"path", r.URL.Path,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
}

// jsonSubmission is the JSON alternative to multipart. Image is accepted as
// an alias of Capture.
type jsonSubmission struct {
	Fields  form.Record `json:"fields"`
	Capture string      `json:"capture"`
	Image   string      `json:"image"`
}

// readSubmission accepts multipart/form-data (fields, a "file" part and an
// optional "capture" field) or a JSON body.
func readSubmission(w http.ResponseWriter, r *http.Request) (registration.RegisterRequest, error) {
	var req registration.RegisterRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var body jsonSubmission
		if err := httputil.DecodeJSON(w, r, &body); err != nil {
			return req, err
		}
		req.Fields = body.Fields
		req.Capture = body.Capture
		if req.Capture == "" {
			req.Capture = body.Image
		}
		return req, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxMultipartBytes)
	if err := r.ParseMultipartForm(MaxMultipartBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, dErrors.New(dErrors.CodePayloadTooLarge, "upload too large")
		}
		return req, dErrors.New(dErrors.CodeBadRequest, "invalid multipart body")
	}
	req.Fields = form.Record{}
	for key, values := range r.MultipartForm.Value {
		if len(values) == 0 {
			continue
		}
		if key == fieldCapture {
			req.Capture = values[0]
			continue
		}
		req.Fields[key] = values[0]
	}

	file, header, err := r.FormFile(fieldFile)
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil
	}
	if err != nil {
		return req, dErrors.New(dErrors.CodeBadRequest, "invalid file part")
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return req, dErrors.New(dErrors.CodeBadRequest, "unreadable file part")
	}
	req.Upload = &imaging.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	return req, nil
}
