package drafts

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "regdesk/pkg/domain"
	"regdesk/pkg/platform/httputil"
	"regdesk/pkg/requestcontext"
)

// Handler serves /drafts/{category}.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the draft routes. Callers apply RequireSession.
func (h *Handler) Register(r chi.Router) {
	r.Get("/drafts/{category}", h.handleGet)
	r.Put("/drafts/{category}", h.handlePut)
	r.Delete("/drafts/{category}", h.handleDelete)
}

type putRequest struct {
	SubjectID string         `json:"subject_id"`
	Section   int            `json:"section"`
	Record    map[string]any `json:"record"`
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	category, err := id.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	d, err := h.service.Get(r.Context(), category)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	category, err := id.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req putRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	d, err := h.service.Save(ctx, category, req.SubjectID, req.Section, req.Record)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to save draft",
			"category", category,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	category, err := id.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Discard(r.Context(), category); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
