// Package admin serves the audit review routes for shift supervisors.
package admin

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	id "regdesk/pkg/domain"
	dErrors "regdesk/pkg/domain-errors"
	"regdesk/pkg/platform/audit"
	"regdesk/pkg/platform/httputil"
	"regdesk/pkg/requestcontext"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// AuditReader reads back audit events.
type AuditReader interface {
	List(ctx context.Context, operatorID id.OperatorID) ([]audit.Event, error)
	Recent(ctx context.Context, limit int) ([]audit.Event, error)
}

type Handler struct {
	reader AuditReader
	logger *slog.Logger
}

func NewHandler(reader AuditReader, logger *slog.Logger) *Handler {
	return &Handler{reader: reader, logger: logger}
}

// Register mounts /admin/audit routes. Callers apply the admin guard.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/audit", h.handleRecent)
	r.Get("/admin/audit/operators/{operatorID}", h.handleByOperator)
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "limit must be a positive number"))
			return
		}
		limit = min(n, maxLimit)
	}
	events, err := h.reader.Recent(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(events))
}

func (h *Handler) handleByOperator(w http.ResponseWriter, r *http.Request) {
	operatorID, err := id.ParseOperatorID(chi.URLParam(r, "operatorID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	events, err := h.reader.List(r.Context(), operatorID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(events))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	h.logger.ErrorContext(ctx, "failed to read audit events",
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read audit events"))
}
