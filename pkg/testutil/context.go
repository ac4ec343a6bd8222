package testutil

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	id "regdesk/pkg/domain"
	"regdesk/pkg/requestcontext"
)

// WithOperator adds an operator identity to the request context, mimicking
// what RequireSession does for authenticated requests.
func WithOperator(req *http.Request, username string) (*http.Request, id.OperatorID) {
	operatorID := id.OperatorID(uuid.New())
	ctx := requestcontext.WithOperator(req.Context(), operatorID, username)
	ctx = requestcontext.WithSessionID(ctx, id.SessionID(uuid.New()))
	return req.WithContext(ctx), operatorID
}

// WithTime pins the request-scoped clock.
func WithTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
