package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "regdesk/pkg/domain"
	audit "regdesk/pkg/platform/audit"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id               UUID PRIMARY KEY,
	category         TEXT        NOT NULL,
	timestamp        TIMESTAMPTZ NOT NULL,
	operator_id      UUID,
	username         TEXT        NOT NULL DEFAULT '',
	subject          TEXT        NOT NULL DEFAULT '',
	subject_category TEXT        NOT NULL DEFAULT '',
	action           TEXT        NOT NULL,
	decision         TEXT        NOT NULL DEFAULT '',
	reason           TEXT        NOT NULL DEFAULT '',
	ip               TEXT        NOT NULL DEFAULT '',
	request_id       TEXT        NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS audit_events_operator_idx ON audit_events (operator_id, timestamp DESC);
`

// Store implements audit.Store on PostgreSQL through database/sql. Open the
// pool with the "postgres" driver (github.com/lib/pq).
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the audit table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate audit schema: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_events (
			id, category, timestamp, operator_id, username, subject,
			subject_category, action, decision, reason, ip, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}

	_, err := s.db.ExecContext(ctx, query,
		uuid.New(),
		string(category),
		event.Timestamp,
		nullableOperator(event.OperatorID),
		event.Username,
		event.Subject,
		event.SubjectCategory,
		event.Action,
		event.Decision,
		event.Reason,
		event.IP,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

const selectColumns = `
	SELECT category, timestamp, operator_id, username, subject,
		   subject_category, action, decision, reason, ip, request_id
	FROM audit_events
`

func (s *Store) ListByOperator(ctx context.Context, operatorID id.OperatorID) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`WHERE operator_id = $1 ORDER BY timestamp DESC`,
		uuid.UUID(operatorID).String())
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`ORDER BY timestamp DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			category   string
			operatorID sql.NullString
			event      audit.Event
		)
		err := rows.Scan(
			&category,
			&event.Timestamp,
			&operatorID,
			&event.Username,
			&event.Subject,
			&event.SubjectCategory,
			&event.Action,
			&event.Decision,
			&event.Reason,
			&event.IP,
			&event.RequestID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		if operatorID.Valid {
			if parsed, err := uuid.Parse(operatorID.String); err == nil {
				event.OperatorID = id.OperatorID(parsed)
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func nullableOperator(operatorID id.OperatorID) sql.NullString {
	if operatorID.IsNil() {
		return sql.NullString{}
	}
	return sql.NullString{String: uuid.UUID(operatorID).String(), Valid: true}
}
