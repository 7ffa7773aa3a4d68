package audit

import (
	"context"
	"database/sql"
)

// PostgresRepo writes audit events to conversation_audit_events.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO conversation_audit_events (id, call_id, conversation_id, type, event_key, message, metadata, created_at)
VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, '')::jsonb, $8)
`
	_, err := r.db.ExecContext(ctx, q, e.ID, e.CallID, e.ConversationID, string(e.Type), e.EventKey, e.Message, e.Metadata, e.CreatedAt)
	return err
}
