package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"voice-agent/internal/calls"
	"voice-agent/internal/content"
	"voice-agent/internal/emotion"
	"voice-agent/pkg/utils"
)

const (
	constraintSequence = "conversation_segments_sequence_key"
	constraintEventKey = "conversation_segments_event_key_key"
	constraintCall     = "conversations_call_id_key"
)

// PostgresStore persists conversations in Postgres.
//
// Turn writes are one transaction: a conditional update of
// conversations.last_sequence followed by the segment inserts. The unique
// constraints on (conversation_id, sequence) and (conversation_id, event_key)
// back up the conditional update.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

func (s *PostgresStore) GetCall(ctx context.Context, id string) (calls.Call, error) {
	const q = `
SELECT id, provider_call_id, campaign_id, lead_id, to_number, voice_type, personality, base_language, status, vars, created_at, updated_at
FROM calls
WHERE id = $1
`
	var (
		c                                  calls.Call
		providerCallID, campaignID, leadID sql.NullString
		vars                               []byte
	)
	if err := s.db.QueryRowContext(ctx, q, id).Scan(
		&c.ID,
		&providerCallID,
		&campaignID,
		&leadID,
		&c.To,
		&c.Voice.VoiceType,
		&c.Voice.Personality,
		&c.Voice.BaseLanguage,
		&c.Status,
		&vars,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return calls.Call{}, ErrNotFound
		}
		return calls.Call{}, err
	}
	c.ProviderCallID = providerCallID.String
	c.CampaignID = campaignID.String
	c.LeadID = leadID.String
	if len(vars) > 0 {
		if err := json.Unmarshal(vars, &c.Vars); err != nil {
			return calls.Call{}, fmt.Errorf("decode call vars: %w", err)
		}
	}
	return c, nil
}

func (s *PostgresStore) SetCallStatus(ctx context.Context, id string, status calls.CallStatus, at time.Time) error {
	const q = `
UPDATE calls SET status = $2, updated_at = $3
WHERE id = $1 AND status NOT IN ('completed', 'failed', 'no_answer', 'busy', 'canceled')
`
	res, err := s.db.ExecContext(ctx, q, id, string(status), at)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetCall(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) EnsureConversation(ctx context.Context, c Conversation) (Conversation, error) {
	const q = `
INSERT INTO conversations (id, call_id, current_language, status, last_sequence, started_at)
VALUES ($1, $2, $3, $4, 0, $5)
ON CONFLICT ON CONSTRAINT ` + constraintCall + ` DO NOTHING
`
	if _, err := s.db.ExecContext(ctx, q, c.ID, c.CallID, c.CurrentLanguage, string(c.Status), c.StartedAt); err != nil {
		return Conversation{}, err
	}
	return s.FindConversationByCall(ctx, c.CallID)
}

const selectConversation = `
SELECT id, call_id, current_language, status, last_sequence, started_at, ended_at
FROM conversations
`

func scanConversation(row *sql.Row) (Conversation, error) {
	var (
		c       Conversation
		endedAt sql.NullTime
	)
	if err := row.Scan(&c.ID, &c.CallID, &c.CurrentLanguage, &c.Status, &c.LastSequence, &c.StartedAt, &endedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Conversation{}, ErrNotFound
		}
		return Conversation{}, err
	}
	if endedAt.Valid {
		t := endedAt.Time
		c.EndedAt = &t
	}
	return c, nil
}

func (s *PostgresStore) GetConversation(ctx context.Context, id string) (Conversation, error) {
	return scanConversation(s.db.QueryRowContext(ctx, selectConversation+`WHERE id = $1`, id))
}

func (s *PostgresStore) FindConversationByCall(ctx context.Context, callID string) (Conversation, error) {
	return scanConversation(s.db.QueryRowContext(ctx, selectConversation+`WHERE call_id = $1`, callID))
}

func (s *PostgresStore) ListSegments(ctx context.Context, conversationID string) ([]Segment, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	const q = `
SELECT id, conversation_id, speaker, text, language, sequence, confidence, emotion, intent, content_key, audio_key, duration_ms, event_key, created_at
FROM conversation_segments
WHERE conversation_id = $1
ORDER BY sequence
`
	rows, err := s.db.QueryContext(ctx, q, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Segment
	for rows.Next() {
		var (
			seg                                         Segment
			confidence                                  sql.NullFloat64
			emo, intent, contentKey, audioKey, eventKey sql.NullString
			durationMS                                  sql.NullInt64
		)
		if err := rows.Scan(
			&seg.ID,
			&seg.ConversationID,
			&seg.Speaker,
			&seg.Text,
			&seg.Language,
			&seg.Sequence,
			&confidence,
			&emo,
			&intent,
			&contentKey,
			&audioKey,
			&durationMS,
			&eventKey,
			&seg.CreatedAt,
		); err != nil {
			return nil, err
		}
		if confidence.Valid {
			v := confidence.Float64
			seg.Confidence = &v
		}
		seg.Emotion = emotion.Emotion(emo.String)
		seg.Intent = emotion.Intent(intent.String)
		seg.ContentKey = content.Key(contentKey.String)
		seg.AudioKey = audioKey.String
		seg.DurationMS = durationMS.Int64
		seg.EventKey = eventKey.String
		out = append(out, seg)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AppendTurn(ctx context.Context, w TurnWrite) error {
	if err := w.validate(); err != nil {
		return err
	}

	err := utils.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		const advance = `
UPDATE conversations
SET last_sequence = $3,
    current_language = COALESCE(NULLIF($4, ''), current_language),
    status = CASE WHEN $5::boolean THEN 'completed' ELSE status END,
    ended_at = CASE WHEN $5::boolean THEN $6 ELSE ended_at END
WHERE id = $1 AND last_sequence = $2
`
		last := w.Segments[len(w.Segments)-1].Sequence
		res, err := tx.ExecContext(ctx, advance, w.ConversationID, w.ExpectedLastSequence, last, w.Language, w.Close, w.At)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM conversations WHERE id = $1)`, w.ConversationID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return ErrNotFound
			}
			return ErrSequenceConflict
		}

		for _, seg := range w.Segments {
			if err := insertSegment(ctx, tx, seg); err != nil {
				return err
			}
		}

		if w.Close {
			const closeCall = `
UPDATE calls SET status = 'completed', updated_at = $2
WHERE id = $1 AND status NOT IN ('completed', 'failed', 'no_answer', 'busy', 'canceled')
`
			if _, err := tx.ExecContext(ctx, closeCall, w.CallID, w.At); err != nil {
				return err
			}
		}
		return nil
	})
	if constraint, ok := utils.UniqueViolation(err); ok {
		switch constraint {
		case constraintEventKey:
			return ErrDuplicateEvent
		case constraintSequence:
			return ErrSequenceConflict
		}
	}
	return err
}

func insertSegment(ctx context.Context, tx *sql.Tx, seg Segment) error {
	const q = `
INSERT INTO conversation_segments (
  id, conversation_id, speaker, text, language, sequence, confidence,
  emotion, intent, content_key, audio_key, duration_ms, event_key, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,NULLIF($8,''),NULLIF($9,''),NULLIF($10,''),NULLIF($11,''),NULLIF($12,0),NULLIF($13,''),$14
)
`
	var confidence sql.NullFloat64
	if seg.Confidence != nil {
		confidence = sql.NullFloat64{Float64: *seg.Confidence, Valid: true}
	}
	_, err := tx.ExecContext(ctx, q,
		seg.ID,
		seg.ConversationID,
		string(seg.Speaker),
		seg.Text,
		seg.Language,
		seg.Sequence,
		confidence,
		string(seg.Emotion),
		string(seg.Intent),
		string(seg.ContentKey),
		seg.AudioKey,
		seg.DurationMS,
		seg.EventKey,
		seg.CreatedAt,
	)
	return err
}

func (s *PostgresStore) CompleteConversation(ctx context.Context, id string, at time.Time) error {
	const q = `
UPDATE conversations SET status = 'completed', ended_at = $2
WHERE id = $1 AND status <> 'completed'
`
	res, err := s.db.ExecContext(ctx, q, id, at)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetConversation(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
