package conversation

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-agent/pkg/utils"
)

// postgresStore returns a migrated store and a fresh conversation, or skips
// when DATABASE_URL is unset.
func postgresStore(t *testing.T) (*PostgresStore, *sql.DB, Conversation) {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()

	db, err := utils.OpenPostgres(ctx, "pgx", dsn, utils.PostgresPoolConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	migrator, err := NewMigrator(db)
	require.NoError(t, err)
	_, err = migrator.Up(ctx)
	require.NoError(t, err)

	callID := uuid.NewString()
	_, err = db.ExecContext(ctx, `INSERT INTO calls (id, to_number, status) VALUES ($1, '+15550100', 'in_progress')`, callID)
	require.NoError(t, err)

	s := NewPostgresStore(db)
	conv, err := s.EnsureConversation(ctx, Conversation{
		ID:              uuid.NewString(),
		CallID:          callID,
		CurrentLanguage: "en",
		Status:          StatusActive,
		StartedAt:       time.Now().UTC(),
	})
	require.NoError(t, err)
	return s, db, conv
}

func pgSegment(conv Conversation, seq int, eventKey string) Segment {
	return Segment{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Speaker:        SpeakerAgent,
		Text:           "hi",
		Language:       "en",
		Sequence:       seq,
		EventKey:       eventKey,
		CreatedAt:      time.Now().UTC(),
	}
}

func TestPostgresStore_ConcurrentAppendsOneWins(t *testing.T) {
	s, _, conv := postgresStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendTurn(ctx, TurnWrite{
		ConversationID: conv.ID,
		CallID:         conv.CallID,
		Segments:       []Segment{pgSegment(conv, 1, "connect")},
		At:             time.Now().UTC(),
	}))

	const writers = 8
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.AppendTurn(ctx, TurnWrite{
				ConversationID:       conv.ID,
				CallID:               conv.CallID,
				ExpectedLastSequence: 1,
				Segments:             []Segment{pgSegment(conv, 2, uuid.NewString())},
				At:                   time.Now().UTC(),
			})
		}(i)
	}
	wg.Wait()

	var won int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrSequenceConflict):
		default:
			t.Fatalf("unexpected append error: %v", err)
		}
	}
	assert.Equal(t, 1, won)

	got, err := s.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.LastSequence)

	segs, err := s.ListSegments(ctx, conv.ID)
	require.NoError(t, err)
	assert.Len(t, segs, 2)
}

func TestPostgresStore_UniqueViolationsMapToStoreErrors(t *testing.T) {
	s, db, conv := postgresStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendTurn(ctx, TurnWrite{
		ConversationID: conv.ID,
		CallID:         conv.CallID,
		Segments:       []Segment{pgSegment(conv, 1, "connect")},
		At:             time.Now().UTC(),
	}))

	err := s.AppendTurn(ctx, TurnWrite{
		ConversationID:       conv.ID,
		CallID:               conv.CallID,
		ExpectedLastSequence: 1,
		Segments:             []Segment{pgSegment(conv, 2, "connect")},
		At:                   time.Now().UTC(),
	})
	assert.ErrorIs(t, err, ErrDuplicateEvent)

	// A segment row written behind the counter's back trips the sequence
	// constraint even though the conditional update matches.
	_, err = db.ExecContext(ctx, `
INSERT INTO conversation_segments (id, conversation_id, speaker, language, sequence, created_at)
VALUES ($1, $2, 'agent', 'en', 2, now())`, uuid.NewString(), conv.ID)
	require.NoError(t, err)

	err = s.AppendTurn(ctx, TurnWrite{
		ConversationID:       conv.ID,
		CallID:               conv.CallID,
		ExpectedLastSequence: 1,
		Segments:             []Segment{pgSegment(conv, 2, "speech:1")},
		At:                   time.Now().UTC(),
	})
	assert.ErrorIs(t, err, ErrSequenceConflict)

	got, err := s.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LastSequence, "failed turns roll back the counter")

	missing := uuid.NewString()
	err = s.AppendTurn(ctx, TurnWrite{
		ConversationID: missing,
		Segments:       []Segment{{ID: uuid.NewString(), ConversationID: missing, Sequence: 1}},
	})
	assert.ErrorIs(t, err, ErrNotFound)
}
