package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/namvu/mentorchat/internal/domain"
)

// ConversationRepository implements domain.ConversationRepository over the
// hosted conversations table. One row per session; the full message log is
// stored as a jsonb array.
type ConversationRepository struct {
	pool *pgxpool.Pool
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *DB) *ConversationRepository {
	return &ConversationRepository{pool: db.Pool}
}

func (r *ConversationRepository) Get(ctx context.Context, sessionID string) (*domain.Conversation, error) {
	query := `
		SELECT conversation_id, messages, created_at, updated_at, lead_analysis
		FROM conversations
		WHERE conversation_id = $1
	`
	var (
		c            domain.Conversation
		messagesJSON []byte
	)
	err := r.pool.QueryRow(ctx, query, sessionID).Scan(
		&c.SessionID,
		&messagesJSON,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.LeadAnalysis,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	if err := json.Unmarshal(messagesJSON, &c.Messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
	}
	return &c, nil
}

func (r *ConversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	query := `
		INSERT INTO conversations (conversation_id, messages, created_at)
		VALUES ($1, $2, $3)
	`
	messagesJSON, err := json.Marshal(conv.Messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, conv.SessionID, messagesJSON, conv.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

// ReplaceMessages overwrites the stored message list and touches updated_at.
// Last write wins when two callers race on the same session.
func (r *ConversationRepository) ReplaceMessages(ctx context.Context, sessionID string, messages []domain.Message, updatedAt time.Time) error {
	query := `
		UPDATE conversations
		SET messages = $1, updated_at = $2
		WHERE conversation_id = $3
	`
	messagesJSON, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, messagesJSON, updatedAt, sessionID)
	if err != nil {
		return fmt.Errorf("failed to update conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ConversationRepository) Delete(ctx context.Context, sessionID string) error {
	query := `DELETE FROM conversations WHERE conversation_id = $1`
	_, err := r.pool.Exec(ctx, query, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// ListAll returns every conversation, most recently touched first.
// Conversations never updated after creation sort last.
func (r *ConversationRepository) ListAll(ctx context.Context) ([]domain.Conversation, error) {
	query := `
		SELECT conversation_id, messages, created_at, updated_at, lead_analysis
		FROM conversations
		ORDER BY updated_at DESC NULLS LAST
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []domain.Conversation
	for rows.Next() {
		var (
			c            domain.Conversation
			messagesJSON []byte
		)
		if err := rows.Scan(
			&c.SessionID,
			&messagesJSON,
			&c.CreatedAt,
			&c.UpdatedAt,
			&c.LeadAnalysis,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		if err := json.Unmarshal(messagesJSON, &c.Messages); err != nil {
			return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
		}
		conversations = append(conversations, c)
	}
	return conversations, nil
}
