package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/namvu/mentorchat/internal/domain"
	"github.com/namvu/mentorchat/internal/llm"
	"github.com/rs/zerolog/log"
)

// SessionManager guarantees exactly one conversation record per session,
// seeded with the system preamble.
type SessionManager struct {
	repo domain.ConversationRepository
}

// NewSessionManager creates a new session manager
func NewSessionManager(repo domain.ConversationRepository) *SessionManager {
	return &SessionManager{repo: repo}
}

// GenerateID produces a session id by combining a time-derived component
// with a random one. Uniqueness holds with overwhelming probability;
// collisions are not actively detected.
func GenerateID() string {
	id := uuid.New()
	return strconv.FormatInt(time.Now().UnixMilli(), 36) + hex.EncodeToString(id[:8])
}

// ResolveOrCreate returns the conversation for the given session id,
// lazily creating it on first use. Repeated calls with the same id are
// idempotent: an existing record is returned unchanged, never reseeded.
func (m *SessionManager) ResolveOrCreate(ctx context.Context, sessionID string) (*domain.Conversation, error) {
	conv, err := m.repo.Get(ctx, sessionID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to look up conversation")
		return nil, fmt.Errorf("store unavailable: %w", err)
	}

	conv = &domain.Conversation{
		SessionID: sessionID,
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: llm.SystemPreamble},
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := m.repo.Create(ctx, conv); err != nil {
		// The caller must not assume a record exists after a failed create
		log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to create conversation")
		return nil, fmt.Errorf("store unavailable: %w", err)
	}

	log.Info().Str("session_id", sessionID).Msg("Created new conversation")
	return conv, nil
}
