package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/namvu/mentorchat/internal/domain"
	"github.com/namvu/mentorchat/internal/llm"
	"github.com/rs/zerolog/log"
)

const previewMaxLen = 60

// ConversationCache is the read cache in front of the store. Implementations
// must treat misses as (nil, nil). The service invalidates on every mutation.
type ConversationCache interface {
	Get(ctx context.Context, sessionID string) (*domain.Conversation, error)
	Set(ctx context.Context, conv *domain.Conversation) error
	Invalidate(ctx context.Context, sessionID string) error
}

// TurnResult is the outcome of one chat turn
type TurnResult struct {
	SessionID string
	Response  string
}

// ChatService orchestrates chat turns and conversation reads
type ChatService struct {
	repo      domain.ConversationRepository
	sessions  *SessionManager
	llmRouter *llm.Router
	cache     ConversationCache
}

// NewChatService creates a new chat service. cache may be nil.
func NewChatService(repo domain.ConversationRepository, sessions *SessionManager, llmRouter *llm.Router, cache ConversationCache) *ChatService {
	return &ChatService{
		repo:      repo,
		sessions:  sessions,
		llmRouter: llmRouter,
		cache:     cache,
	}
}

// HandleTurn runs one turn: resolve (or lazily create) the conversation,
// append the user message, obtain the assistant reply, and write the full
// message list back. The write is read-modify-write with no version guard:
// two concurrent turns on the same session are last-write-wins, and the
// loser's append is silently dropped.
func (s *ChatService) HandleTurn(ctx context.Context, message, sessionID string) (*TurnResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domain.ErrEmptyMessage
	}

	if sessionID == "" {
		sessionID = GenerateID()
	}

	conv, err := s.sessions.ResolveOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	userMsg := domain.Message{Role: domain.RoleUser, Content: message, Timestamp: &now}
	messages := append(conv.Messages, userMsg)

	provider, err := s.llmRouter.GetProvider("")
	if err != nil {
		return nil, fmt.Errorf("no chat backend available: %w", err)
	}

	reply, err := provider.Chat(ctx, toChatMessages(messages), "")
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Str("provider", provider.Name()).Msg("Chat backend failed")
		return nil, fmt.Errorf("chat backend failed: %w", err)
	}

	replyAt := time.Now().UTC()
	messages = append(messages, domain.Message{
		Role:      domain.RoleAssistant,
		Content:   reply.Content,
		Timestamp: &replyAt,
	})

	if err := s.repo.ReplaceMessages(ctx, sessionID, messages, replyAt); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to persist turn")
		return nil, fmt.Errorf("store unavailable: %w", err)
	}
	s.invalidate(ctx, sessionID)

	log.Info().
		Str("session_id", sessionID).
		Str("provider", provider.Name()).
		Str("model", reply.Model).
		Int("tokens", reply.TokensUsed).
		Int64("latency_ms", reply.LatencyMs).
		Msg("Turn completed")

	return &TurnResult{SessionID: sessionID, Response: reply.Content}, nil
}

// GetConversation returns the full conversation for a session
func (s *ChatService) GetConversation(ctx context.Context, sessionID string) (*domain.Conversation, error) {
	if s.cache != nil {
		if conv, err := s.cache.Get(ctx, sessionID); err == nil && conv != nil {
			return conv, nil
		}
	}

	conv, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, conv); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to cache conversation")
		}
	}
	return conv, nil
}

// ListSessions returns summaries of all conversations, most recently
// touched first. The sort key is updatedAt, falling back to createdAt;
// ties preserve store order.
func (s *ChatService) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
	conversations, err := s.repo.ListAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list conversations")
		return nil, fmt.Errorf("store unavailable: %w", err)
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].EffectiveTime().After(conversations[j].EffectiveTime())
	})

	summaries := make([]domain.SessionSummary, 0, len(conversations))
	for i := range conversations {
		summaries = append(summaries, summarize(&conversations[i]))
	}
	return summaries, nil
}

// DeleteConversation removes a conversation record. Administrative only;
// the chat UI never calls this.
func (s *ChatService) DeleteConversation(ctx context.Context, sessionID string) error {
	if err := s.repo.Delete(ctx, sessionID); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to delete conversation")
		return fmt.Errorf("store unavailable: %w", err)
	}
	s.invalidate(ctx, sessionID)
	return nil
}

func (s *ChatService) invalidate(ctx context.Context, sessionID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, sessionID); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to invalidate cache")
	}
}

func summarize(c *domain.Conversation) domain.SessionSummary {
	transcript := c.Transcript()

	preview := "No messages yet"
	for _, m := range transcript {
		if m.Role == domain.RoleUser {
			preview = m.Content
			if len(preview) > previewMaxLen {
				preview = preview[:previewMaxLen] + "..."
			}
			break
		}
	}

	return domain.SessionSummary{
		SessionID:    c.SessionID,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		MessageCount: len(transcript),
		Preview:      preview,
	}
}

func toChatMessages(messages []domain.Message) []llm.ChatMessage {
	out := make([]llm.ChatMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, llm.ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}
