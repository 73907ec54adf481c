package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/namvu/mentorchat/internal/api/response"
	"github.com/namvu/mentorchat/internal/domain"
	"github.com/namvu/mentorchat/internal/service"
)

// ConversationHandler handles transcript reads and session listing
type ConversationHandler struct {
	chatService *service.ChatService
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(chatService *service.ChatService) *ConversationHandler {
	return &ConversationHandler{chatService: chatService}
}

type conversationResponse struct {
	SessionID string           `json:"sessionId"`
	Messages  []domain.Message `json:"messages"`
	CreatedAt time.Time        `json:"createdAt"`
}

type sessionsResponse struct {
	Sessions []domain.SessionSummary `json:"sessions"`
}

// Get returns the full message log for a session
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		response.BadRequest(w, "Session ID is required")
		return
	}

	conv, err := h.chatService.GetConversation(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(w, "Conversation not found")
			return
		}
		response.InternalError(w, "Failed to load conversation")
		return
	}

	response.OK(w, conversationResponse{
		SessionID: conv.SessionID,
		Messages:  conv.Messages,
		CreatedAt: conv.CreatedAt,
	})
}

// List returns summaries of all known sessions, most recent first
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.chatService.ListSessions(r.Context())
	if err != nil {
		response.InternalError(w, "Failed to load conversations")
		return
	}
	if summaries == nil {
		summaries = []domain.SessionSummary{}
	}

	response.OK(w, sessionsResponse{Sessions: summaries})
}

// Delete removes a conversation record. Administrative; never called by
// the chat UI.
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		response.BadRequest(w, "Session ID is required")
		return
	}

	if err := h.chatService.DeleteConversation(r.Context(), sessionID); err != nil {
		response.InternalError(w, "Failed to delete conversation")
		return
	}

	response.OK(w, map[string]string{"message": "Conversation deleted"})
}
