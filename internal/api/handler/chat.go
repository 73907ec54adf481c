package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/namvu/mentorchat/internal/api/response"
	"github.com/namvu/mentorchat/internal/domain"
	"github.com/namvu/mentorchat/internal/service"
)

var validate = validator.New()

// ChatHandler handles the chat turn endpoint
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type chatRequest struct {
	Message   string  `json:"message" validate:"required"`
	SessionID *string `json:"sessionId"`
}

type chatResponse struct {
	SessionID string `json:"sessionId"`
	Response  string `json:"response"`
}

// Send runs one chat turn. A null sessionId starts a new conversation;
// the response carries the id to use for subsequent turns.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		response.BadRequest(w, "Message is required")
		return
	}

	sessionID := ""
	if req.SessionID != nil {
		sessionID = *req.SessionID
	}

	result, err := h.chatService.HandleTurn(r.Context(), req.Message, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyMessage) {
			response.BadRequest(w, "Message is required")
			return
		}
		response.InternalError(w, "Failed to process message. Please try again.")
		return
	}

	response.OK(w, chatResponse{
		SessionID: result.SessionID,
		Response:  result.Response,
	})
}
