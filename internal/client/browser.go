package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/namvu/mentorchat/internal/domain"
)

// ConversationBrowser is the read-only controller: it lists known
// sessions and fetches full transcripts for display.
type ConversationBrowser struct {
	baseURL    string
	httpClient *http.Client

	// Limit caps the listing after sorting; 0 means no cap
	Limit int
}

// NewConversationBrowser creates a browser bound to a server.
// httpClient may be nil.
func NewConversationBrowser(baseURL string, httpClient *http.Client) *ConversationBrowser {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &ConversationBrowser{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type sessionsResponse struct {
	Sessions []domain.SessionSummary `json:"sessions"`
	Error    string                  `json:"error"`
}

// ListSessions returns known sessions, most recently touched first.
// The sort key is updatedAt falling back to createdAt; ties preserve the
// server's order.
func (b *ConversationBrowser) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", b.baseURL+"/api/sessions", nil)
	if err != nil {
		return nil, err
	}

	httpResp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversations: %w", err)
	}
	defer httpResp.Body.Close()

	var resp sessionsResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to load conversations: %s", resp.Error)
	}

	sessions := resp.Sessions
	sort.SliceStable(sessions, func(i, j int) bool {
		return effectiveTime(sessions[i]).After(effectiveTime(sessions[j]))
	})

	if b.Limit > 0 && len(sessions) > b.Limit {
		sessions = sessions[:b.Limit]
	}
	return sessions, nil
}

func effectiveTime(s domain.SessionSummary) time.Time {
	if s.UpdatedAt != nil {
		return *s.UpdatedAt
	}
	return s.CreatedAt
}

// Transcript is a conversation prepared for display
type Transcript struct {
	SessionID string
	CreatedAt time.Time
	Messages  []domain.Message
}

// Empty reports whether the filtered transcript has nothing to show,
// which renders as a distinct "no messages" state
func (t *Transcript) Empty() bool {
	return len(t.Messages) == 0
}

type conversationResponse struct {
	SessionID string           `json:"sessionId"`
	Messages  []domain.Message `json:"messages"`
	CreatedAt time.Time        `json:"createdAt"`
	Error     string           `json:"error"`
}

// LoadTranscript fetches a conversation for display. System messages are
// filtered out; an unknown session id yields domain.ErrNotFound, which
// callers surface as an error state rather than a crash.
func (b *ConversationBrowser) LoadTranscript(ctx context.Context, sessionID string) (*Transcript, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", b.baseURL+"/api/conversation/"+sessionID, nil)
	if err != nil {
		return nil, err
	}

	httpResp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	defer httpResp.Body.Close()

	var resp conversationResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode conversation: %w", err)
	}

	if httpResp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to load conversation: %s", resp.Error)
	}

	conv := domain.Conversation{Messages: resp.Messages}
	return &Transcript{
		SessionID: resp.SessionID,
		CreatedAt: resp.CreatedAt,
		Messages:  conv.Transcript(),
	}, nil
}

// DisplayTime is the timestamp shown for a message: its own when present,
// otherwise now. Display-only; stored data is never mutated.
func DisplayTime(m domain.Message) time.Time {
	if m.Timestamp != nil {
		return *m.Timestamp
	}
	return time.Now()
}
