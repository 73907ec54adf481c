package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// State is the turn controller's lifecycle state
type State int

const (
	StateIdle State = iota
	StateSending
)

// EntryKind distinguishes transcript bubbles
type EntryKind string

const (
	EntryUser EntryKind = "user"
	EntryBot  EntryKind = "bot"
)

// Entry is one visible transcript bubble
type Entry struct {
	Kind    EntryKind
	Content string
}

// ErrSessionMismatch is returned when the server answers an established
// session with a different session id
var ErrSessionMismatch = errors.New("server returned a different session id")

const welcomeGreeting = "Welcome you to the system. I'm Nam's Assistant. How may I be of service today?"

// ChatClient is the turn controller: it binds a session to the chat
// endpoint, keeps the visible transcript, and allows at most one
// in-flight turn. The guard is cooperative, not atomic: a ChatClient is
// meant for single-threaded, event-driven use and is not safe for
// concurrent calls.
type ChatClient struct {
	baseURL     string
	httpClient  *http.Client
	turnTimeout time.Duration

	state      State
	sessionID  string
	transcript []Entry
}

// Option configures a ChatClient
type Option func(*ChatClient)

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(cc *ChatClient) { cc.httpClient = c }
}

// WithTurnTimeout bounds each turn's round trip. A turn that exceeds it
// fails with a network-classified error instead of hanging in Sending.
func WithTurnTimeout(d time.Duration) Option {
	return func(cc *ChatClient) { cc.turnTimeout = d }
}

// NewChatClient creates a chat client bound to a server and seeds the
// welcome greeting
func NewChatClient(baseURL string, opts ...Option) *ChatClient {
	c := &ChatClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{},
		turnTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.transcript = []Entry{{Kind: EntryBot, Content: welcomeGreeting}}
	return c
}

type chatRequest struct {
	Message   string  `json:"message"`
	SessionID *string `json:"sessionId"`
}

type chatResponse struct {
	SessionID string `json:"sessionId"`
	Response  string `json:"response"`
	Error     string `json:"error"`
}

// SendMessage runs one turn. It is a no-op when the text is empty after
// trimming or when a turn is already in flight. The user's message is
// appended to the transcript before the round trip and stays visible
// even if the turn fails.
func (c *ChatClient) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" || c.state == StateSending {
		return nil
	}

	c.transcript = append(c.transcript, Entry{Kind: EntryUser, Content: text})
	c.state = StateSending
	defer func() { c.state = StateIdle }()

	resp, err := c.postChat(ctx, text)
	if err != nil {
		c.transcript = append(c.transcript, Entry{Kind: EntryBot, Content: errorMessage(err)})
		return err
	}

	// First turn binds the returned id; later turns must keep it
	if c.sessionID != "" && resp.SessionID != c.sessionID {
		err := fmt.Errorf("%w: had %s, got %s", ErrSessionMismatch, c.sessionID, resp.SessionID)
		c.transcript = append(c.transcript, Entry{Kind: EntryBot, Content: errorMessage(err)})
		return err
	}
	c.sessionID = resp.SessionID

	c.transcript = append(c.transcript, Entry{Kind: EntryBot, Content: resp.Response})
	return nil
}

func (c *ChatClient) postChat(ctx context.Context, text string) (*chatResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.turnTimeout)
	defer cancel()

	var sessionID *string
	if c.sessionID != "" {
		sessionID = &c.sessionID
	}

	body, err := json.Marshal(chatRequest{Message: text, SessionID: sessionID})
	if err != nil {
		return nil, &TurnError{Kind: ErrorOther, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, &TurnError{Kind: ErrorOther, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TurnError{Kind: ErrorUnreachable, Err: err}
	}
	defer httpResp.Body.Close()

	var resp chatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, &TurnError{Kind: ErrorOther, Err: err}
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, classifyStatus(httpResp.StatusCode, resp.Error)
	}
	return &resp, nil
}

// StartNewChat detaches from the current session and resets the visible
// transcript. Purely local; the server-side record is untouched.
func (c *ChatClient) StartNewChat() {
	c.sessionID = ""
	c.transcript = []Entry{{Kind: EntryBot, Content: welcomeGreeting}}
}

// SessionID returns the bound session id, empty until the first
// successful turn
func (c *ChatClient) SessionID() string {
	return c.sessionID
}

// State returns the controller state
func (c *ChatClient) State() State {
	return c.state
}

// Pending reports whether a turn is in flight
func (c *ChatClient) Pending() bool {
	return c.state == StateSending
}

// Transcript returns a copy of the visible transcript
func (c *ChatClient) Transcript() []Entry {
	out := make([]Entry, len(c.transcript))
	copy(out, c.transcript)
	return out
}
