package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatServer(t *testing.T, sessionID string, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		require.Equal(t, "/api/chat", r.URL.Path)

		var req struct {
			Message   string  `json:"message"`
			SessionID *string `json:"sessionId"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		json.NewEncoder(w).Encode(map[string]string{
			"sessionId": sessionID,
			"response":  "echo: " + req.Message,
		})
	}))
}

func TestChatClient_SeedsWelcomeGreeting(t *testing.T) {
	c := NewChatClient("http://localhost:1")

	transcript := c.Transcript()
	require.Len(t, transcript, 1)
	assert.Equal(t, EntryBot, transcript[0].Kind)
	assert.Equal(t, welcomeGreeting, transcript[0].Content)
	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, c.SessionID())
}

func TestChatClient_SendMessage_BindsSession(t *testing.T) {
	srv := newChatServer(t, "sess-1", nil)
	defer srv.Close()

	c := NewChatClient(srv.URL)
	err := c.SendMessage(context.Background(), "Hello")
	require.NoError(t, err)

	assert.Equal(t, "sess-1", c.SessionID())
	assert.Equal(t, StateIdle, c.State())

	transcript := c.Transcript()
	require.Len(t, transcript, 3)
	assert.Equal(t, Entry{Kind: EntryUser, Content: "Hello"}, transcript[1])
	assert.Equal(t, Entry{Kind: EntryBot, Content: "echo: Hello"}, transcript[2])
}

func TestChatClient_SendMessage_EmptyIsNoOp(t *testing.T) {
	var hits int32
	srv := newChatServer(t, "sess-1", &hits)
	defer srv.Close()

	c := NewChatClient(srv.URL)
	for _, text := range []string{"", "   ", "\n\t"} {
		require.NoError(t, c.SendMessage(context.Background(), text))
	}

	assert.Zero(t, atomic.LoadInt32(&hits))
	assert.Len(t, c.Transcript(), 1)
}

func TestChatClient_SendMessage_SingleFlight(t *testing.T) {
	var hits int32
	srv := newChatServer(t, "sess-1", &hits)
	defer srv.Close()

	c := NewChatClient(srv.URL)
	c.state = StateSending

	require.NoError(t, c.SendMessage(context.Background(), "queued while busy"))

	// No request was made and no bubble appended
	assert.Zero(t, atomic.LoadInt32(&hits))
	assert.Len(t, c.Transcript(), 1)
}

func TestChatClient_SendMessage_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "Failed to process message. Please try again."})
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL)
	err := c.SendMessage(context.Background(), "Hello")
	require.Error(t, err)

	var te *TurnError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ErrorServer, te.Kind)
	assert.Equal(t, http.StatusInternalServerError, te.Status)

	// User bubble stays; failure renders as a bot bubble
	transcript := c.Transcript()
	require.Len(t, transcript, 3)
	assert.Equal(t, Entry{Kind: EntryUser, Content: "Hello"}, transcript[1])
	assert.Equal(t, EntryBot, transcript[2].Kind)
	assert.Equal(t, "System Error: Server error. Please try again later.", transcript[2].Content)

	// The failed turn does not bind a session and the client recovers
	assert.Empty(t, c.SessionID())
	assert.Equal(t, StateIdle, c.State())
}

func TestChatClient_SendMessage_AuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL)
	err := c.SendMessage(context.Background(), "Hello")
	require.Error(t, err)

	var te *TurnError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ErrorAuth, te.Kind)

	transcript := c.Transcript()
	assert.Equal(t, "System Error: Authentication failed. Please check API configuration.", transcript[len(transcript)-1].Content)
}

func TestChatClient_SendMessage_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	c := NewChatClient(srv.URL)
	err := c.SendMessage(context.Background(), "Hello")
	require.Error(t, err)

	var te *TurnError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ErrorUnreachable, te.Kind)

	transcript := c.Transcript()
	assert.Equal(t, "System Error: Cannot connect to server. Please check your internet connection.", transcript[len(transcript)-1].Content)
	assert.Equal(t, StateIdle, c.State())
}

func TestChatClient_SendMessage_TurnTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]string{"sessionId": "late", "response": "too late"})
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL, WithTurnTimeout(50*time.Millisecond))
	err := c.SendMessage(context.Background(), "Hello")
	require.Error(t, err)

	var te *TurnError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ErrorUnreachable, te.Kind)
	assert.Equal(t, StateIdle, c.State())
}

func TestChatClient_SendMessage_SessionMismatch(t *testing.T) {
	srv := newChatServer(t, "other-session", nil)
	defer srv.Close()

	c := NewChatClient(srv.URL)
	c.sessionID = "bound-session"

	err := c.SendMessage(context.Background(), "Hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSessionMismatch))

	// The bound id is kept and the failure is surfaced in the transcript
	assert.Equal(t, "bound-session", c.SessionID())
	transcript := c.Transcript()
	assert.Contains(t, transcript[len(transcript)-1].Content, "System Error: ")
}

func TestChatClient_SendMessage_ReusesBoundSession(t *testing.T) {
	var gotSessionID *string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SessionID *string `json:"sessionId"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotSessionID = req.SessionID
		json.NewEncoder(w).Encode(map[string]string{"sessionId": "sess-1", "response": "ok"})
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL)

	require.NoError(t, c.SendMessage(context.Background(), "first"))
	assert.Nil(t, gotSessionID)

	require.NoError(t, c.SendMessage(context.Background(), "second"))
	require.NotNil(t, gotSessionID)
	assert.Equal(t, "sess-1", *gotSessionID)
}

func TestChatClient_StartNewChat(t *testing.T) {
	srv := newChatServer(t, "sess-1", nil)
	defer srv.Close()

	c := NewChatClient(srv.URL)
	require.NoError(t, c.SendMessage(context.Background(), "Hello"))
	require.Equal(t, "sess-1", c.SessionID())

	c.StartNewChat()

	assert.Empty(t, c.SessionID())
	transcript := c.Transcript()
	require.Len(t, transcript, 1)
	assert.Equal(t, welcomeGreeting, transcript[0].Content)
}

func TestChatClient_TranscriptIsACopy(t *testing.T) {
	c := NewChatClient("http://localhost:1")

	transcript := c.Transcript()
	transcript[0].Content = "tampered"

	assert.Equal(t, welcomeGreeting, c.Transcript()[0].Content)
}
