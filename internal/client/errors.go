package client

import "net/http"

// ErrorKind classifies a failed turn for display
type ErrorKind string

const (
	ErrorUnreachable ErrorKind = "unreachable"
	ErrorAuth        ErrorKind = "auth"
	ErrorServer      ErrorKind = "server"
	ErrorOther       ErrorKind = "other"
)

// TurnError is a classified turn failure
type TurnError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *TurnError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

func classifyStatus(status int, message string) *TurnError {
	kind := ErrorOther
	switch {
	case status == http.StatusUnauthorized:
		kind = ErrorAuth
	case status >= 500:
		kind = ErrorServer
	}
	if message == "" {
		message = "Failed to get response"
	}
	return &TurnError{Kind: kind, Status: status, Message: message}
}

// errorMessage renders a failed turn as a bot-style transcript entry
func errorMessage(err error) string {
	const prefix = "System Error: "

	te, ok := err.(*TurnError)
	if !ok {
		return prefix + err.Error() + ". Please check your connection and try again."
	}

	switch te.Kind {
	case ErrorUnreachable:
		return prefix + "Cannot connect to server. Please check your internet connection."
	case ErrorAuth:
		return prefix + "Authentication failed. Please check API configuration."
	case ErrorServer:
		return prefix + "Server error. Please try again later."
	default:
		return prefix + te.Error() + ". Please check your connection and try again."
	}
}
