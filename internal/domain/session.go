package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type SessionMode string

const (
	SessionModeSetup SessionMode = "setup"
)

// Session is a hosted setup flow correlated with a processor checkout session.
type Session struct {
	ID         int64
	Identifier string
	UserID     int64
	Mode       SessionMode
	SuccessURL string
	CancelURL  string
	Completed  bool
	// Data is the processor session captured at creation. It is never refreshed.
	Data      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewSession(
	identifier string,
	userID int64,
	mode SessionMode,
	successURL string,
	cancelURL string,
	data json.RawMessage,
) (*Session, error) {
	if identifier == "" {
		return nil, errors.New("session identifier is required")
	}
	if userID == 0 {
		return nil, errors.New("session user is required")
	}
	if mode != SessionModeSetup {
		return nil, NewValidationError("mode", fmt.Sprintf("unsupported mode %q", mode))
	}

	now := time.Now()
	return &Session{
		Identifier: identifier,
		UserID:     userID,
		Mode:       mode,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
		Data:       data,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Complete flips the session to completed. It succeeds only once.
func (s *Session) Complete() error {
	if s.Completed {
		return &DomainError{
			Code:    ErrCodeInvalidTransition,
			Message: fmt.Sprintf("session %s already completed", s.Identifier),
			Err:     ErrInvalidTransition,
		}
	}
	s.Completed = true
	s.UpdatedAt = time.Now()
	return nil
}
