// Package identity resolves the signed-in user's session (user id, display
// name, anti-forgery token) that every workflow requires up front.
package identity

import (
	"context"
	"errors"
)

// Sentinel errors for terminal precondition states.
var (
	// ErrNotLoggedIn indicates the page carries no signed-in user.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrNotRoblox indicates the configured page is not a platform page.
	ErrNotRoblox = errors.New("not a roblox page")
)

// Session is the signed-in user's identity plus the anti-forgery token for
// mutating requests. It is resolved once and immutable for its lifetime.
type Session struct {
	UserID      string
	Username    string
	DisplayName string
	CSRFToken   string
}

// Name returns the preferred display string for the user.
func (s *Session) Name() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Username
}

// Provider supplies the session. Implementations: PageProvider scrapes an
// authenticated platform page; StaticProvider returns configured values.
type Provider interface {
	Resolve(ctx context.Context) (*Session, error)
}

// StaticProvider returns a pre-built session, typically from configuration.
type StaticProvider struct {
	Session Session
}

// Resolve implements Provider.
func (p *StaticProvider) Resolve(ctx context.Context) (*Session, error) {
	if p.Session.UserID == "" {
		return nil, ErrNotLoggedIn
	}
	s := p.Session
	return &s, nil
}
