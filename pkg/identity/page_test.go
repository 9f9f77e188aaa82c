package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const signedInPage = `<!DOCTYPE html>
<html>
<head>
	<meta name="user-data" data-userid="12345" data-name="builder" data-displayname="Builder" />
	<meta name="csrf-token" data-token="token-abc" />
</head>
<body></body>
</html>`

const signedOutPage = `<!DOCTYPE html>
<html>
<head>
	<meta name="csrf-token" data-token="token-abc" />
</head>
<body></body>
</html>`

func newPageServer(t *testing.T, page string, wantCookie string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wantCookie != "" {
			cookie, err := r.Cookie(".ROBLOSECURITY")
			if err != nil || cookie.Value != wantCookie {
				t.Errorf("session cookie not sent with page request")
			}
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestPageProvider_Resolve(t *testing.T) {
	server := newPageServer(t, signedInPage, "secret")

	provider := NewPageProvider(server.Client(), server.URL, "secret")
	session, err := provider.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if session.UserID != "12345" {
		t.Errorf("UserID = %q, want 12345", session.UserID)
	}
	if session.Username != "builder" {
		t.Errorf("Username = %q, want builder", session.Username)
	}
	if session.DisplayName != "Builder" {
		t.Errorf("DisplayName = %q, want Builder", session.DisplayName)
	}
	if session.CSRFToken != "token-abc" {
		t.Errorf("CSRFToken = %q, want token-abc", session.CSRFToken)
	}
}

func TestPageProvider_NotLoggedIn(t *testing.T) {
	server := newPageServer(t, signedOutPage, "")

	provider := NewPageProvider(server.Client(), server.URL, "")
	_, err := provider.Resolve(context.Background())
	if !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("Resolve() error = %v, want ErrNotLoggedIn", err)
	}
}

func TestPageProvider_NotRoblox(t *testing.T) {
	provider := NewPageProvider(nil, "https://example.com/home", "")
	_, err := provider.Resolve(context.Background())
	if !errors.Is(err, ErrNotRoblox) {
		t.Errorf("Resolve() error = %v, want ErrNotRoblox", err)
	}
}

func TestSession_Name(t *testing.T) {
	tests := []struct {
		name    string
		session Session
		want    string
	}{
		{
			name:    "display name preferred",
			session: Session{Username: "builder", DisplayName: "Builder"},
			want:    "Builder",
		},
		{
			name:    "falls back to username",
			session: Session{Username: "builder"},
			want:    "builder",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.session.Name(); got != tt.want {
				t.Errorf("Name() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStaticProvider(t *testing.T) {
	provider := &StaticProvider{Session: Session{UserID: "12345", CSRFToken: "token-abc"}}
	session, err := provider.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if session.UserID != "12345" {
		t.Errorf("UserID = %q, want 12345", session.UserID)
	}

	empty := &StaticProvider{}
	if _, err := empty.Resolve(context.Background()); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("empty provider error = %v, want ErrNotLoggedIn", err)
	}
}
