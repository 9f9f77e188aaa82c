package identity

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

// DefaultPageURL is the authenticated page scraped for session data.
const DefaultPageURL = "https://www.roblox.com/home"

// PageProvider extracts the session from an authenticated platform page.
// Signed-in pages carry a meta[name="user-data"] tag with the user's id and
// names, and a meta[name="csrf-token"] tag with the anti-forgery token.
type PageProvider struct {
	httpClient *http.Client
	pageURL    string
	cookie     string
	logger     zerolog.Logger
}

// NewPageProvider creates a provider that scrapes pageURL using the given
// session cookie. An empty pageURL uses DefaultPageURL.
func NewPageProvider(httpClient *http.Client, pageURL, cookie string) *PageProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if pageURL == "" {
		pageURL = DefaultPageURL
	}
	return &PageProvider{
		httpClient: httpClient,
		pageURL:    pageURL,
		cookie:     cookie,
		logger:     log.With().Str("component", "identity").Logger(),
	}
}

// Resolve implements Provider. Returns ErrNotRoblox when the configured page
// is not on a platform host and ErrNotLoggedIn when the page carries no user.
func (p *PageProvider) Resolve(ctx context.Context) (*Session, error) {
	u, err := url.Parse(p.pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	if !strings.Contains(u.Hostname(), "roblox.com") && u.Hostname() != "127.0.0.1" && u.Hostname() != "localhost" {
		return nil, ErrNotRoblox
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if p.cookie != "" {
		req.AddCookie(&http.Cookie{Name: ".ROBLOSECURITY", Value: p.cookie})
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch page: unexpected status %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	session := sessionFromDocument(doc)
	if session.UserID == "" {
		return nil, ErrNotLoggedIn
	}

	p.logger.Debug().
		Str("user_id", session.UserID).
		Bool("has_csrf", session.CSRFToken != "").
		Msg("Session resolved from page")
	return session, nil
}

// sessionFromDocument walks the parsed document for the user-data and
// csrf-token meta tags.
func sessionFromDocument(doc *html.Node) *Session {
	session := &Session{}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			switch attr(n, "name") {
			case "user-data":
				session.UserID = attr(n, "data-userid")
				session.Username = attr(n, "data-name")
				session.DisplayName = attr(n, "data-displayname")
			case "csrf-token":
				session.CSRFToken = attr(n, "data-token")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return session
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
