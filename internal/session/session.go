package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wonny/screener/backend/pkg/httputil"
	"github.com/wonny/screener/backend/pkg/logger"
)

// ErrNoSession is returned when an operation needs a logged-in user
var ErrNoSession = errors.New("not logged in")

// Session is the identity carried by an access token.
// The token is decoded, never verified: the issuing service checks it on every request.
type Session struct {
	Token     string    `json:"-"`
	TokenType string    `json:"token_type"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	UserID    int       `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the token has an expiry before now
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

type tokenClaims struct {
	Role   string `json:"role"`
	UserID int    `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// Decode reads the claims of an access token without checking its signature
func Decode(token string) (Session, error) {
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Session{}, fmt.Errorf("failed to decode token: %w", err)
	}
	if claims.Subject == "" {
		return Session{}, errors.New("token has no subject")
	}

	s := Session{
		Token:     token,
		TokenType: "bearer",
		Username:  claims.Subject,
		Role:      claims.Role,
		UserID:    claims.UserID,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// Manager holds the current session. Only Login, Restore and Logout write it.
type Manager struct {
	httpClient *httputil.Client
	baseURL    string
	logger     *logger.Logger
	now        func() time.Time

	mu      sync.RWMutex
	current *Session
}

// NewManager creates a manager talking to the auth service at baseURL
func NewManager(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Manager {
	return &Manager{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     log.WithComponent("session"),
		now:        time.Now,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type userResponse struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Login exchanges credentials for a token and makes it the current session
func (m *Manager) Login(ctx context.Context, username, password string) (Session, error) {
	var resp loginResponse
	err := m.httpClient.PostJSONInto(ctx, m.baseURL+"/auth/login", loginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return Session{}, fmt.Errorf("login failed: %w", err)
	}
	if resp.AccessToken == "" {
		return Session{}, errors.New("login failed: empty access token")
	}

	s, err := Decode(resp.AccessToken)
	if err != nil {
		return Session{}, err
	}
	if resp.TokenType != "" {
		s.TokenType = resp.TokenType
	}

	return m.activate(ctx, s), nil
}

// Restore makes an existing token the current session
func (m *Manager) Restore(ctx context.Context, token string) (Session, error) {
	s, err := Decode(token)
	if err != nil {
		return Session{}, err
	}
	if s.Expired(m.now()) {
		return Session{}, fmt.Errorf("token expired at %s", s.ExpiresAt.Format(time.RFC3339))
	}
	return m.activate(ctx, s), nil
}

// activate resolves the numeric user id when the token lacks one, then stores the session
func (m *Manager) activate(ctx context.Context, s Session) Session {
	if s.UserID == 0 {
		var user userResponse
		err := m.httpClient.GetJSON(ctx, m.baseURL+"/auth/users/"+s.Username, &user)
		if err != nil {
			m.logger.WithError(err).WithField("username", s.Username).Warn("Could not resolve user id")
		} else {
			s.UserID = user.UserID
		}
	}

	m.mu.Lock()
	m.current = &s
	m.mu.Unlock()

	m.logger.WithFields(map[string]interface{}{
		"username": s.Username,
		"role":     s.Role,
		"user_id":  s.UserID,
	}).Info("Session started")
	return s
}

// Logout clears the current session
func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
}

// Current returns the session if one exists and has not expired
func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.current == nil || m.current.Expired(m.now()) {
		return Session{}, false
	}
	return *m.current, true
}

// Authorize sets the bearer header when a session is active
func (m *Manager) Authorize(req *http.Request) {
	s, ok := m.Current()
	if !ok {
		return
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)
}
