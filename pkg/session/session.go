// Package session keeps per-browser state, the admin flag and pending flash messages, in a signed cookie.
// The cookie is an HS256 JWT: clients can read it but any change invalidates the whole session.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const CookieName = "session"

type contextKey struct{}

// Flash categories understood by templates.
const (
	Success = "success"
	Error   = "error"
)

type Flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

type claims struct {
	Admin   bool    `json:"adm,omitempty"`
	Flashes []Flash `json:"fl,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies session cookies.
type Manager struct {
	secret []byte
	secure bool
}

func NewManager(secret string, secure bool) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	return &Manager{secret: []byte(secret), secure: secure}, nil
}

// Session is the decoded cookie for a single request. It's not safe for concurrent use.
type Session struct {
	admin   bool
	flashes []Flash
	dirty   bool
	manager *Manager
}

// Load decodes the request's session; missing, expired or tampered cookies yield an empty session.
func (m *Manager) Load(request *http.Request) *Session {
	var session = &Session{manager: m}

	cookie, err := request.Cookie(CookieName)
	if err != nil {
		return session
	}

	var c claims
	token, err := jwt.ParseWithClaims(cookie.Value, &c, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		// forces the bad cookie to be replaced on the next save
		session.dirty = true
		return session
	}

	session.admin = c.Admin
	session.flashes = c.Flashes
	return session
}

// Middleware attaches the request's session to its context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, request *http.Request) {
		var session = m.Load(request)
		next.ServeHTTP(w, request.WithContext(context.WithValue(request.Context(), contextKey{}, session)))
	})
}

// FromRequest returns the session attached by Middleware, or a detached empty session that can't be saved.
func FromRequest(request *http.Request) *Session {
	if session, ok := request.Context().Value(contextKey{}).(*Session); ok {
		return session
	}
	return &Session{}
}

func (s *Session) IsAdmin() bool {
	return s.admin
}

func (s *Session) SetAdmin(admin bool) {
	if s.admin != admin {
		s.admin = admin
		s.dirty = true
	}
}

func (s *Session) AddFlash(category, message string) {
	s.flashes = append(s.flashes, Flash{Category: category, Message: message})
	s.dirty = true
}

// PopFlashes returns pending messages and removes them from the session.
func (s *Session) PopFlashes() []Flash {
	var flashes = s.flashes
	if len(flashes) > 0 {
		s.flashes = nil
		s.dirty = true
	}
	return flashes
}

// Save writes the cookie when the session changed. It must be called before the response status is written.
func (s *Session) Save(w http.ResponseWriter) error {
	if !s.dirty || s.manager == nil {
		return nil
	}

	var cookie = &http.Cookie{
		Name:     CookieName,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.manager.secure,
		SameSite: http.SameSiteLaxMode,
	}

	if !s.admin && len(s.flashes) == 0 {
		cookie.MaxAge = -1
		http.SetCookie(w, cookie)
		s.dirty = false
		return nil
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Admin:            s.admin,
		Flashes:          s.flashes,
		RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(time.Now())},
	})
	signed, err := token.SignedString(s.manager.secret)
	if err != nil {
		return err
	}

	cookie.Value = signed
	http.SetCookie(w, cookie)
	s.dirty = false
	return nil
}
