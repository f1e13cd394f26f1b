package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/silktrader/kavita/pkg/pages"
	"github.com/silktrader/kavita/pkg/session"
)

// AdminGate compares submitted passwords with the single shared secret. Comparison is plaintext, by contract;
// only its timing is constant.
type AdminGate struct {
	password []byte
}

func NewAdminGate(password string) (*AdminGate, error) {
	if password == "" {
		return nil, errors.New("admin password is required")
	}
	return &AdminGate{password: []byte(password)}, nil
}

func (g *AdminGate) Check(password string) bool {
	return subtle.ConstantTimeCompare([]byte(password), g.password) == 1
}

// IsAdmin reports whether the request's session carries the admin flag.
func IsAdmin(request *http.Request) bool {
	return session.FromRequest(request).IsAdmin()
}

// RequireAdmin redirects non admins to the login page, remembering the requested path.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, request *http.Request) {
		if IsAdmin(request) {
			next.ServeHTTP(w, request)
			return
		}
		pages.RedirectWithFlash(w, request, LoginPath(request.URL.Path),
			session.Error, "Only the administrator can add or delete poems.")
	})
}

// LoginPath builds the login URL which, once authenticated, leads back to next.
func LoginPath(next string) string {
	if next == "" || next == "/" {
		return "/admin/login"
	}
	return "/admin/login?next=" + url.QueryEscape(next)
}

// SafeNext only accepts local absolute paths, so that the login form can't be turned into an open redirect.
func SafeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return "/"
	}
	return next
}
