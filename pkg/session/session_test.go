package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	manager, err := NewManager("test-secret", false)
	require.NoError(t, err)
	return manager
}

// roundTrip saves the session and returns a new request carrying the resulting cookies.
func roundTrip(t *testing.T, s *Session) *http.Request {
	t.Helper()
	recorder := httptest.NewRecorder()
	require.NoError(t, s.Save(recorder))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.MaxAge >= 0 {
			request.AddCookie(cookie)
		}
	}
	return request
}

func TestNewManagerRequiresSecret(t *testing.T) {
	_, err := NewManager("", false)
	assert.Error(t, err)
}

func TestAdminFlagPersists(t *testing.T) {
	manager := newManager(t)

	s := manager.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, s.IsAdmin())
	s.SetAdmin(true)

	restored := manager.Load(roundTrip(t, s))
	assert.True(t, restored.IsAdmin())

	restored.SetAdmin(false)
	assert.False(t, manager.Load(roundTrip(t, restored)).IsAdmin())
}

func TestFlashesArePoppedOnce(t *testing.T) {
	manager := newManager(t)

	s := manager.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	s.AddFlash(Error, "Title and poem content are required.")
	s.AddFlash(Success, "ok")

	restored := manager.Load(roundTrip(t, s))
	assert.Equal(t, []Flash{{Error, "Title and poem content are required."}, {Success, "ok"}}, restored.PopFlashes())
	assert.Empty(t, restored.PopFlashes())

	assert.Empty(t, manager.Load(roundTrip(t, restored)).PopFlashes())
}

func TestTamperedCookieIsIgnored(t *testing.T) {
	manager := newManager(t)
	other, err := NewManager("another-secret", false)
	require.NoError(t, err)

	s := other.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	s.SetAdmin(true)

	restored := manager.Load(roundTrip(t, s))
	assert.False(t, restored.IsAdmin())

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})
	assert.False(t, manager.Load(request).IsAdmin())
}

func TestUnchangedSessionWritesNoCookie(t *testing.T) {
	manager := newManager(t)
	s := manager.Load(httptest.NewRequest(http.MethodGet, "/", nil))

	recorder := httptest.NewRecorder()
	require.NoError(t, s.Save(recorder))
	assert.Empty(t, recorder.Result().Cookies())
}

func TestMiddlewareAttachesSession(t *testing.T) {
	manager := newManager(t)

	var seen *Session
	handler := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromRequest(r)
		seen.SetAdmin(true)
		_ = seen.Save(w)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, seen)
	assert.True(t, seen.IsAdmin())
	assert.Len(t, recorder.Result().Cookies(), 1)

	// a detached session is harmless
	detached := FromRequest(httptest.NewRequest(http.MethodGet, "/", nil))
	detached.SetAdmin(true)
	assert.NoError(t, detached.Save(httptest.NewRecorder()))
}
