package pages

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/silktrader/kavita/pkg/ntime"
	"github.com/silktrader/kavita/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionRequest(t *testing.T, method, target string) (*session.Manager, *http.Request) {
	t.Helper()
	manager, err := session.NewManager("pages-secret", false)
	require.NoError(t, err)

	var request *http.Request
	manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		request = r
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, target, nil))
	return manager, request
}

func TestNewParsesEveryPage(t *testing.T) {
	renderer, err := New()
	require.NoError(t, err)
	for _, page := range []string{Index, Poem, Subscribe, AddPoem, AdminLogin, NotFound, Error} {
		assert.Contains(t, renderer.templates, page)
	}
	assert.NotContains(t, renderer.templates, "layout")
}

func TestRenderConsumesFlashes(t *testing.T) {
	renderer, err := New()
	require.NoError(t, err)
	manager, request := sessionRequest(t, http.MethodGet, "/subscribe")

	Flash(request, session.Error, "Please enter your email to subscribe.")

	recorder := httptest.NewRecorder()
	renderer.Ok(recorder, request, Subscribe, nil)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "text/html; charset=utf-8", recorder.Header().Get("Content-Type"))
	assert.Contains(t, recorder.Body.String(), "Please enter your email to subscribe.")
	assert.Contains(t, recorder.Body.String(), `action="/subscribe"`)

	// the flash was consumed and the emptied session cookie cleared
	next := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.MaxAge >= 0 {
			next.AddCookie(cookie)
		}
	}
	assert.Empty(t, manager.Load(next).PopFlashes())
}

func TestRenderLoginKeepsDestination(t *testing.T) {
	renderer, err := New()
	require.NoError(t, err)
	_, request := sessionRequest(t, http.MethodGet, "/admin/login?next=/add-poem")

	recorder := httptest.NewRecorder()
	renderer.Ok(recorder, request, AdminLogin, struct{ Next string }{"/add-poem"})
	assert.Contains(t, recorder.Body.String(), `action="/admin/login?next=%2fadd-poem"`)
}

func TestNotFoundAndErrorPages(t *testing.T) {
	renderer, err := New()
	require.NoError(t, err)
	_, request := sessionRequest(t, http.MethodGet, "/poem/404")

	recorder := httptest.NewRecorder()
	renderer.NotFoundHandler().ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	recorder = httptest.NewRecorder()
	renderer.InternalServerError(recorder, request, errors.New("disk on fire"))
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.NotContains(t, recorder.Body.String(), "disk on fire")
}

func TestRedirectKeepsFlashes(t *testing.T) {
	manager, request := sessionRequest(t, http.MethodPost, "/add-poem")

	recorder := httptest.NewRecorder()
	RedirectWithFlash(recorder, request, "/add-poem", session.Error, "Title and poem content are required.")
	assert.Equal(t, http.StatusFound, recorder.Code)
	assert.Equal(t, "/add-poem", recorder.Header().Get("Location"))

	next := httptest.NewRequest(http.MethodGet, "/add-poem", nil)
	for _, cookie := range recorder.Result().Cookies() {
		next.AddCookie(cookie)
	}
	assert.Equal(t, []session.Flash{{Category: session.Error, Message: "Title and poem content are required."}},
		manager.Load(next).PopFlashes())
}

func TestUnknownPage(t *testing.T) {
	renderer, err := New()
	require.NoError(t, err)
	_, request := sessionRequest(t, http.MethodGet, "/")

	recorder := httptest.NewRecorder()
	renderer.Ok(recorder, request, "missing", nil)
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}

func TestTemplateFunctions(t *testing.T) {
	var date = functions["date"].(func(ntime.NTime) string)
	var ago = functions["ago"].(func(ntime.NTime) string)
	var count = functions["count"].(func(int64) string)
	var paragraphs = functions["paragraphs"].(func(string) []string)

	stamp, err := ntime.ParseDate("2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, "05 Mar 2024", date(stamp))
	assert.Equal(t, "", date(ntime.NTime{}))

	assert.Equal(t, "3 hours ago", ago(ntime.From(time.Now().Add(-3*time.Hour))))
	assert.Equal(t, "", ago(ntime.NTime{}))

	assert.Equal(t, "1,234,567", count(1234567))
	assert.Equal(t, []string{"one\ntwo", "three"}, paragraphs("one\r\ntwo\r\n\r\nthree"))
}
