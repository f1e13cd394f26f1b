// Package testutil assembles throwaway databases and web stacks for package tests.
package testutil

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/silktrader/kavita/pkg/pages"
	"github.com/silktrader/kavita/pkg/rest"
	"github.com/silktrader/kavita/pkg/session"
	"github.com/silktrader/kavita/pkg/storage/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// NewStorage opens a fresh database file, closed when the test ends.
func NewStorage(t *testing.T) *sqlite.Storage {
	t.Helper()
	logger, _ := test.NewNullLogger()
	storage, err := sqlite.New(logger, filepath.Join(t.TempDir(), "poems.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

// Site bundles the pieces handlers are registered with.
type Site struct {
	Storage  *sqlite.Storage
	Engine   *rest.Engine
	Renderer *pages.Renderer
	Sessions *session.Manager
	Logger   *logrus.Logger
	Hook     *test.Hook

	t *testing.T
}

// NewSite builds an engine with sessions enabled and a not found page, over a fresh database.
func NewSite(t *testing.T) *Site {
	t.Helper()
	logger, hook := test.NewNullLogger()

	renderer, err := pages.New()
	require.NoError(t, err)

	sessions, err := session.NewManager("test-secret", false)
	require.NoError(t, err)

	engine, err := rest.New(rest.Config{Logger: logger, NotFound: sessions.Middleware(renderer.NotFoundHandler())})
	require.NoError(t, err)
	engine.Use(sessions.Middleware)

	return &Site{
		Storage:  NewStorage(t),
		Engine:   engine,
		Renderer: renderer,
		Sessions: sessions,
		Logger:   logger,
		Hook:     hook,
		t:        t,
	}
}

// Client is a cookie keeping browser that doesn't follow redirects.
type Client struct {
	t      *testing.T
	server *httptest.Server
	http   *http.Client
}

// Start serves the registered routes; every call returns a client with its own cookies.
func (s *Site) Start() *Client {
	s.t.Helper()
	var server = httptest.NewServer(s.Engine.Handler())
	s.t.Cleanup(server.Close)
	return newClient(s.t, server)
}

func newClient(t *testing.T, server *httptest.Server) *Client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &Client{
		t:      t,
		server: server,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// NewClient returns another browser for the same server.
func (c *Client) NewClient() *Client {
	return newClient(c.t, c.server)
}

func (c *Client) URL(path string) string {
	return c.server.URL + path
}

// SetCookie plants a cookie, as a client forging its identity would.
func (c *Client) SetCookie(name, value string) {
	u, err := url.Parse(c.server.URL)
	require.NoError(c.t, err)
	c.http.Jar.SetCookies(u, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
}

func (c *Client) Do(request *http.Request) *http.Response {
	c.t.Helper()
	response, err := c.http.Do(request)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { _ = response.Body.Close() })
	return response
}

func (c *Client) Get(path string) *http.Response {
	c.t.Helper()
	request, err := http.NewRequest(http.MethodGet, c.URL(path), nil)
	require.NoError(c.t, err)
	return c.Do(request)
}

func (c *Client) PostForm(path string, values url.Values) *http.Response {
	c.t.Helper()
	request, err := http.NewRequest(http.MethodPost, c.URL(path), strings.NewReader(values.Encode()))
	require.NoError(c.t, err)
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.Do(request)
}

// Follow requests the redirect's target, consuming the flashes it was issued with.
func (c *Client) Follow(response *http.Response) *http.Response {
	c.t.Helper()
	var location = response.Header.Get("Location")
	require.NotEmpty(c.t, location, "response isn't a redirect")
	return c.Get(location)
}

// Body reads the whole response body.
func Body(t *testing.T, response *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	return string(body)
}
