package metrics

import (
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentCountsByRoute(t *testing.T) {
	connection, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "metrics.db"))
	require.NoError(t, err)
	defer connection.Close()

	var m = New(connection)
	var handler = m.Instrument(http.MethodGet, "/poem/:id", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	for _, path := range []string{"/poem/1", "/poem/2", "/poem/3"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	// three paths, a single series
	assert.Equal(t, 1, promtest.CollectAndCount(m.requests))
	assert.Equal(t, float64(0), promtest.ToFloat64(m.inFlight))

	recorder := httptest.NewRecorder()
	m.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	body, err := io.ReadAll(recorder.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `route="/poem/:id"`)
	assert.Contains(t, string(body), `code="404"`)
	assert.Contains(t, string(body), `go_sql_open_connections{db_name="poems"}`)
	assert.Contains(t, string(body), "kavita_http_request_duration_seconds_bucket")
}
