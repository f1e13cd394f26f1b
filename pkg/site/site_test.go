package site

import (
	"context"
	"net/http"
	"testing"

	"github.com/silktrader/kavita/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialiseSeedsWriterOnce(t *testing.T) {
	var storage = testutil.NewStorage(t)
	var ss = NewStore(storage.Connection)
	var ctx = context.Background()

	writer, err := ss.GetWriter(ctx)
	require.NoError(t, err)
	assert.Nil(t, writer)

	require.NoError(t, ss.Initialise(ctx))
	_, err = storage.Connection.Exec(`UPDATE writers SET bio = 'edited'`)
	require.NoError(t, err)
	require.NoError(t, ss.Initialise(ctx))

	writer, err = ss.GetWriter(ctx)
	require.NoError(t, err)
	require.NotNil(t, writer)
	assert.Equal(t, defaultWriter.Name, writer.Name)
	assert.Equal(t, "edited", writer.Bio, "initialising again leaves data untouched")

	var count int
	require.NoError(t, storage.Connection.QueryRow(`SELECT COUNT(*) FROM writers`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestIncrementHits(t *testing.T) {
	var ss = NewStore(testutil.NewStorage(t).Connection)
	var ctx = context.Background()

	for want := int64(1); want <= 3; want++ {
		count, err := ss.IncrementHits(ctx, HomeHits)
		require.NoError(t, err)
		assert.Equal(t, want, count)
	}

	count, err := ss.IncrementHits(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestHandlers(t *testing.T) {
	var site = testutil.NewSite(t)
	RegisterHandlers(site.Engine, NewStore(site.Storage.Connection))
	var client = site.Start()

	response := client.Get("/init-db")
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Equal(t, "Initialized.", testutil.Body(t, response))

	response = client.Get("/healthz")
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Equal(t, "ok", testutil.Body(t, response))

	require.NoError(t, site.Storage.Close())
	assert.Equal(t, http.StatusServiceUnavailable, client.Get("/healthz").StatusCode)
}
