package ntime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	date, err := ParseDate("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), date.Time())

	for _, bad := range []string{"01-03-2024", "2024/03/01", "2024-3-1", "2024-02-30", ""} {
		_, err = ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestValueScanRoundTrip(t *testing.T) {
	var original = From(time.Date(2024, 1, 2, 3, 4, 5, 600, time.FixedZone("IST", 19800)))

	value, err := original.Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T21:34:05Z", value)

	var scanned NTime
	require.NoError(t, scanned.Scan(value))
	assert.True(t, scanned.IsValid())
	assert.Equal(t, original.Time(), scanned.Time())

	require.NoError(t, scanned.Scan([]byte("2024-02-01T00:00:00Z")))
	assert.Equal(t, "2024-02-01", scanned.Format(DateLayout))
}

func TestNullTime(t *testing.T) {
	var nt NTime
	require.NoError(t, nt.Scan(nil))
	assert.False(t, nt.IsValid())
	assert.Equal(t, "", nt.Format(DateLayout))

	value, err := nt.Value()
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestScanRejectsUnknownTypes(t *testing.T) {
	var nt NTime
	assert.Error(t, nt.Scan(42))
	assert.Error(t, nt.Scan("yesterday"))
}

func TestOrderingFollowsText(t *testing.T) {
	var earlier, later = From(time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)), Now()
	assert.True(t, earlier.Time().Before(later.Time()))

	ev, _ := earlier.Value()
	lv, _ := later.Value()
	assert.Less(t, ev.(string), lv.(string))
}
