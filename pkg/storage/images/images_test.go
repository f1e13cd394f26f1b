package images

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	var at = time.Unix(1700000000, 0)
	var tests = map[string]string{
		"moon light.jpg":          "1700000000_moon_light.jpg",
		"../../etc/passwd":        "1700000000_passwd",
		`C:\Users\me\my poem.png`: "1700000000_my_poem.png",
		"":                        "1700000000_image",
		"already_fine.webp":       "1700000000_already_fine.webp",
	}
	for original, expected := range tests {
		assert.Equal(t, expected, FileName(at, original), original)
	}
}

func TestSave(t *testing.T) {
	logger, _ := test.NewNullLogger()
	static := t.TempDir()
	storage, err := New(logger, static)
	require.NoError(t, err)
	storage.now = func() time.Time { return time.Unix(1700000000, 0) }

	header := uploadHeader(t, "rainy day.jpg", []byte("not really a jpeg"))

	reference, err := storage.Save(header)
	require.NoError(t, err)
	assert.Equal(t, "/static/images/1700000000_rainy_day.jpg", reference)

	stored, err := os.ReadFile(filepath.Join(static, "images", "1700000000_rainy_day.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "not really a jpeg", string(stored))
}

// uploadHeader builds a genuine multipart file header by parsing a request.
func uploadHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image_file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	request := httptest.NewRequest("POST", "/add-poem", &body)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, request.ParseMultipartForm(1<<20))
	return request.MultipartForm.File["image_file"][0]
}
