package images

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// PublicPrefix is the URL path under which stored images are served.
const PublicPrefix = "/static/images/"

// Storage persists uploaded poem backgrounds under a server controlled directory.
type Storage struct {
	Logger logrus.FieldLogger
	Path   string
	now    func() time.Time
}

// New prepares the images directory, nested in the static directory served by the web server.
func New(logger logrus.FieldLogger, staticDir string) (storage *Storage, err error) {
	var dir = filepath.Join(staticDir, "images")
	logger.WithField("path", dir).Info("initialising images store")

	// attempt to create an images directory if it doesn't exist
	if err = os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("creating images directory: %w", err)
	}

	return &Storage{Logger: logger, Path: dir, now: time.Now}, nil
}

// Save copies the upload to disk and returns the public path to reference from poems.
// Names are prefixed with the upload's Unix time to avoid collisions.
func (s *Storage) Save(header *multipart.FileHeader) (string, error) {
	var name = FileName(s.now(), header.Filename)

	source, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("opening upload: %w", err)
	}
	defer func() { _ = source.Close() }()

	destination, err := os.OpenFile(filepath.Join(s.Path, name), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0640)
	if err != nil {
		return "", fmt.Errorf("creating image file: %w", err)
	}

	if _, err = io.Copy(destination, source); err != nil {
		_ = destination.Close()
		return "", fmt.Errorf("writing image file: %w", err)
	}
	if err = destination.Close(); err != nil {
		return "", fmt.Errorf("closing image file: %w", err)
	}

	s.Logger.WithField("image", name).Debug("image stored")
	return PublicPrefix + name, nil
}

// FileName derives the stored name from the client's file name, keeping only its base and replacing spaces.
func FileName(uploaded time.Time, original string) string {
	// clients may send full paths, with either separator
	var base = path.Base(strings.ReplaceAll(original, `\`, "/"))
	if base == "." || base == "/" || base == ".." {
		base = "image"
	}
	return fmt.Sprintf("%d_%s", uploaded.Unix(), strings.ReplaceAll(base, " ", "_"))
}
