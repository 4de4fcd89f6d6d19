package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const photoFileName = "profile_photo.jpg"

// maxPhotoBytes caps a single upload.
const maxPhotoBytes = 10 << 20

var (
	ErrInvalidUserID = errors.New("invalid user id")
	ErrPhotoTooLarge = errors.New("profile photo is too large")
)

var safeUserID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// PhotoStore keeps profile photos on disk at users/{userId}/profile_photo.jpg
// and hands out URLs under a public base.
type PhotoStore struct {
	dir       string
	publicURL string
}

// NewPhotoStore creates a photo store rooted at dir.
func NewPhotoStore(dir, publicURL string) *PhotoStore {
	return &PhotoStore{
		dir:       dir,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// Dir returns the storage root.
func (p *PhotoStore) Dir() string {
	return p.dir
}

// Upload stores the photo for userID, replacing any previous one, and
// returns its public URL.
func (p *PhotoStore) Upload(ctx context.Context, userID string, r io.Reader) (string, error) {
	if !safeUserID.MatchString(userID) {
		return "", ErrInvalidUserID
	}

	dir := filepath.Join(p.dir, "users", userID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create photo directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create photo file: %w", err)
	}
	tmpPath := tmp.Name()

	n, err := io.Copy(tmp, io.LimitReader(&ctxReader{ctx: ctx, r: r}, maxPhotoBytes+1))
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && n > maxPhotoBytes {
		err = ErrPhotoTooLarge
	}
	if err != nil {
		os.Remove(tmpPath)
		if errors.Is(err, ErrPhotoTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("failed to write photo: %w", err)
	}

	if err := os.Rename(tmpPath, filepath.Join(dir, photoFileName)); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to store photo: %w", err)
	}

	return p.URL(userID), nil
}

// URL returns the public URL of the user's photo.
func (p *PhotoStore) URL(userID string) string {
	return fmt.Sprintf("%s/users/%s/%s", p.publicURL, userID, photoFileName)
}

// Remove deletes the user's photo directory.
func (p *PhotoStore) Remove(userID string) error {
	if !safeUserID.MatchString(userID) {
		return ErrInvalidUserID
	}
	return os.RemoveAll(filepath.Join(p.dir, "users", userID))
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(b []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(b)
}
