package storage

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Uploader stores an interview recording and returns an opaque media
// reference to keep on the session.
type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (mediaRef string, err error)
}

// Signer hands out a time-limited download link for a stored recording.
type Signer interface {
	SignedGetURL(ctx context.Context, mediaRef string, ttl time.Duration) (string, error)
}

// RecordingObjectName is the object key for an interview recording.
func RecordingObjectName(interviewID string, at time.Time, ext string) string {
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("interviews/%s/recording_%d%s", interviewID, at.Unix(), ext)
}
