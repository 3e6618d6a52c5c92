// Package storage moves tray photos and corrected plant images in and out of
// blob storage as opaque byte buffers.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"
)

// DefaultDailyLayout is the Go time layout of the blob the camera uploads
// each day
const DefaultDailyLayout = "pea_2006-01-02.png"

// ErrNotFound is returned by Get when the blob does not exist
var ErrNotFound = errors.New("blob not found")

// BlobStore reads and writes named blobs
type BlobStore interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Put(ctx context.Context, name string, data []byte) error
}

// DailyName returns the blob name for the day of t using the time layout
func DailyName(layout string, t time.Time) string {
	if layout == "" {
		layout = DefaultDailyLayout
	}

	return t.Format(layout)
}

// cleanName validates a blob name and returns it in slash separated form.
// Names must stay below the store root
func cleanName(name string) (string, error) {

	if name == "" {
		return "", fmt.Errorf("blob name is empty")
	}

	clean := path.Clean("/" + name)[1:]

	if clean == "" || clean != path.Clean(name) {
		return "", fmt.Errorf("invalid blob name %q", name)
	}

	return clean, nil
}
