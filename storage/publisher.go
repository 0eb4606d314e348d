package storage

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

var ErrObjectNotFound = errors.New("object not found")

type PublishResult struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	ETag string `json:"etag,omitempty"`
}

// SnapshotPublisher stores generated documents (bracket snapshots) under a
// key. Publish returns the public URL of the stored object.
type SnapshotPublisher interface {
	Publish(ctx context.Context, key string, contentType string, body []byte) (*PublishResult, error)
	Delete(ctx context.Context, key string) error
}

// publicURL joins base and key. An empty or unparsable base gives "".
func publicURL(base, key string) string {
	if base == "" || key == "" {
		return ""
	}
	u, err := url.JoinPath(base, strings.TrimPrefix(key, "/"))
	if err != nil {
		return ""
	}
	return u
}
