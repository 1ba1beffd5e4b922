package ports

import (
	"context"
	"io"

	"github.com/streamgate/streamgate/core"
)

// VideoCatalog is the external collaborator owning stored media. The gate
// never touches bytes on disk itself; it asks the catalog and decides who
// may receive the answer.
type VideoCatalog interface {
	// Manifest returns the stored, un-rewritten manifest for a video, or
	// core.ErrVideoNotFound.
	Manifest(ctx context.Context, videoID string) (core.ManifestSource, error)

	// Segment opens a media segment by file name, or core.ErrVideoNotFound.
	Segment(ctx context.Context, videoID, name string) (io.ReadCloser, error)

	// Key returns the clearkey key id and key bytes for a video, or
	// core.ErrVideoNotFound when the video has no DRM key.
	Key(ctx context.Context, videoID string) (kid, key []byte, err error)
}
