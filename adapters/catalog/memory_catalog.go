// Package catalog holds VideoCatalog adapters. Real deployments point this
// port at the media storage service; the in-memory adapter backs tests and
// demo wiring.
package catalog

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/streamgate/streamgate/core"
	"github.com/streamgate/streamgate/manifest"
	"github.com/streamgate/streamgate/ports"
)

type video struct {
	manifest core.ManifestSource
	segments map[string][]byte
	kid      []byte
	key      []byte
}

// MemoryCatalog is an in-memory implementation of the VideoCatalog
// interface.
type MemoryCatalog struct {
	mu     sync.RWMutex
	videos map[string]*video
}

// NewMemoryCatalog creates a new in-memory catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		videos: make(map[string]*video),
	}
}

var _ ports.VideoCatalog = (*MemoryCatalog)(nil)

// AddVideo registers a video with its stored manifest. An empty format is
// detected from the body; a body matching neither format stays empty and
// fails at rewrite time.
func (c *MemoryCatalog) AddVideo(id string, format core.ManifestFormat, body []byte) {
	if format == "" {
		format, _ = manifest.DetectFormat(body)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.videos[id] = &video{
		manifest: core.ManifestSource{Format: format, Body: body},
		segments: make(map[string][]byte),
	}
}

// AddSegment attaches segment bytes to a registered video.
func (c *MemoryCatalog) AddSegment(id, name string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.videos[id]; ok {
		v.segments[name] = data
	}
}

// SetKey attaches clearkey material to a registered video.
func (c *MemoryCatalog) SetKey(id string, kid, key []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.videos[id]; ok {
		v.kid = kid
		v.key = key
	}
}

// Manifest returns the stored manifest for a video.
func (c *MemoryCatalog) Manifest(ctx context.Context, videoID string) (core.ManifestSource, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.videos[videoID]
	if !ok {
		return core.ManifestSource{}, core.ErrVideoNotFound
	}
	return v.manifest, nil
}

// Segment opens a media segment by file name.
func (c *MemoryCatalog) Segment(ctx context.Context, videoID, name string) (io.ReadCloser, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.videos[videoID]
	if !ok {
		return nil, core.ErrVideoNotFound
	}
	data, ok := v.segments[name]
	if !ok {
		return nil, core.ErrVideoNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Key returns the clearkey key id and key bytes for a video.
func (c *MemoryCatalog) Key(ctx context.Context, videoID string) ([]byte, []byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.videos[videoID]
	if !ok || v.key == nil {
		return nil, nil, core.ErrVideoNotFound
	}
	return v.kid, v.key, nil
}
