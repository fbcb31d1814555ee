// Package cache keeps rendered preview images so repeated previews of an
// unchanged act skip the render and rasterize round trip.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// PreviewCache stores preview bytes by key
type PreviewCache interface {
	// Get returns the cached bytes and whether the key was present
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte) error
	Close() error
}

// PreviewKey derives the cache key of one preview page from the encoded
// act record and the output options
func PreviewKey(record []byte, format string, page, dpi int) string {
	h := sha256.New()
	h.Write(record)
	h.Write([]byte{0})
	h.Write([]byte(format))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(page)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(dpi)))
	return hex.EncodeToString(h.Sum(nil))
}

// NopPreviewCache never stores anything
type NopPreviewCache struct{}

// Get always misses
func (NopPreviewCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set discards data
func (NopPreviewCache) Set(context.Context, string, []byte) error { return nil }

// Close is a no-op
func (NopPreviewCache) Close() error { return nil }

var _ PreviewCache = NopPreviewCache{}
