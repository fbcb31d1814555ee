package printing

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"strings"
	"sync"
)

// errUnsupportedImage is returned for files that are not PNG, JPEG or GIF
var errUnsupportedImage = errors.New("unsupported image format")

// imageData is a decoded-and-normalised image ready for embedding
type imageData struct {
	// Data is PNG or JPEG bytes
	Data []byte
	// Type is "PNG" or "JPG"
	Type string
	// Width and Height in pixels
	Width  int
	Height int
}

// MIME returns the content type of Data
func (i *imageData) MIME() string {
	if i.Type == "JPG" {
		return "image/jpeg"
	}
	return "image/png"
}

// Ext returns the file extension of Data without the dot
func (i *imageData) Ext() string {
	if i.Type == "JPG" {
		return "jpeg"
	}
	return "png"
}

// AspectHeight returns the height matching width at the image aspect ratio
func (i *imageData) AspectHeight(width float64) float64 {
	if i.Width == 0 {
		return 0
	}
	return width * float64(i.Height) / float64(i.Width)
}

// imageCache loads each path once per render. Missing or undecodable files
// are remembered as failures so both layout passes skip them alike.
type imageCache struct {
	mu    sync.Mutex
	items map[string]*imageData
	errs  map[string]error
}

func newImageCache() *imageCache {
	return &imageCache{
		items: make(map[string]*imageData),
		errs:  make(map[string]error),
	}
}

func (c *imageCache) load(path string) (*imageData, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, os.ErrNotExist
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if img, ok := c.items[path]; ok {
		return img, nil
	}
	if err, ok := c.errs[path]; ok {
		return nil, err
	}
	img, err := loadImageFile(path)
	if err != nil {
		c.errs[path] = err
		return nil, err
	}
	c.items[path] = img
	return img, nil
}

func loadImageFile(path string) (*imageData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return normalizeImage(raw)
}

// normalizeImage passes JPEG through and re-encodes PNG and GIF as 8-bit
// NRGBA PNG, which every target format can embed.
func normalizeImage(raw []byte) (*imageData, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("failed to decode image: empty %dx%d", cfg.Width, cfg.Height)
	}

	switch format {
	case "jpeg":
		if _, err := jpeg.Decode(bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("failed to decode image: %w", err)
		}
		return &imageData{Data: raw, Type: "JPG", Width: cfg.Width, Height: cfg.Height}, nil
	case "png", "gif":
		var src image.Image
		if format == "png" {
			src, err = png.Decode(bytes.NewReader(raw))
		} else {
			src, err = gif.Decode(bytes.NewReader(raw))
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode image: %w", err)
		}
		data, err := encodeNRGBA(src)
		if err != nil {
			return nil, err
		}
		b := src.Bounds()
		return &imageData{Data: data, Type: "PNG", Width: b.Dx(), Height: b.Dy()}, nil
	}
	return nil, errUnsupportedImage
}

func encodeNRGBA(src image.Image) ([]byte, error) {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
