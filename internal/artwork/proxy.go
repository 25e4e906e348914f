package artwork

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"time"

	"carbridge/internal/cache"

	"github.com/nfnt/resize"
	"github.com/sirupsen/logrus"
)

const maxSourceBytes = 10 << 20

// ErrTooLarge is returned for source images above the download limit
var ErrTooLarge = errors.New("artwork source too large")

// Proxy fetches remote artwork, scales it down for the head unit and
// caches the result by source URL.
type Proxy struct {
	client  *http.Client
	cache   *cache.ArtworkCache
	maxSize uint
	logger  *logrus.Logger
}

// NewProxy creates a proxy scaling images to fit maxSize×maxSize
func NewProxy(maxSize int, timeout time.Duration, c *cache.ArtworkCache, logger *logrus.Logger) *Proxy {
	if logger == nil {
		logger = logrus.New()
	}
	if c == nil {
		c = cache.NewArtworkCache(time.Hour, 256)
	}
	return &Proxy{
		client:  &http.Client{Timeout: timeout},
		cache:   c,
		maxSize: uint(maxSize),
		logger:  logger,
	}
}

// Fetch returns the scaled image for url, downloading it on a cache miss
func (p *Proxy) Fetch(ctx context.Context, url string) (cache.Image, error) {
	if img, ok := p.cache.Get(url); ok {
		return img, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return cache.Image{}, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return cache.Image{}, fmt.Errorf("failed to fetch artwork: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return cache.Image{}, fmt.Errorf("artwork source returned %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes+1))
	if err != nil {
		return cache.Image{}, fmt.Errorf("failed to read artwork: %w", err)
	}
	if len(data) > maxSourceBytes {
		return cache.Image{}, ErrTooLarge
	}

	img, err := p.Scale(data)
	if err != nil {
		return cache.Image{}, err
	}
	p.cache.Set(url, img)
	p.logger.WithFields(logrus.Fields{
		"url":    url,
		"source": len(data),
		"scaled": len(img.Data),
	}).Debug("Cached remote artwork")
	return img, nil
}

// Cached returns a scaled image stored under key, computing it with load
// on a miss. Used for embedded artwork served from the library.
func (p *Proxy) Cached(key string, load func() ([]byte, error)) (cache.Image, error) {
	if img, ok := p.cache.Get(key); ok {
		return img, nil
	}
	data, err := load()
	if err != nil {
		return cache.Image{}, err
	}
	img, err := p.Scale(data)
	if err != nil {
		return cache.Image{}, err
	}
	p.cache.Set(key, img)
	return img, nil
}

// Scale decodes data and shrinks it to fit the configured bounds. Images
// that already fit are re-encoded unchanged. JPEG sources stay JPEG, the
// rest become PNG.
func (p *Proxy) Scale(data []byte) (cache.Image, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return cache.Image{}, fmt.Errorf("failed to decode artwork: %w", err)
	}

	scaled := resize.Thumbnail(p.maxSize, p.maxSize, src, resize.Lanczos3)

	var buf bytes.Buffer
	if format == "jpeg" {
		if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: 85}); err != nil {
			return cache.Image{}, fmt.Errorf("failed to encode JPEG: %w", err)
		}
		return cache.Image{Data: buf.Bytes(), MimeType: "image/jpeg"}, nil
	}
	if err := png.Encode(&buf, scaled); err != nil {
		return cache.Image{}, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return cache.Image{Data: buf.Bytes(), MimeType: "image/png"}, nil
}

// Close stops the cache cleanup loop
func (p *Proxy) Close() {
	p.cache.Close()
}
