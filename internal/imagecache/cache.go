// Package imagecache keeps local copies of catalog images so reports can
// reference them without hitting the CDN on every render.
package imagecache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/osse101/BrickManager_Go/internal/concurrency"
	"github.com/osse101/BrickManager_Go/internal/logger"
	"github.com/osse101/BrickManager_Go/internal/metrics"
)

// Config holds the cache settings
type Config struct {
	// Dir receives downloaded files
	Dir string
	// Fallback is returned whenever no cached copy can be produced
	Fallback string
	// PublicPrefix is prepended to the file name in returned references
	PublicPrefix    string
	Size            int
	TTL             time.Duration
	DownloadTimeout time.Duration
}

// Cache resolves remote image URLs to local references
type Cache struct {
	cfg    Config
	client *http.Client
	refs   *expirable.LRU[string, string]
	locks  *concurrency.LockManager
}

// New creates a cache. The directory is created on first download.
func New(cfg Config) *Cache {
	if cfg.PublicPrefix == "" {
		cfg.PublicPrefix = DefaultPublicPrefix
	}
	if cfg.Size <= 0 {
		cfg.Size = DefaultCacheSize
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = DefaultDownloadTimeout
	}
	return &Cache{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.DownloadTimeout},
		refs:   expirable.NewLRU[string, string](cfg.Size, nil, cfg.TTL),
		locks:  concurrency.NewLockManager(),
	}
}

// Dir returns the directory cached files are written to
func (c *Cache) Dir() string {
	return c.cfg.Dir
}

// Resolve returns the local reference for imageURL, downloading it when no
// copy exists yet. Any failure yields the fallback reference.
func (c *Cache) Resolve(ctx context.Context, imageURL string) string {
	log := logger.FromContext(ctx)

	name, ok := fileName(imageURL)
	if !ok {
		if imageURL != "" {
			log.Warn(LogMsgInvalidImageURL, "url", imageURL)
		}
		metrics.ImageCacheLookups.WithLabelValues(metrics.ResultFallback).Inc()
		return c.cfg.Fallback
	}

	if ref, found := c.refs.Get(imageURL); found {
		metrics.ImageCacheLookups.WithLabelValues(metrics.ResultHit).Inc()
		return ref
	}

	// One download per file even when a report resolves the same part many times
	unlock := c.locks.Lock(name)
	defer unlock()

	ref := c.cfg.PublicPrefix + name
	target := filepath.Join(c.cfg.Dir, name)
	if _, err := os.Stat(target); err == nil {
		c.refs.Add(imageURL, ref)
		metrics.ImageCacheLookups.WithLabelValues(metrics.ResultHit).Inc()
		return ref
	}

	log.Debug(LogMsgDownloadingImage, "url", imageURL)
	if err := c.download(ctx, imageURL, target); err != nil {
		log.Warn(LogMsgDownloadFailed, "url", imageURL, "error", err)
		metrics.ImageCacheLookups.WithLabelValues(metrics.ResultFallback).Inc()
		return c.cfg.Fallback
	}
	log.Info(LogMsgImageCached, "url", imageURL, "file", target)

	c.refs.Add(imageURL, ref)
	metrics.ImageCacheLookups.WithLabelValues(metrics.ResultMiss).Inc()
	return ref
}

// download writes the image to a temporary file and renames it into place so
// readers never see a partial file
func (c *Cache) download(ctx context.Context, imageURL, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf(ErrMsgUnexpectedStatus, resp.StatusCode, imageURL)
	}

	if err := os.MkdirAll(c.cfg.Dir, dirPerm); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(c.cfg.Dir, tempGlob)
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, maxImageBytes+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	if n > maxImageBytes {
		return fmt.Errorf(ErrMsgImageTooLarge, maxImageBytes)
	}
	return os.Rename(tmp.Name(), target)
}

// fileName derives a safe local file name from an absolute http(s) URL
func fileName(imageURL string) (string, bool) {
	if imageURL == "" {
		return "", false
	}
	u, err := url.Parse(imageURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}

	base := path.Base(u.Path)
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		}
	}
	name := strings.TrimLeft(b.String(), ".")
	if name == "" {
		return "", false
	}
	return name, true
}
