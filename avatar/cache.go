// Package avatar fetches, decodes, and caches user avatar images. The cache
// is write-through from the client's point of view; presentation code reads
// decoded images back out by user id.
package avatar

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	// register the decoders the avatar CDN serves
	_ "image/jpeg"
	_ "image/png"
)

// DefaultSize is the image variant requested from the CDN. Profile payloads
// reference a small thumbnail; the cache rewrites the URL to this size.
const DefaultSize = 256

// Cache holds decoded avatars keyed by user id.
type Cache struct {
	httpClient *http.Client
	logger     *slog.Logger
	size       int

	mu     sync.RWMutex
	images map[int]image.Image
}

// New builds a Cache. A nil httpClient uses http.DefaultClient; size <= 0
// falls back to DefaultSize.
func New(httpClient *http.Client, logger *slog.Logger, size int) *Cache {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	if size <= 0 {
		size = DefaultSize
	}
	return &Cache{httpClient: httpClient, logger: logger, size: size, images: map[int]image.Image{}}
}

// Request fetches the avatar behind avatarURL and stores the decoded image
// under userID. The fetch runs in the background; failures are logged and
// leave the cache untouched. Already-cached users are not re-fetched.
func (c *Cache) Request(ctx context.Context, userID int, avatarURL string) {
	c.mu.RLock()
	_, cached := c.images[userID]
	c.mu.RUnlock()
	if cached || avatarURL == "" {
		return
	}
	go func() {
		if err := c.fetch(ctx, userID, avatarURL); err != nil {
			c.logger.Warn("avatar fetch failed", "user_id", userID, "error", err)
		}
	}()
}

// Get returns the decoded avatar for userID, if one has been cached.
func (c *Cache) Get(userID int) (image.Image, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	img, ok := c.images[userID]
	return img, ok
}

// fetch performs the download and decode synchronously.
func (c *Cache) fetch(ctx context.Context, userID int, avatarURL string) error {
	url := RewriteURL(avatarURL, c.size)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, url)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", url, err)
	}

	c.mu.Lock()
	c.images[userID] = img
	c.mu.Unlock()
	return nil
}

// RewriteURL asks the CDN for a larger image variant and normalizes the
// extension to PNG. Avatar URLs embed the variant as a numeric path segment
// before the file name: .../avatars/20/4417.jpg -> .../avatars/{size}/4417.png.
func RewriteURL(avatarURL string, size int) string {
	segs := strings.Split(avatarURL, "/")
	if len(segs) >= 2 {
		if _, err := strconv.Atoi(segs[len(segs)-2]); err == nil {
			segs[len(segs)-2] = strconv.Itoa(size)
		}
	}
	last := segs[len(segs)-1]
	if i := strings.LastIndexByte(last, '.'); i > 0 {
		segs[len(segs)-1] = last[:i] + ".png"
	}
	return strings.Join(segs, "/")
}
