// Package assets fetches raw avatar part files from a filesystem or over
// HTTP, with an in-memory cache.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a source does not exist.
var ErrNotFound = errors.New("asset not found")

// Defaults for remote fetching.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultRetries      = 3
	DefaultRetryWait    = 100 * time.Millisecond
	DefaultRetryWaitMax = 3 * time.Second
)

// Options configure a Manager. Zero values take the defaults above, an OS
// filesystem and a no-op logger.
type Options struct {
	Fs           afero.Fs
	Timeout      time.Duration
	Retries      int
	RetryWait    time.Duration
	RetryWaitMax time.Duration
	NoCache      bool
	Logger       *zap.Logger
}

// Manager loads assets by source: a filesystem path or an http(s) URL.
type Manager struct {
	fs      afero.Fs
	http    *resty.Client
	cache   *Cache
	noCache bool
	log     *zap.Logger
}

// NewManager creates a new asset manager.
func NewManager(opts Options) *Manager {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RetryWait == 0 {
		opts.RetryWait = DefaultRetryWait
	}
	if opts.RetryWaitMax == 0 {
		opts.RetryWaitMax = DefaultRetryWaitMax
	}

	m := &Manager{
		fs:      opts.Fs,
		cache:   NewCache(),
		noCache: opts.NoCache,
		log:     opts.Logger,
	}
	m.http = newHTTPClient(opts, m.log)
	return m
}

func newHTTPClient(opts Options, log *zap.Logger) *resty.Client {
	c := resty.New()
	c.SetTimeout(opts.Timeout)
	c.SetRetryCount(opts.Retries)
	c.SetRetryWaitTime(opts.RetryWait)
	c.SetRetryMaxWaitTime(opts.RetryWaitMax)
	c.AddRetryCondition(func(res *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		switch res.StatusCode() {
		case
			http.StatusRequestTimeout,
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	})
	c.AddRetryHook(func(res *resty.Response, err error) {
		if res == nil || res.Request == nil {
			log.Warn("retrying asset fetch", zap.Error(err))
			return
		}
		log.Warn("retrying asset fetch",
			zap.String("url", res.Request.URL),
			zap.Int("status", res.StatusCode()),
			zap.Int("attempt", res.Request.Attempt),
			zap.Error(err),
		)
	})
	return c
}

// HTTPClient returns the underlying resty client.
func (m *Manager) HTTPClient() *resty.Client {
	return m.http
}

// Fs returns the filesystem local sources are read from.
func (m *Manager) Fs() afero.Fs {
	return m.fs
}

// IsRemote reports whether source is an http(s) URL.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Load returns the bytes of source, from cache when possible.
func (m *Manager) Load(ctx context.Context, source string) ([]byte, error) {
	if !m.noCache {
		if data, ok := m.cache.Get(source); ok {
			return data, nil
		}
	}

	var (
		data []byte
		err  error
	)
	if IsRemote(source) {
		data, err = m.fetch(ctx, source)
	} else {
		data, err = m.read(source)
	}
	if err != nil {
		return nil, err
	}

	m.log.Debug("loaded asset", zap.String("source", source), zap.Int("bytes", len(data)))
	if !m.noCache {
		m.cache.Set(source, data)
	}
	return data, nil
}

func (m *Manager) read(name string) ([]byte, error) {
	data, err := afero.ReadFile(m.fs, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

func (m *Manager) fetch(ctx context.Context, source string) ([]byte, error) {
	res, err := m.http.R().SetContext(ctx).Get(source)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source, err)
	}
	switch {
	case res.StatusCode() == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, source)
	case !res.IsSuccess():
		return nil, fmt.Errorf("fetching %s: unexpected status %d", source, res.StatusCode())
	}
	return res.Body(), nil
}

// Resolve returns the source of ref relative to base. ref is a URI as found
// in a glTF buffer, so it is percent-decoded for filesystem sources.
func Resolve(base, ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parsing %q: %w", ref, err)
	}
	if u.IsAbs() {
		return ref, nil
	}
	if IsRemote(base) {
		b, err := url.Parse(base)
		if err != nil {
			return "", fmt.Errorf("parsing %q: %w", base, err)
		}
		return b.ResolveReference(u).String(), nil
	}
	if path.IsAbs(u.Path) {
		return filepath.FromSlash(u.Path), nil
	}
	return filepath.Join(filepath.Dir(base), filepath.FromSlash(u.Path)), nil
}

// Invalidate drops source from the cache.
func (m *Manager) Invalidate(source string) {
	m.cache.Delete(source)
}

// Cache returns the manager's cache.
func (m *Manager) Cache() *Cache {
	return m.cache
}

// Close releases cached data.
func (m *Manager) Close() {
	m.cache.Clear()
}

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	data map[string][]byte
	mu   sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Delete removes an item from cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Len returns the number of cached items.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
