package payloadcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"vgrid/internal/config"
	"vgrid/internal/encoding"
	"vgrid/internal/fileutil"
	"vgrid/internal/logging"
)

const (
	indexFileName = "index.json"
	lockFileName  = ".lock"
)

// Entry describes one cached payload.
type Entry struct {
	Key      string    `json:"key"`
	Manifest string    `json:"manifest"`
	Codec    string    `json:"codec"`
	File     string    `json:"file"`
	Size     int64     `json:"size"`
	Digest   string    `json:"digest"`
	CachedAt time.Time `json:"cached_at"`
}

// Cache provides process-safe access to the payload cache directory.
type Cache struct {
	dir        string
	maxEntries int
	logger     *slog.Logger
	mu         sync.Mutex
	lock       *flock.Flock
}

// New builds a cache from configuration. It returns nil when caching is
// disabled; every method treats a nil cache as empty.
func New(cfg *config.Config, logger *slog.Logger) *Cache {
	if cfg == nil || !cfg.Cache.Enabled || strings.TrimSpace(cfg.Paths.CacheDir) == "" {
		return nil
	}
	return NewCache(cfg.Paths.CacheDir, cfg.Cache.MaxEntries, logger)
}

// NewCache creates a cache rooted at dir. maxEntries bounds the entry count
// after each Store; zero or less means unbounded.
func NewCache(dir string, maxEntries int, logger *slog.Logger) *Cache {
	return &Cache{
		dir:        dir,
		maxEntries: maxEntries,
		logger:     logging.NewComponentLogger(logger, "payloadcache"),
		lock:       flock.New(filepath.Join(dir, lockFileName)),
	}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

// RequestKey derives the cache key for a manifest compiled with the given
// settings. Settings are hashed in order.
func RequestKey(manifest []byte, settings ...string) string {
	h := sha256.New()
	h.Write(manifest)
	for _, s := range settings {
		h.Write([]byte{0})
		h.Write([]byte(s))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Digest returns the hex sha256 of payload.
func Digest(payload []byte) string {
	return fileutil.SHA256Hex(payload)
}

// Lookup returns the cached payload for key. Entries whose file is missing
// or fails its digest check are reported as misses and removed.
func (c *Cache) Lookup(key string) ([]byte, Entry, bool) {
	key = strings.TrimSpace(key)
	if c == nil || key == "" {
		return nil, Entry{}, false
	}

	var (
		payload []byte
		found   Entry
		hit     bool
	)
	err := c.withLock(func(entries map[string]Entry) (bool, error) {
		entry, ok := entries[key]
		if !ok {
			return false, nil
		}
		match, data, err := fileutil.VerifyFile(filepath.Join(c.dir, entry.File), entry.Digest)
		if err == nil && !match {
			err = errors.New("digest mismatch")
		}
		if err != nil {
			c.logger.Warn("dropping stale payload cache entry",
				logging.String(logging.FieldEventType, "payloadcache_stale"),
				logging.String("key", key),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "the payload will be re-encoded"))
			delete(entries, key)
			_ = os.Remove(filepath.Join(c.dir, entry.File))
			return true, nil
		}
		payload, found, hit = data, entry, true
		return false, nil
	})
	if err != nil {
		c.logger.Warn("payload cache lookup failed",
			logging.String(logging.FieldEventType, "payloadcache_lookup_failed"),
			logging.Error(err))
		return nil, Entry{}, false
	}
	return payload, found, hit
}

// Store writes payload under entry.Key and records it in the index. Key,
// Codec and Manifest come from the caller; the remaining fields are filled
// in and returned.
func (c *Cache) Store(entry Entry, payload []byte) (Entry, error) {
	entry.Key = strings.TrimSpace(entry.Key)
	if entry.Key == "" {
		return Entry{}, errors.New("cache key cannot be empty")
	}
	if c == nil {
		return entry, nil
	}

	entry.File = entry.Key + encoding.Codec(entry.Codec).Extension()
	entry.Size = int64(len(payload))
	entry.Digest = Digest(payload)
	if entry.CachedAt.IsZero() {
		entry.CachedAt = time.Now().UTC()
	}

	err := c.withLock(func(entries map[string]Entry) (bool, error) {
		if err := fileutil.WriteFileAtomic(filepath.Join(c.dir, entry.File), payload, 0o644); err != nil {
			return false, err
		}
		entries[entry.Key] = entry
		if c.maxEntries > 0 {
			c.evict(entries, c.maxEntries)
		}
		return true, nil
	})
	if err != nil {
		return Entry{}, fmt.Errorf("store payload: %w", err)
	}

	c.logger.Debug("cached payload",
		logging.String("key", entry.Key),
		logging.String("manifest", entry.Manifest),
		logging.Int64("size", entry.Size))
	return entry, nil
}

// List returns every entry sorted by CachedAt, newest first.
func (c *Cache) List() ([]Entry, error) {
	if c == nil {
		return nil, nil
	}
	var out []Entry
	err := c.withLock(func(entries map[string]Entry) (bool, error) {
		out = sortedEntries(entries)
		return false, nil
	})
	return out, err
}

// Clear removes every entry and its payload file. It returns the number of
// entries removed.
func (c *Cache) Clear() (int, error) {
	return c.Prune(-1)
}

// Prune keeps the newest maxEntries entries and removes the rest. A negative
// maxEntries removes everything; zero leaves the cache untouched.
func (c *Cache) Prune(maxEntries int) (int, error) {
	if c == nil || maxEntries == 0 {
		return 0, nil
	}
	removed := 0
	err := c.withLock(func(entries map[string]Entry) (bool, error) {
		removed = c.evict(entries, max(maxEntries, 0))
		return removed > 0, nil
	})
	if err != nil {
		return 0, fmt.Errorf("prune payload cache: %w", err)
	}
	if removed > 0 {
		c.logger.Debug("pruned payload cache", logging.Int("removed", removed))
	}
	return removed, nil
}

// evict drops the oldest entries beyond limit. A limit of zero clears the
// index.
func (c *Cache) evict(entries map[string]Entry, limit int) int {
	if limit < 0 || (limit > 0 && len(entries) <= limit) {
		return 0
	}
	ordered := sortedEntries(entries)
	removed := 0
	for _, entry := range ordered[min(limit, len(ordered)):] {
		delete(entries, entry.Key)
		if err := os.Remove(filepath.Join(c.dir, entry.File)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn("failed to remove cached payload",
				logging.String("file", entry.File),
				logging.Error(err))
		}
		removed++
	}
	return removed
}

// withLock loads the index under the directory lock, runs fn and persists
// the index when fn reports a change.
func (c *Cache) withLock(fn func(entries map[string]Entry) (bool, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	if err := c.lock.Lock(); err != nil {
		return fmt.Errorf("acquire cache lock: %w", err)
	}
	defer func() {
		_ = c.lock.Unlock()
	}()

	entries, err := c.load()
	if err != nil {
		c.logger.Warn("failed to load payload cache index",
			logging.String(logging.FieldEventType, "payloadcache_load_failed"),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "cache will start empty"),
			logging.String(logging.FieldImpact, "previously cached payloads will be re-encoded"))
		entries = make(map[string]Entry)
	}

	changed, err := fn(entries)
	if err != nil {
		return err
	}
	if changed {
		return c.save(entries)
	}
	return nil
}

func (c *Cache) load() (map[string]Entry, error) {
	data, err := os.ReadFile(filepath.Join(c.dir, indexFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make(map[string]Entry), nil
		}
		return nil, fmt.Errorf("read index: %w", err)
	}
	entries := make(map[string]Entry)
	if len(data) == 0 {
		return entries, nil
	}
	var list []Entry
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}
	for _, entry := range list {
		if strings.TrimSpace(entry.Key) != "" {
			entries[entry.Key] = entry
		}
	}
	return entries, nil
}

func (c *Cache) save(entries map[string]Entry) error {
	data, err := json.MarshalIndent(sortedEntries(entries), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}
	return fileutil.WriteFileAtomic(filepath.Join(c.dir, indexFileName), data, 0o644)
}

func sortedEntries(entries map[string]Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry)
	}
	slices.SortFunc(out, func(a, b Entry) int {
		if c := b.CachedAt.Compare(a.CachedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Key, b.Key)
	})
	return out
}

