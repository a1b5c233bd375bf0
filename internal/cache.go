package internal

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const responseCacheVersion = "1.0"

// ResponseCache keeps revalidate-hinted GET responses on disk until they go stale.
type ResponseCache struct {
	cacheDir string
	mu       sync.Mutex
	now      func() time.Time
}

// CacheMetadata stores metadata about the cache
type CacheMetadata struct {
	CacheVersion string    `json:"cache_version" yaml:"cache_version"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" yaml:"updated_at"`
}

// CacheIndexEntry represents a cached response in the index
type CacheIndexEntry struct {
	Key       string    `yaml:"key"`
	URL       string    `yaml:"url"`
	Status    int       `yaml:"status"`
	Size      int       `yaml:"size"`
	StoredAt  time.Time `yaml:"stored_at"`
	ExpiresAt time.Time `yaml:"expires_at"`
}

// CacheIndex is the YAML index of all cached responses
type CacheIndex struct {
	Entries  []CacheIndexEntry `yaml:"entries"`
	Metadata CacheMetadata     `yaml:"metadata"`
}

type cachedResponse struct {
	URL        string      `json:"url"`
	StatusCode int         `json:"status_code"`
	Status     string      `json:"status"`
	Header     http.Header `json:"header"`
	Body       []byte      `json:"body"`
	StoredAt   time.Time   `json:"stored_at"`
	ExpiresAt  time.Time   `json:"expires_at"`
}

// NewResponseCache creates a cache rooted at cacheDir.
func NewResponseCache(cacheDir string) *ResponseCache {
	return &ResponseCache{
		cacheDir: cacheDir,
		now:      time.Now,
	}
}

// CacheKey identifies a response by method, URL and the credential that fetched it,
// so one user's data is never served to another.
func CacheKey(method, url, authorization string) string {
	sum := sha256.Sum256([]byte(method + "\n" + url + "\n" + authorization))
	return hex.EncodeToString(sum[:16])
}

// GetCacheDir returns the cache directory path
func (rc *ResponseCache) GetCacheDir() string {
	return rc.cacheDir
}

// GetIndexPath returns the path to the YAML index
func (rc *ResponseCache) GetIndexPath() string {
	return filepath.Join(rc.cacheDir, "responses.yaml")
}

// GetEntryPath returns the path to a cached response body
func (rc *ResponseCache) GetEntryPath(key string) string {
	return filepath.Join(rc.cacheDir, fmt.Sprintf("response_%s.json", key))
}

// Get returns a fresh cached response, or false when absent or stale.
func (rc *ResponseCache) Get(key string) (*Response, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	data, err := os.ReadFile(rc.GetEntryPath(key))
	if err != nil {
		return nil, false
	}
	var entry cachedResponse
	if err := json.Unmarshal(data, &entry); err != nil {
		LogDebug("Discarding corrupt cache entry %s: %v", key, err)
		_ = os.Remove(rc.GetEntryPath(key))
		return nil, false
	}
	if !rc.now().Before(entry.ExpiresAt) {
		return nil, false
	}
	return &Response{
		StatusCode: entry.StatusCode,
		Status:     entry.Status,
		Header:     entry.Header,
		Body:       entry.Body,
		Cached:     true,
	}, true
}

// Put stores resp under key for ttl and records it in the index.
func (rc *ResponseCache) Put(key, url string, resp *Response, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if err := rc.ensureCacheDir(); err != nil {
		return err
	}

	now := rc.now()
	entry := cachedResponse{
		URL:        url,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       resp.Body,
		StoredAt:   now,
		ExpiresAt:  now.Add(ttl),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	if err := os.WriteFile(rc.GetEntryPath(key), data, 0600); err != nil {
		return &StorageError{Path: rc.GetEntryPath(key), Op: "write", Err: err}
	}

	index, err := rc.loadIndex()
	if err != nil {
		index = &CacheIndex{Metadata: CacheMetadata{CacheVersion: responseCacheVersion, CreatedAt: now}}
	}
	index.Metadata.UpdatedAt = now

	item := CacheIndexEntry{
		Key:       key,
		URL:       url,
		Status:    resp.StatusCode,
		Size:      len(resp.Body),
		StoredAt:  now,
		ExpiresAt: entry.ExpiresAt,
	}
	found := false
	for i := range index.Entries {
		if index.Entries[i].Key == key {
			index.Entries[i] = item
			found = true
			break
		}
	}
	if !found {
		index.Entries = append(index.Entries, item)
	}
	return rc.saveIndex(index)
}

// LoadIndex loads the cache index
func (rc *ResponseCache) LoadIndex() (*CacheIndex, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.loadIndex()
}

// Prune deletes stale entries and returns how many were removed.
func (rc *ResponseCache) Prune() (int, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	index, err := rc.loadIndex()
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	now := rc.now()
	kept := index.Entries[:0]
	removed := 0
	for _, e := range index.Entries {
		if now.Before(e.ExpiresAt) {
			kept = append(kept, e)
			continue
		}
		_ = os.Remove(rc.GetEntryPath(e.Key))
		removed++
	}
	index.Entries = kept
	index.Metadata.UpdatedAt = now
	return removed, rc.saveIndex(index)
}

// ClearCache clears the cache
func (rc *ResponseCache) ClearCache() error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	index, err := rc.loadIndex()
	if err == nil {
		for _, entry := range index.Entries {
			_ = os.Remove(rc.GetEntryPath(entry.Key))
		}
	}

	if err := os.Remove(rc.GetIndexPath()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (rc *ResponseCache) ensureCacheDir() error {
	if err := os.MkdirAll(rc.cacheDir, 0700); err != nil {
		return &StorageError{Path: rc.cacheDir, Op: "open", Err: err}
	}
	return nil
}

func (rc *ResponseCache) loadIndex() (*CacheIndex, error) {
	data, err := os.ReadFile(rc.GetIndexPath())
	if err != nil {
		return nil, err
	}

	var index CacheIndex
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to unmarshal index: %w", err)
	}
	return &index, nil
}

func (rc *ResponseCache) saveIndex(index *CacheIndex) error {
	data, err := yaml.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	if err := os.WriteFile(rc.GetIndexPath(), data, 0600); err != nil {
		return &StorageError{Path: rc.GetIndexPath(), Op: "write", Err: err}
	}
	return nil
}
