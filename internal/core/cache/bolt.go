// Package cache persists strategy results on disk so repeated runs over the
// same unchanged file skip the OCR engine.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/joseph-ayodele/docextract/internal/core/ocr"
)

var bucketResults = []byte("results")

// DefaultTTL is how long an entry stays valid.
const DefaultTTL = 24 * time.Hour

type entry struct {
	Text       string            `json:"text"`
	Confidence float64           `json:"confidence"`
	Strategy   string            `json:"strategy"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	StoredAt   time.Time         `json:"stored_at"`
}

type Stats struct {
	Entries int `json:"entries"`
	Expired int `json:"expired"`
	Bytes   int `json:"bytes"`
}

// BoltCache is safe for concurrent use; bbolt serializes writers.
type BoltCache struct {
	db     *bolt.DB
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

func Open(path string, ttl time.Duration, logger *slog.Logger) (*BoltCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open result cache %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketResults)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init result cache: %w", err)
	}
	logger.Info("result cache opened", "path", path, "ttl", ttl)
	return &BoltCache{db: db, ttl: ttl, now: time.Now, logger: logger}, nil
}

func (c *BoltCache) Close() error {
	return c.db.Close()
}

// Key identifies a file by path, size and mtime, so an edited file misses.
func Key(path, strategy string) (string, error) {
	st, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	sum := md5.Sum([]byte(fmt.Sprintf("%s-%d-%d", path, st.Size(), st.ModTime().UnixNano())))
	return hex.EncodeToString(sum[:]) + "_" + strategy, nil
}

// Get returns a cached result. Expired entries are deleted on read.
func (c *BoltCache) Get(path, strategy string) (ocr.ExtractionResult, bool) {
	key, err := Key(path, strategy)
	if err != nil {
		return ocr.ExtractionResult{}, false
	}

	var (
		e       entry
		found   bool
		expired bool
	)
	_ = c.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketResults).Get([]byte(key))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &e); err != nil {
			expired = true
			return nil
		}
		if c.now().Sub(e.StoredAt) > c.ttl {
			expired = true
			return nil
		}
		found = true
		return nil
	})
	if expired {
		if err := c.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketResults).Delete([]byte(key))
		}); err != nil {
			c.logger.Warn("failed to evict expired cache entry", "key", key, "error", err)
		}
		return ocr.ExtractionResult{}, false
	}
	if !found {
		return ocr.ExtractionResult{}, false
	}

	res := ocr.NewResult(e.Text, e.Confidence, e.Strategy)
	for k, v := range e.Metadata {
		res.Metadata[k] = v
	}
	return res, true
}

// Put stores res. Empty or zero-confidence results are not worth caching.
func (c *BoltCache) Put(path, strategy string, res ocr.ExtractionResult) error {
	if res.Text == "" || res.Confidence <= 0 {
		return nil
	}
	key, err := Key(path, strategy)
	if err != nil {
		return err
	}
	b, err := json.Marshal(entry{
		Text:       res.Text,
		Confidence: res.Confidence,
		Strategy:   res.Strategy,
		Metadata:   res.Metadata,
		StoredAt:   c.now().UTC(),
	})
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketResults).Put([]byte(key), b)
	})
}

// ClearExpired deletes every entry older than the TTL and reports how many went.
func (c *BoltCache) ClearExpired() (int, error) {
	var removed int
	err := c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketResults)
		var stale [][]byte
		if err := b.ForEach(func(k, v []byte) error {
			if c.isExpired(v) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		c.logger.Info("cleared expired cache entries", "removed", removed)
	}
	return removed, nil
}

func (c *BoltCache) Stats() (Stats, error) {
	var s Stats
	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketResults).ForEach(func(_, v []byte) error {
			s.Entries++
			s.Bytes += len(v)
			if c.isExpired(v) {
				s.Expired++
			}
			return nil
		})
	})
	return s, err
}

func (c *BoltCache) isExpired(raw []byte) bool {
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return true
	}
	return c.now().Sub(e.StoredAt) > c.ttl
}
