// Package cache memoizes finished subtitle-list responses so repeated
// requests for the same content and language pair skip the pipeline.
package cache

import (
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/dualsub/dualsub/pkg/log"
)

// ResponseCache is a TTL'd key/value store backed by badger.
type ResponseCache struct {
	db *badger.DB
}

type badgerLogger struct{}

func (badgerLogger) Errorf(f string, v ...interface{})   { log.Error(f, v...) }
func (badgerLogger) Warningf(f string, v ...interface{}) { log.Warn(f, v...) }
func (badgerLogger) Infof(f string, v ...interface{})    { log.Debug(f, v...) }
func (badgerLogger) Debugf(f string, v ...interface{})   { log.Debug(f, v...) }

func Open(path string) (*ResponseCache, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(badgerLogger{}).
		WithValueLogFileSize(1<<26 - 1)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &ResponseCache{db: db}, nil
}

// Get returns the cached payload for key, if any.
func (c *ResponseCache) Get(key string) ([]byte, bool) {
	var data []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores payload under key for ttl.
func (c *ResponseCache) Set(key string, payload []byte, ttl time.Duration) {
	err := c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), payload).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		log.Warn("cache set %s: %v", key, err)
	}
}

// RunGC reclaims value-log space. Wired to a periodic job.
func (c *ResponseCache) RunGC() {
	if err := c.db.RunValueLogGC(0.5); err != nil && err != badger.ErrNoRewrite {
		log.Warn("cache value log GC: %v", err)
	}
}

func (c *ResponseCache) Close() error { return c.db.Close() }
