package store

import (
	"context"
	"strings"

	"github.com/dgraph-io/badger/v3"

	"github.com/dualsub/dualsub/pkg/log"
)

// BadgerStore keeps artifacts in an embedded badger database. Artifacts
// are served back through the addon's /files/ route like the local
// backend, without scattering loose files on disk.
type BadgerStore struct {
	db      *badger.DB
	baseURL string
}

// badgerLogger routes badger's chatter through pkg/log.
type badgerLogger struct{}

func (badgerLogger) Errorf(f string, v ...interface{})   { log.Error(f, v...) }
func (badgerLogger) Warningf(f string, v ...interface{}) { log.Warn(f, v...) }
func (badgerLogger) Infof(f string, v ...interface{})    { log.Debug(f, v...) }
func (badgerLogger) Debugf(f string, v ...interface{})   { log.Debug(f, v...) }

func NewBadgerStore(path, baseURL string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(badgerLogger{}).
		WithValueLogFileSize(1<<26 - 1)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *BadgerStore) Put(_ context.Context, name string, data []byte) (string, error) {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("artifact/"+name), data)
	})
	if err != nil {
		return "", err
	}
	return s.baseURL + "/files/" + name, nil
}

func (s *BadgerStore) Get(_ context.Context, name string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("artifact/" + name))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	return data, err
}

// RunGC reclaims value-log space. Wired to a periodic job.
func (s *BadgerStore) RunGC() {
	if err := s.db.RunValueLogGC(0.5); err != nil && err != badger.ErrNoRewrite {
		log.Warn("badger value log GC: %v", err)
	}
}

func (s *BadgerStore) Close() error { return s.db.Close() }
