// Package localstore persists small client records (identity, wallet session)
// across restarts, the way a browser keeps them in local storage.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// ErrNotFound is returned for absent keys.
var ErrNotFound = errors.New("localstore: key not found")

// KV is a string-keyed byte store. Each key is read and written independently.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Options configures Open.
type Options struct {
	Path     string // directory for on-disk storage; ignored when InMemory
	InMemory bool
}

// Badger is a KV backed by an embedded badger database.
type Badger struct {
	db *badger.DB
}

// Open opens (creating if needed) the store.
func Open(opts Options, logger *zap.Logger) (*Badger, error) {
	bopts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = badgerLogger{logger.Named("badger").Sugar()}
	// a handful of small records; keep the footprint tiny
	bopts = bopts.WithNumVersionsToKeep(1).WithValueLogFileSize(16 << 20)

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Get(key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Badger) Set(key string, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// Delete removes key. Deleting an absent key is not an error.
func (b *Badger) Delete(key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (b *Badger) Close() error {
	return b.db.Close()
}

// GetJSON decodes the JSON record under key into v.
func GetJSON(kv KV, key string, v any) error {
	data, err := kv.Get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// SetJSON stores v as a JSON record under key.
func SetJSON(kv KV, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return kv.Set(key, data)
}

// badgerLogger routes badger's internal logging through zap. Info is demoted
// to debug since badger is chatty on open and compaction.
type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l badgerLogger) Errorf(f string, args ...interface{})   { l.s.Errorf(f, args...) }
func (l badgerLogger) Warningf(f string, args ...interface{}) { l.s.Warnf(f, args...) }
func (l badgerLogger) Infof(f string, args ...interface{})    { l.s.Debugf(f, args...) }
func (l badgerLogger) Debugf(f string, args ...interface{})   { l.s.Debugf(f, args...) }
