// Package prefs persists client-local UI preferences in a bbolt file.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/evstack/atlas-sub000/internal/apperror"
)

// ErrClosed is returned when operating on a closed store.
var ErrClosed = errors.New("prefs store closed")

var bucketPrefs = []byte("prefs")

var keyAutoRefresh = []byte("auto_refresh")

// Store is a tiny typed key-value store over bbolt.
type Store struct {
	db *bolt.DB
}

// Open creates the file and bucket when missing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, apperror.New(apperror.CodePrefsError, apperror.WithContext(path), apperror.WithCause(err))
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, apperror.New(apperror.CodePrefsError, apperror.WithContext(path), apperror.WithCause(err))
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPrefs)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, apperror.New(apperror.CodePrefsError, apperror.WithContext("create bucket"), apperror.WithCause(err))
	}

	return &Store{db: db}, nil
}

// AutoRefresh reports whether the latest-blocks view follows new blocks.
// Unset means enabled.
func (s *Store) AutoRefresh() (bool, error) {
	return s.getBool(keyAutoRefresh, true)
}

func (s *Store) SetAutoRefresh(enabled bool) error {
	return s.setBool(keyAutoRefresh, enabled)
}

func (s *Store) getBool(key []byte, def bool) (bool, error) {
	if s.db == nil {
		return def, ErrClosed
	}

	value := def
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketPrefs).Get(key)
		if len(v) == 1 {
			value = v[0] == 1
		}
		return nil
	})
	if err != nil {
		return def, fmt.Errorf("read %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) setBool(key []byte, value bool) error {
	if s.db == nil {
		return ErrClosed
	}

	b := []byte{0}
	if value {
		b[0] = 1
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPrefs).Put(key, b)
	})
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
