// Package boltstore keeps session tokens and client preferences in a bbolt
// file. The file is opened per operation so several client processes can
// share it.
package boltstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/MrJamesThe3rd/subtrack/internal/session"
)

const (
	sessionBucket = "session"
	prefsBucket   = "prefs"

	tokensKey = "tokens"
	themeKey  = "theme"
)

var _ session.Store = (*Store)(nil)

type Store struct {
	path    string
	timeout time.Duration
}

// New prepares a store at path, creating the parent directory if needed.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}

	s := &Store{path: path, timeout: time.Second}

	err := s.update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(sessionBucket)); err != nil {
			return err
		}

		_, err := tx.CreateBucketIfNotExists([]byte(prefsBucket))

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return s, nil
}

func (s *Store) open() (*bbolt.DB, error) {
	db, err := bbolt.Open(s.path, 0o600, &bbolt.Options{Timeout: s.timeout})
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	return db, nil
}

func (s *Store) update(fn func(tx *bbolt.Tx) error) error {
	db, err := s.open()
	if err != nil {
		return err
	}

	return errors.Join(db.Update(fn), db.Close())
}

func (s *Store) view(fn func(tx *bbolt.Tx) error) error {
	db, err := s.open()
	if err != nil {
		return err
	}

	return errors.Join(db.View(fn), db.Close())
}

func (s *Store) Load() (session.Tokens, error) {
	var t session.Tokens

	err := s.view(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(sessionBucket)).Get([]byte(tokensKey))
		if data == nil {
			return nil
		}

		return json.Unmarshal(data, &t)
	})
	if err != nil {
		return session.Tokens{}, fmt.Errorf("loading tokens: %w", err)
	}

	return t, nil
}

func (s *Store) Save(t session.Tokens) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshaling tokens: %w", err)
	}

	return s.update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(sessionBucket)).Put([]byte(tokensKey), data)
	})
}

func (s *Store) Clear() error {
	return s.update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(sessionBucket)).Delete([]byte(tokensKey))
	})
}

// Theme returns the saved theme, or "" when none was saved.
func (s *Store) Theme() (string, error) {
	var theme string

	err := s.view(func(tx *bbolt.Tx) error {
		theme = string(tx.Bucket([]byte(prefsBucket)).Get([]byte(themeKey)))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("loading theme: %w", err)
	}

	return theme, nil
}

func (s *Store) SetTheme(theme string) error {
	return s.update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(prefsBucket)).Put([]byte(themeKey), []byte(theme))
	})
}
