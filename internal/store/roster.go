// Package store persists the client's user roster between runs.
// Messages are never stored anywhere; ephemerality is the product
// guarantee. Only usernames and last-seen times survive a restart.
package store

import (
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var bucketRoster = []byte("roster")

// Entry is one persisted roster record.
type Entry struct {
	Username string
	LastSeen time.Time
}

type RosterStore struct {
	db *bbolt.DB
}

func Open(path string) (*RosterStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open roster db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRoster)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create roster bucket: %w", err)
	}

	return &RosterStore{db: db}, nil
}

func (s *RosterStore) Close() error {
	return s.db.Close()
}

// PutAll upserts every entry in one transaction.
func (s *RosterStore) PutAll(entries []Entry) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRoster)
		for _, e := range entries {
			rec := &dbRosterEntry{
				Username: e.Username,
				LastSeen: e.LastSeen.Unix(),
			}
			data, err := rec.MarshalBinary()
			if err != nil {
				return err
			}
			if err := b.Put(rec.Key(), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// All returns every persisted roster entry.
func (s *RosterStore) All() ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRoster)
		return b.ForEach(func(k, v []byte) error {
			var rec dbRosterEntry
			if err := rec.UnmarshalBinary(v); err != nil {
				return err
			}
			entries = append(entries, Entry{
				Username: rec.Username,
				LastSeen: time.Unix(rec.LastSeen, 0),
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
