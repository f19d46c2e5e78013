// Package store persists analyzed frames in a badger database so the
// source collection only has to be analyzed once.
package store

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"

	xxhash "github.com/OneOfOne/xxhash"
	"github.com/dgraph-io/badger/v3"

	"github.com/fergarciadlc/amplab-audio-mosaicing/pkg/analysis"
)

const batchSize = 1000

var (
	framePrefix = []byte("frame/")
	paramsKey   = []byte("meta/params")
)

// Params records the analysis settings a store was built with. Frames
// analyzed with different settings are not comparable, so reuse with
// mismatching params is an error.
type Params struct {
	SampleRate int
	FrameSize  int
	BeatSync   bool
}

type Store struct {
	db *badger.DB
}

func Open(dir string) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("badger open %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func frameKey(frameID string) []byte {
	key := make([]byte, len(framePrefix)+8)
	copy(key, framePrefix)
	binary.BigEndian.PutUint64(key[len(framePrefix):], xxhash.Checksum64([]byte(frameID)))
	return key
}

// PutFrames writes frames in batches.
func (s *Store) PutFrames(frames []analysis.Frame) error {
	wb := s.db.NewWriteBatch()
	defer func() { wb.Cancel() }()
	count := 0
	for _, fr := range frames {
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(fr); err != nil {
			return err
		}
		if err := wb.Set(frameKey(fr.FrameID), buf.Bytes()); err != nil {
			return err
		}
		count++
		if count%batchSize == 0 {
			if err := wb.Flush(); err != nil {
				return err
			}
			wb = s.db.NewWriteBatch()
		}
	}
	return wb.Flush()
}

// All returns every stored frame.
func (s *Store) All() ([]analysis.Frame, error) {
	var frames []analysis.Frame
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = framePrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var fr analysis.Frame
				if err := gob.NewDecoder(bytes.NewReader(val)).Decode(&fr); err != nil {
					return err
				}
				frames = append(frames, fr)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return frames, nil
}

// SetParams records analysis params, failing on mismatch with params
// already stored.
func (s *Store) SetParams(p Params) error {
	existing, err := s.Params()
	if err != nil {
		return err
	}
	if existing != nil && *existing != p {
		return fmt.Errorf("store params mismatch: have %+v, want %+v", *existing, p)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(p); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(paramsKey, buf.Bytes())
	})
}

// Params returns the stored analysis params, or nil for a fresh store.
func (s *Store) Params() (*Params, error) {
	var p *Params
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(paramsKey)
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var got Params
			if err := gob.NewDecoder(bytes.NewReader(val)).Decode(&got); err != nil {
				return err
			}
			p = &got
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}
