// Package catalog persists metadata of the downloaded source sounds.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Record is the stored metadata of one downloaded sound.
type Record struct {
	FreesoundID string   `json:"freesound_id" bson:"freesound_id"`
	Name        string   `json:"name" bson:"name"`
	Username    string   `json:"username" bson:"username"`
	License     string   `json:"license" bson:"license"`
	Tags        []string `json:"tags" bson:"tags"`
	Path        string   `json:"path" bson:"path"`
	Checksum    uint64   `json:"checksum" bson:"checksum"`

	// Embedded metadata read from the file itself, when present.
	Title  string `json:"title,omitempty" bson:"title,omitempty"`
	Artist string `json:"artist,omitempty" bson:"artist,omitempty"`
}

// Store saves and loads the collection catalog.
type Store interface {
	Save(ctx context.Context, records []Record) error
	Load(ctx context.Context) ([]Record, error)
}

// FileStore keeps the catalog in a JSON file next to the downloads.
type FileStore struct {
	Path string
}

func (fs *FileStore) Save(_ context.Context, records []Record) error {
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(fs.Path, b, 0644)
}

func (fs *FileStore) Load(_ context.Context) ([]Record, error) {
	b, err := os.ReadFile(fs.Path)
	if err != nil {
		return nil, err
	}
	var records []Record
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", fs.Path, err)
	}
	return records, nil
}

// ByID indexes records by their Freesound ID.
func ByID(records []Record) map[string]Record {
	m := make(map[string]Record, len(records))
	for _, r := range records {
		m[r.FreesoundID] = r
	}
	return m
}
