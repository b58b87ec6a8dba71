// Package existing reads the rivers and access points already stored in the
// planner's database. It is read-only.
package existing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/floatplanner/apscrape/pkg/accesspoint"
)

var ErrRiverNotFound = errors.New("river not found")

// Store lists records from the system of record.
type Store interface {
	ListRivers(ctx context.Context) ([]accesspoint.River, error)
	ListAccessPoints(ctx context.Context, riverID string) ([]accesspoint.Existing, error)
}

// FindRiver returns the river with the given slug.
func FindRiver(rivers []accesspoint.River, slug string) (accesspoint.River, error) {
	slug = strings.TrimSpace(slug)
	for _, r := range rivers {
		if r.Slug == slug {
			return r, nil
		}
	}
	return accesspoint.River{}, fmt.Errorf("%w: %s", ErrRiverNotFound, slug)
}

// Snapshot is the on-disk form read by FileStore.
type Snapshot struct {
	Rivers       []accesspoint.River    `json:"rivers"`
	AccessPoints []accesspoint.Existing `json:"accessPoints"`
}

// FileStore serves a Snapshot loaded from a JSON file.
type FileStore struct {
	snap Snapshot
}

func OpenFileStore(path string) (*FileStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return NewFileStore(snap), nil
}

func NewFileStore(snap Snapshot) *FileStore {
	return &FileStore{snap: snap}
}

func (s *FileStore) ListRivers(ctx context.Context) ([]accesspoint.River, error) {
	rivers := make([]accesspoint.River, len(s.snap.Rivers))
	copy(rivers, s.snap.Rivers)
	return rivers, nil
}

func (s *FileStore) ListAccessPoints(ctx context.Context, riverID string) ([]accesspoint.Existing, error) {
	var points []accesspoint.Existing
	for _, ap := range s.snap.AccessPoints {
		if ap.RiverID == riverID {
			points = append(points, ap)
		}
	}
	return points, nil
}
