package existing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/floatplanner/apscrape/pkg/accesspoint"
)

const snapshot = `{
  "rivers": [
    {"id": "r-current", "slug": "current", "name": "Current River", "length_miles": 184, "region": "Ozarks"},
    {"id": "r-jacks", "slug": "jacks-fork", "name": "Jacks Fork", "length_miles": 46, "region": "Ozarks"}
  ],
  "accessPoints": [
    {"id": "a1", "river_id": "r-current", "name": "Akers Ferry", "slug": "akers-ferry", "type": "boat_ramp",
     "latitude": 37.3757, "longitude": -91.5526, "approved": true},
    {"id": "a2", "river_id": "r-jacks", "name": "Alley Spring", "slug": "alley-spring", "type": "access",
     "latitude": 0, "longitude": 0, "approved": false},
    {"id": "a3", "river_id": "r-current", "name": "Pulltite", "slug": "pulltite", "type": "campground",
     "latitude": 37.3347, "longitude": -91.4789, "approved": false}
  ]
}`

func writeSnapshot(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "existing.json")
	if err := os.WriteFile(path, []byte(snapshot), 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	return path
}

func TestFileStore(t *testing.T) {
	store, err := OpenFileStore(writeSnapshot(t))
	if err != nil {
		t.Fatalf("OpenFileStore: %v", err)
	}
	ctx := context.Background()

	rivers, err := store.ListRivers(ctx)
	if err != nil || len(rivers) != 2 {
		t.Fatalf("ListRivers = %v, %v", rivers, err)
	}
	if rivers[0].LengthMiles != 184 {
		t.Fatalf("length_miles not decoded: %+v", rivers[0])
	}

	points, err := store.ListAccessPoints(ctx, "r-current")
	if err != nil {
		t.Fatalf("ListAccessPoints: %v", err)
	}
	if len(points) != 2 || points[0].ID != "a1" || points[1].ID != "a3" {
		t.Fatalf("unexpected points: %+v", points)
	}
	if !points[0].Approved || points[0].Type != accesspoint.TypeBoatRamp {
		t.Fatalf("fields not decoded: %+v", points[0])
	}

	jacks, _ := store.ListAccessPoints(ctx, "r-jacks")
	if len(jacks) != 1 || jacks[0].HasCoordinates() {
		t.Fatalf("zero geometry should read as missing coordinates: %+v", jacks)
	}

	none, _ := store.ListAccessPoints(ctx, "r-unknown")
	if len(none) != 0 {
		t.Fatalf("expected no points, got %d", len(none))
	}
}

func TestOpenFileStoreErrors(t *testing.T) {
	if _, err := OpenFileStore(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte("{not json"), 0o644)
	if _, err := OpenFileStore(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestFindRiver(t *testing.T) {
	rivers := []accesspoint.River{{ID: "1", Slug: "current"}, {ID: "2", Slug: "meramec"}}

	r, err := FindRiver(rivers, " meramec ")
	if err != nil || r.ID != "2" {
		t.Fatalf("FindRiver = %+v, %v", r, err)
	}

	_, err = FindRiver(rivers, "gasconade")
	if !errors.Is(err, ErrRiverNotFound) {
		t.Fatalf("expected ErrRiverNotFound, got %v", err)
	}
}

// Runs against a real database when APSCRAPE_TEST_DATABASE_URL is set.
func TestPostgresStore(t *testing.T) {
	url := os.Getenv("APSCRAPE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("APSCRAPE_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	store, err := Connect(ctx, url)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer store.Close()

	rivers, err := store.ListRivers(ctx)
	if err != nil {
		t.Fatalf("ListRivers: %v", err)
	}
	if len(rivers) > 0 {
		if _, err := store.ListAccessPoints(ctx, rivers[0].ID); err != nil {
			t.Fatalf("ListAccessPoints: %v", err)
		}
	}
}
