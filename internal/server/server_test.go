package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floatplanner/apscrape/pkg/accesspoint"
	"github.com/floatplanner/apscrape/pkg/storage"
)

func newTestServer(t *testing.T, user, pass string) *httptest.Server {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "apscrape.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	out := accesspoint.Output{
		RunID:     "run-1",
		River:     accesspoint.RiverRef{Slug: "current", Name: "Current River"},
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Sources:   []accesspoint.Source{accesspoint.SourceFloatMissouri},
		Stats:     accesspoint.Stats{TotalScraped: 2, Flagged: 1, Duplicates: 1},
		AccessPoints: []accesspoint.Verified{{
			Candidate:          accesspoint.Candidate{Name: "Cedargrove", Source: accesspoint.SourceFloatMissouri, Type: accesspoint.TypeBridge, NeedsReview: true},
			VerificationStatus: accesspoint.StatusSkipped,
		}},
		Duplicates: []accesspoint.DuplicateMatch{{
			Existing:       accesspoint.Existing{ID: "e1", Name: "Akers Ferry"},
			Scraped:        accesspoint.Verified{Candidate: accesspoint.Candidate{Name: "Akers Ferry Access", Source: accesspoint.SourceFloatMissouri}},
			Recommendation: accesspoint.RecommendSkip,
		}},
	}
	require.NoError(t, db.SaveRun(context.Background(), out))

	srv := httptest.NewServer(New(db, user, pass).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, v interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK && v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func TestRuns(t *testing.T) {
	srv := newTestServer(t, "", "")

	var runs []storage.Run
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/runs?river=current", &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)

	runs = nil
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/runs?river=meramec", &runs))
	assert.Empty(t, runs)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/runs?limit=abc", nil))

	var run storage.Run
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/runs/run-1", &run))
	assert.Equal(t, "Current River", run.RiverName)
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/runs/run-2", nil))
}

func TestRunPoints(t *testing.T) {
	srv := newTestServer(t, "", "")

	var points []storage.RunPoint
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/runs/run-1/points", &points))
	require.Len(t, points, 2)

	points = nil
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/runs/run-1/points?disposition=duplicate", &points))
	require.Len(t, points, 1)
	assert.Equal(t, "e1", points[0].ExistingID)

	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/runs/missing/points", nil))
}

func TestStats(t *testing.T) {
	srv := newTestServer(t, "", "")

	var stats []storage.RiverStats
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/stats", &stats))
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[0].Runs)
	assert.Equal(t, 1, stats[0].Flagged)
}

func TestBasicAuth(t *testing.T) {
	srv := newTestServer(t, "admin", "secret")

	assert.Equal(t, http.StatusUnauthorized, getJSON(t, srv.URL+"/api/stats", nil))

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/stats", nil)
	req.SetBasicAuth("admin", "secret")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req.SetBasicAuth("admin", "wrong")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
