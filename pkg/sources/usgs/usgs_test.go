package usgs

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floatplanner/apscrape/pkg/accesspoint"
	"github.com/floatplanner/apscrape/pkg/whttp"
)

const sites = `{"value": {"timeSeries": [
  {"sourceInfo": {"siteName": "CURRENT RIVER AT VAN BUREN, MO",
    "siteCode": [{"value": "07067000", "agencyCode": "USGS"}],
    "geoLocation": {"geogLocation": {"latitude": 36.9914, "longitude": -91.0135}}}},
  {"sourceInfo": {"siteName": "CURRENT RIVER AT VAN BUREN, MO",
    "siteCode": [{"value": "07067000", "agencyCode": "USGS"}],
    "geoLocation": {"geogLocation": {"latitude": 36.9914, "longitude": -91.0135}}}},
  {"sourceInfo": {"siteName": "JACKS FORK AT ALLEY SPRING, MO",
    "siteCode": [{"value": "07065495", "agencyCode": "USGS"}],
    "geoLocation": {"geogLocation": {"latitude": 37.1508, "longitude": -91.4454}}}},
  {"sourceInfo": {"siteName": "CURRENT RIVER AT DONIPHAN, MO",
    "siteCode": [{"value": "07068000", "agencyCode": "USGS"}],
    "geoLocation": {"geogLocation": {"latitude": 0, "longitude": 0}}}}
]}}`

func TestParseSites(t *testing.T) {
	got := ParseSites(sites, "Current River")
	require.Len(t, got, 2)

	vb := got[0]
	assert.Equal(t, "Current River At Van Buren", vb.Name)
	assert.Equal(t, accesspoint.SourceUSGS, vb.Source)
	assert.Equal(t, "https://waterdata.usgs.gov/monitoring-location/07067000/", vb.SourceURL)
	assert.Equal(t, &accesspoint.Coordinates{Lat: 36.9914, Lng: -91.0135}, vb.Location)
	assert.True(t, vb.NeedsReview)
	assert.Equal(t, "USGS gauge location - confirm river access", vb.ReviewNotes[len(vb.ReviewNotes)-1])

	assert.Nil(t, got[1].Location)
	assert.Contains(t, got[1].ReviewNotes, "Missing coordinates")

	assert.Empty(t, ParseSites(sites, ""))
	assert.Len(t, ParseSites(sites, "jacks fork"), 1)
}

func TestScrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/nwis/iv/", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "mo", r.URL.Query().Get("stateCd"))
		fmt.Fprint(w, sites)
	}))
	defer srv.Close()

	s := New(Config{ServiceURL: srv.URL + "/nwis"}, whttp.NewClient(0))
	got, err := s.Scrape(context.Background(), "jacks-fork", "Jacks Fork")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Jacks Fork At Alley Spring", got[0].Name)
}

func TestScrapeInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>maintenance</html>")
	}))
	defer srv.Close()

	_, err := New(Config{ServiceURL: srv.URL}, whttp.NewClient(0)).Scrape(context.Background(), "current", "Current River")
	assert.Error(t, err)
}
