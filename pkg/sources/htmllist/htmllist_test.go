package htmllist

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floatplanner/apscrape/pkg/accesspoint"
	"github.com/floatplanner/apscrape/pkg/whttp"
)

const listing = `<html><body>
<ul>
  <li class="access-point" data-lat="37.3757" data-lng="-91.5526">
    <a href="/access/akers-ferry#map"><span class="name">Akers Ferry</span></a>
    <p class="description">MDC concrete ramp with parking and restrooms.</p>
  </li>
  <li class="access-point">
    <span class="name">Cedargrove</span>
    <p class="description">Gravel bar access on river right.</p>
    <span class="coordinates">37.4216, -91.6083</span>
    <a href="https://facebook.com/cedargrove">Facebook</a>
  </li>
  <li class="access-point">
    <span class="name">Welch Spring</span>
    <p class="description">Privately owned, ask the outfitter.</p>
    <a href="https://maps.missouriscenicrivers.com/welch">Map</a>
  </li>
  <li class="access-point"><span class="name">  </span></li>
</ul>
</body></html>`

func TestParse(t *testing.T) {
	s := New(MissouriScenicRivers, nil)
	got, err := s.Parse("https://missouriscenicrivers.com/rivers/current", listing)
	require.NoError(t, err)
	require.Len(t, got, 3)

	akers := got[0]
	assert.Equal(t, "Akers Ferry", akers.Name)
	assert.Equal(t, accesspoint.SourceMissouriScenicRivers, akers.Source)
	assert.Equal(t, "https://missouriscenicrivers.com/access/akers-ferry", akers.SourceURL)
	assert.Equal(t, &accesspoint.Coordinates{Lat: 37.3757, Lng: -91.5526}, akers.Location)
	assert.Equal(t, accesspoint.TypeBoatRamp, akers.Type)
	assert.Equal(t, accesspoint.OwnershipMDC, akers.Ownership)
	assert.Equal(t, []string{"parking", "restrooms", "boat_ramp"}, akers.Amenities)
	assert.False(t, akers.NeedsReview)
	assert.Contains(t, akers.RawData, "access-point")

	cedar := got[1]
	assert.Equal(t, &accesspoint.Coordinates{Lat: 37.4216, Lng: -91.6083}, cedar.Location)
	assert.Equal(t, "https://missouriscenicrivers.com/rivers/current", cedar.SourceURL, "off-site links are ignored")
	assert.Equal(t, accesspoint.TypeGravelBar, cedar.Type)

	welch := got[2]
	assert.Equal(t, "https://maps.missouriscenicrivers.com/welch", welch.SourceURL)
	assert.False(t, welch.IsPublic)
	assert.Nil(t, welch.Location)
	assert.True(t, welch.NeedsReview)
	assert.Contains(t, welch.ReviewNotes, "Missing coordinates")
}

func TestScrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rivers/jacks-fork" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<div class="access-point"><b class="name">Alley Spring</b><a href="/a/alley">x</a></div>`)
	}))
	defer srv.Close()

	cfg := OzarkFloating
	cfg.BaseURL = srv.URL + "/"
	s := New(cfg, whttp.NewClient(0))
	assert.Equal(t, accesspoint.SourceOzarkFloating, s.Name())
	assert.Equal(t, "Ozark Floating", s.DisplayName())

	got, err := s.Scrape(context.Background(), "jacks-fork", "Jacks Fork")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Alley Spring", got[0].Name)
	assert.Equal(t, srv.URL+"/a/alley", got[0].SourceURL)

	_, err = s.Scrape(context.Background(), "eleven-point", "Eleven Point")
	assert.Error(t, err)
}

func TestSameSiteLink(t *testing.T) {
	base, _ := url.Parse("https://rivers.moherp.org/rivers/current")

	tests := []struct {
		href string
		want string
		ok   bool
	}{
		{"/rivers/current/akers", "https://rivers.moherp.org/rivers/current/akers", true},
		{"akers", "https://rivers.moherp.org/rivers/akers", true},
		{"https://www.moherp.org/about", "https://www.moherp.org/about", true},
		{"https://moherp.com/about", "", false},
		{"mailto:info@moherp.org", "", false},
		{"javascript:void(0)", "", false},
	}
	for _, tc := range tests {
		got, ok := sameSiteLink(base, tc.href)
		assert.Equal(t, tc.ok, ok, tc.href)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.href)
		}
	}
}
