// Package usgs turns USGS stream gauges on a river into candidate access
// points. Gauges usually sit at a bridge or public access.
package usgs

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/floatplanner/apscrape/pkg/accesspoint"
	"github.com/floatplanner/apscrape/pkg/classify"
	"github.com/floatplanner/apscrape/pkg/geo"
	"github.com/floatplanner/apscrape/pkg/whttp"
)

const (
	DefaultServiceURL  = "https://waterservices.usgs.gov/nwis"
	DefaultStateCode   = "mo"
	monitoringLocation = "https://waterdata.usgs.gov/monitoring-location/%s/"

	gaugeReviewNote = "USGS gauge location - confirm river access"
)

type Config struct {
	ServiceURL string
	StateCode  string
}

type Scraper struct {
	cfg    Config
	client *retryablehttp.Client
}

func New(cfg Config, client *retryablehttp.Client) *Scraper {
	if cfg.ServiceURL == "" {
		cfg.ServiceURL = DefaultServiceURL
	}
	if cfg.StateCode == "" {
		cfg.StateCode = DefaultStateCode
	}
	cfg.ServiceURL = strings.TrimRight(cfg.ServiceURL, "/")
	return &Scraper{cfg: cfg, client: client}
}

func (s *Scraper) Name() accesspoint.Source { return accesspoint.SourceUSGS }

func (s *Scraper) DisplayName() string { return "USGS Water Data" }

func (s *Scraper) BaseURL() string { return "https://waterdata.usgs.gov" }

// SitesURL queries active stream gauges reporting discharge in the state.
func (s *Scraper) SitesURL() string {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("stateCd", s.cfg.StateCode)
	params.Set("parameterCd", "00060")
	params.Set("siteType", "ST")
	params.Set("siteStatus", "active")
	return s.cfg.ServiceURL + "/iv/?" + params.Encode()
}

// Scrape lists the state's gauges and keeps those named after the river.
func (s *Scraper) Scrape(ctx context.Context, riverSlug, riverName string) ([]accesspoint.Candidate, error) {
	body, err := whttp.Get(ctx, s.SitesURL(), s.client)
	if err != nil {
		return nil, err
	}
	if !gjson.Valid(body) {
		return nil, fmt.Errorf("usgs: invalid JSON response")
	}
	return ParseSites(body, riverName), nil
}

// ParseSites reads an NWIS instantaneous-values JSON document. Each site is
// reported once even when it carries several time series.
func ParseSites(body, riverName string) []accesspoint.Candidate {
	river := strings.ToLower(strings.TrimSpace(riverName))
	title := cases.Title(language.English)
	seen := make(map[string]bool)

	var candidates []accesspoint.Candidate
	for _, ts := range gjson.Get(body, "value.timeSeries").Array() {
		info := ts.Get("sourceInfo")
		siteName := info.Get("siteName").String()
		code := info.Get("siteCode.0.value").String()
		if code == "" || seen[code] {
			continue
		}
		if river == "" || !strings.Contains(strings.ToLower(siteName), river) {
			continue
		}
		seen[code] = true

		lat := info.Get("geoLocation.geogLocation.latitude").Float()
		lng := info.Get("geoLocation.geogLocation.longitude").Float()
		var loc *accesspoint.Coordinates
		if (lat != 0 || lng != 0) && geo.ValidCoordinate(lat, lng) {
			loc = &accesspoint.Coordinates{Lat: lat, Lng: lng}
		}

		name := title.String(strings.ToLower(strings.TrimSuffix(strings.TrimSpace(siteName), ", MO")))
		c := classify.NewCandidate(accesspoint.SourceUSGS, fmt.Sprintf(monitoringLocation, code), name,
			"USGS stream gauge "+code, info.Raw, loc)
		candidates = append(candidates, c.WithReviewNote(gaugeReviewNote))
	}
	return candidates
}
