// Package htmllist scrapes access points from sites that publish them as a
// list of HTML elements, one element per access point.
package htmllist

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/weppos/publicsuffix-go/publicsuffix"

	"github.com/floatplanner/apscrape/pkg/accesspoint"
	"github.com/floatplanner/apscrape/pkg/classify"
	"github.com/floatplanner/apscrape/pkg/geo"
	"github.com/floatplanner/apscrape/pkg/whttp"
)

// Config describes where a site lists access points and how to read them.
type Config struct {
	Source      accesspoint.Source
	DisplayName string
	BaseURL     string
	// PathFormat is appended to BaseURL with the river slug substituted.
	PathFormat string

	ItemSelector        string
	NameSelector        string
	DescriptionSelector string
	CoordinatesSelector string
	LinkSelector        string
}

var defaultSelectors = Config{
	ItemSelector:        ".access-point",
	NameSelector:        ".name",
	DescriptionSelector: ".description",
	CoordinatesSelector: ".coordinates",
	LinkSelector:        "a[href]",
}

var (
	MissouriScenicRivers = Config{
		Source:      accesspoint.SourceMissouriScenicRivers,
		DisplayName: "Missouri Scenic Rivers",
		BaseURL:     "https://missouriscenicrivers.com",
		PathFormat:  "/rivers/%s",
	}
	MOHERP = Config{
		Source:      accesspoint.SourceMOHERP,
		DisplayName: "MO HERP Rivers",
		BaseURL:     "https://rivers.moherp.org/rivers",
		PathFormat:  "/%s",
	}
	OzarkFloating = Config{
		Source:      accesspoint.SourceOzarkFloating,
		DisplayName: "Ozark Floating",
		BaseURL:     "https://www.ozarkfloating.com",
		PathFormat:  "/rivers/%s",
	}
)

type Scraper struct {
	cfg    Config
	client *retryablehttp.Client
}

// New returns a scraper for cfg. Empty selectors use the defaults.
func New(cfg Config, client *retryablehttp.Client) *Scraper {
	if cfg.ItemSelector == "" {
		cfg.ItemSelector = defaultSelectors.ItemSelector
	}
	if cfg.NameSelector == "" {
		cfg.NameSelector = defaultSelectors.NameSelector
	}
	if cfg.DescriptionSelector == "" {
		cfg.DescriptionSelector = defaultSelectors.DescriptionSelector
	}
	if cfg.CoordinatesSelector == "" {
		cfg.CoordinatesSelector = defaultSelectors.CoordinatesSelector
	}
	if cfg.LinkSelector == "" {
		cfg.LinkSelector = defaultSelectors.LinkSelector
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Scraper{cfg: cfg, client: client}
}

func (s *Scraper) Name() accesspoint.Source { return s.cfg.Source }
func (s *Scraper) DisplayName() string { return s.cfg.DisplayName }
func (s *Scraper) BaseURL() string { return s.cfg.BaseURL }

// PageURL is the listing page for a river.
func (s *Scraper) PageURL(riverSlug string) string {
	return s.cfg.BaseURL + fmt.Sprintf(s.cfg.PathFormat, url.PathEscape(riverSlug))
}

// Scrape fetches the river's listing page and turns every listed element
// with a name into a candidate.
func (s *Scraper) Scrape(ctx context.Context, riverSlug, riverName string) ([]accesspoint.Candidate, error) {
	pageURL := s.PageURL(riverSlug)
	body, err := whttp.Get(ctx, pageURL, s.client)
	if err != nil {
		return nil, err
	}
	return s.Parse(pageURL, body)
}

// Parse extracts candidates from a listing page fetched from pageURL.
func (s *Scraper) Parse(pageURL, body string) ([]accesspoint.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", pageURL, err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", pageURL, err)
	}

	var candidates []accesspoint.Candidate
	doc.Find(s.cfg.ItemSelector).Each(func(_ int, item *goquery.Selection) {
		name := strings.TrimSpace(item.Find(s.cfg.NameSelector).First().Text())
		if name == "" {
			return
		}
		description := strings.TrimSpace(item.Find(s.cfg.DescriptionSelector).First().Text())
		raw, _ := goquery.OuterHtml(item)

		sourceURL := pageURL
		if href, ok := item.Find(s.cfg.LinkSelector).First().Attr("href"); ok {
			if link, ok := sameSiteLink(base, href); ok {
				sourceURL = link
			}
		}

		candidates = append(candidates, classify.NewCandidate(s.cfg.Source, sourceURL, name, description, raw, s.location(item)))
	})
	return candidates, nil
}

// location reads data-lat/data-lng attributes first, then the coordinates
// element's text.
func (s *Scraper) location(item *goquery.Selection) *accesspoint.Coordinates {
	latAttr, okLat := item.Attr("data-lat")
	lngAttr, okLng := item.Attr("data-lng")
	if okLat && okLng {
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(latAttr), 64)
		lng, errLng := strconv.ParseFloat(strings.TrimSpace(lngAttr), 64)
		if errLat == nil && errLng == nil && geo.ValidCoordinate(lat, lng) {
			return &accesspoint.Coordinates{Lat: lat, Lng: lng}
		}
	}

	if loc, ok := geo.ParseCoordinates(item.Find(s.cfg.CoordinatesSelector).First().Text()); ok {
		return loc
	}
	return nil
}

// sameSiteLink resolves href against base and keeps it only when it points
// at the same registrable domain.
func sameSiteLink(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	abs.Fragment = ""

	if strings.EqualFold(abs.Hostname(), base.Hostname()) {
		return abs.String(), true
	}

	linkDomain, err := publicsuffix.Domain(strings.ToLower(abs.Hostname()))
	if err != nil {
		return "", false
	}
	baseDomain, err := publicsuffix.Domain(strings.ToLower(base.Hostname()))
	if err != nil {
		return "", false
	}
	return abs.String(), linkDomain == baseDomain
}
