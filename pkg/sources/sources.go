package sources

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/floatplanner/apscrape/pkg/accesspoint"
	"github.com/floatplanner/apscrape/pkg/sources/floatmissouri"
	"github.com/floatplanner/apscrape/pkg/sources/htmllist"
	"github.com/floatplanner/apscrape/pkg/sources/usgs"
)

// Scraper fetches candidate access points for one river from one site.
type Scraper interface {
	Name() accesspoint.Source
	DisplayName() string
	BaseURL() string
	Scrape(ctx context.Context, riverSlug, riverName string) ([]accesspoint.Candidate, error)
}

// Default returns a scraper for every known source in the default order.
func Default(client *retryablehttp.Client) []Scraper {
	return []Scraper{
		htmllist.New(htmllist.MissouriScenicRivers, client),
		usgs.New(usgs.Config{}, client),
		htmllist.New(htmllist.MOHERP, client),
		floatmissouri.New("", client),
		htmllist.New(htmllist.OzarkFloating, client),
	}
}

// Select keeps the scrapers named in wanted, in the order of wanted. An
// empty wanted keeps everything.
func Select(all []Scraper, wanted []accesspoint.Source) ([]Scraper, error) {
	if len(wanted) == 0 {
		return all, nil
	}

	byName := make(map[accesspoint.Source]Scraper, len(all))
	for _, s := range all {
		byName[s.Name()] = s
	}

	selected := make([]Scraper, 0, len(wanted))
	seen := make(map[accesspoint.Source]bool, len(wanted))
	for _, name := range wanted {
		s, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown source %q", name)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		selected = append(selected, s)
	}
	return selected, nil
}

// Names lists the source identifiers of scrapers.
func Names(scrapers []Scraper) []accesspoint.Source {
	names := make([]accesspoint.Source, 0, len(scrapers))
	for _, s := range scrapers {
		names = append(names, s.Name())
	}
	return names
}
