// Package floatmissouri reads access points out of the river mile logs
// published on floatmissouri.com.
package floatmissouri

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/html"

	"github.com/floatplanner/apscrape/pkg/accesspoint"
	"github.com/floatplanner/apscrape/pkg/classify"
	"github.com/floatplanner/apscrape/pkg/whttp"
)

const DefaultBaseURL = "https://www.floatmissouri.com/plan/missouri-rivers"

var (
	milePattern = regexp.MustCompile(`(\d+\.\d+)\s+([^<]+)`)
	namePattern = regexp.MustCompile(`[,;(]| - `)
)

// Text fragments that mark a match as page furniture rather than a mile log.
var noisePatterns = []string{
	"http", "woo", "plugin", "responsive", "schema", "yoast",
	"mobile", "slider", "wordpress", "jquery", "css", "font",
	"script", "widget", "theme", "ajax", "admin", "content",
	"px", "em", "rem", "%", "rgb", "rgba", "var(", "calc(",
	"function", "return", "const", "let", "var ", "{", "}",
	"true", "false", "null", "undefined",
}

var accessKeywords = []string{"access", "put-in", "take-out", "takeout", "put in", "take out", "ramp", "landing"}

// MileMarker is one entry of a river mile log.
type MileMarker struct {
	Mile        float64
	Description string
	Raw         string
}

// IsAccess reports whether the entry describes a place to get on or off
// the river.
func (m MileMarker) IsAccess() bool {
	lower := strings.ToLower(m.Description)
	for _, k := range accessKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// Name is the leading part of the description, before any qualifier.
func (m MileMarker) Name() string {
	if loc := namePattern.FindStringIndex(m.Description); loc != nil && loc[0] > 0 {
		return strings.TrimSpace(m.Description[:loc[0]])
	}
	return strings.TrimSpace(m.Description)
}

func validDescription(desc string) bool {
	if len(desc) < 10 || desc[0] == '-' {
		return false
	}
	lower := strings.ToLower(desc)
	for _, noise := range noisePatterns {
		if strings.Contains(lower, noise) {
			return false
		}
	}
	return true
}

type Scraper struct {
	baseURL string
	client  *retryablehttp.Client
}

// New returns a scraper rooted at baseURL, or DefaultBaseURL when empty.
func New(baseURL string, client *retryablehttp.Client) *Scraper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Scraper{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (s *Scraper) Name() accesspoint.Source { return accesspoint.SourceFloatMissouri }

func (s *Scraper) DisplayName() string { return "Float Missouri" }

func (s *Scraper) BaseURL() string { return s.baseURL }

// Scrape fetches the river page and returns its access points in mile
// order. The mile logs carry no coordinates, so every candidate needs review.
func (s *Scraper) Scrape(ctx context.Context, riverSlug, riverName string) ([]accesspoint.Candidate, error) {
	pageURL := fmt.Sprintf("%s/%s/", s.baseURL, riverSlug)
	body, err := whttp.Get(ctx, pageURL, s.client)
	if err != nil {
		return nil, err
	}

	markers, err := ParseMileMarkers(body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", pageURL, err)
	}

	var candidates []accesspoint.Candidate
	for _, m := range markers {
		if !m.IsAccess() {
			continue
		}
		desc := fmt.Sprintf("River mile %s: %s", strconv.FormatFloat(m.Mile, 'f', -1, 64), m.Description)
		candidates = append(candidates, classify.NewCandidate(accesspoint.SourceFloatMissouri, pageURL, m.Name(), desc, m.Raw, nil))
	}
	return candidates, nil
}

// ParseMileMarkers extracts "12.5 Description" entries from the text of a
// page, drops noise and repeats, and sorts the rest by mile.
func ParseMileMarkers(body string) ([]MileMarker, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	doc.Find("script, style, noscript").Remove()

	type key struct {
		mile float64
		desc string
	}
	seen := make(map[key]bool)
	var markers []MileMarker

	doc.Find("body, body *").Contents().Each(func(_ int, sel *goquery.Selection) {
		node := sel.Get(0)
		if node.Type != html.TextNode {
			return
		}
		for _, m := range milePattern.FindAllStringSubmatch(node.Data, -1) {
			desc := strings.TrimSpace(m[2])
			if !validDescription(desc) {
				continue
			}
			mile, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}

			k := key{mile: mile, desc: prefix(desc, 50)}
			if seen[k] {
				continue
			}
			seen[k] = true
			markers = append(markers, MileMarker{Mile: mile, Description: desc, Raw: m[1] + " " + desc})
		}
	})

	sort.SliceStable(markers, func(i, j int) bool { return markers[i].Mile < markers[j].Mile })
	return markers, nil
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
