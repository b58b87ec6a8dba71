package places

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/floatplanner/apscrape/pkg/accesspoint"
)

// ErrMissingAPIKey is returned by New when no API key is configured.
var ErrMissingAPIKey = errors.New("google places api key not configured")

const (
	defaultBaseURL        = "https://maps.googleapis.com/maps/api/place"
	defaultLanguage       = "en"
	defaultRegion         = "us"
	defaultSearchRadius   = 5000
	defaultRateLimit      = 50
	defaultRateLimitPause = time.Second
	defaultRetryMax       = 2
	defaultRetryWaitMin   = time.Second
	defaultRetryWaitMax   = 4 * time.Second
)

// Config controls how the Places client talks to the API. Zero values fall
// back to the defaults above.
type Config struct {
	APIKey       string
	BaseURL      string
	Language     string
	Region       string
	SearchRadius int // meters around the bias point

	// RateLimit is the number of requests after which the client pauses for
	// RateLimitPause.
	RateLimit      int
	RateLimitPause time.Duration

	// RetryMax is the number of retries after the first attempt. Waits start
	// at RetryWaitMin and double up to RetryWaitMax.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	HTTPClient *http.Client
}

// Client queries the Google Places web service. It is not safe for
// concurrent use; the request counter assumes a single caller.
type Client struct {
	cfg          Config
	http         *retryablehttp.Client
	requestCount int
	sleep        func(ctx context.Context, d time.Duration) error
}

// New builds a Client from cfg.
func New(cfg Config) (*Client, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Language == "" {
		cfg.Language = defaultLanguage
	}
	if cfg.Region == "" {
		cfg.Region = defaultRegion
	}
	if cfg.SearchRadius <= 0 {
		cfg.SearchRadius = defaultSearchRadius
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateLimitPause <= 0 {
		cfg.RateLimitPause = defaultRateLimitPause
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = defaultRetryMax
	}
	if cfg.RetryWaitMin <= 0 {
		cfg.RetryWaitMin = defaultRetryWaitMin
	}
	if cfg.RetryWaitMax <= 0 {
		cfg.RetryWaitMax = defaultRetryWaitMax
	}

	retryClient := retryablehttp.NewClient()
	retryClient.Logger = log.New(io.Discard, "", 0)
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	if cfg.HTTPClient != nil {
		retryClient.HTTPClient = cfg.HTTPClient
	}

	return &Client{cfg: cfg, http: retryClient, sleep: sleepContext}, nil
}

// TextSearch runs a free-text place search, optionally biased toward near.
// Results keep the API's ranking.
func (c *Client) TextSearch(ctx context.Context, query string, near *accesspoint.Coordinates) ([]accesspoint.PlaceMatch, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("key", c.cfg.APIKey)
	params.Set("language", c.cfg.Language)
	params.Set("region", c.cfg.Region)
	if near != nil {
		params.Set("location", formatLatLng(*near))
		params.Set("radius", strconv.Itoa(c.cfg.SearchRadius))
	}

	body, err := c.get(ctx, "/textsearch/json", params)
	if err != nil {
		return nil, err
	}

	status := gjson.Get(body, "status").String()
	if status != "OK" && status != "ZERO_RESULTS" {
		return nil, apiError(body, status)
	}

	results := gjson.Get(body, "results").Array()
	matches := make([]accesspoint.PlaceMatch, 0, len(results))
	for _, r := range results {
		matches = append(matches, parsePlace(r))
	}
	return matches, nil
}

// PlaceDetails fetches one place by id. It returns nil without error when
// the API does not answer OK.
func (c *Client) PlaceDetails(ctx context.Context, placeID string) (*accesspoint.PlaceMatch, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("key", c.cfg.APIKey)
	params.Set("language", c.cfg.Language)

	body, err := c.get(ctx, "/details/json", params)
	if err != nil {
		return nil, err
	}
	if gjson.Get(body, "status").String() != "OK" {
		return nil, nil
	}

	place := parsePlace(gjson.Get(body, "result"))
	return &place, nil
}

// Requests returns how many requests the client has issued.
func (c *Client) Requests() int {
	return c.requestCount
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (string, error) {
	if err := c.throttle(ctx); err != nil {
		return "", err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("building places request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("places request %s: %w", path, redactKey(err, c.cfg.APIKey))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading places response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return string(data), nil
}

// throttle pauses after every RateLimit requests.
func (c *Client) throttle(ctx context.Context) error {
	c.requestCount++
	if c.requestCount%c.cfg.RateLimit == 0 {
		return c.sleep(ctx, c.cfg.RateLimitPause)
	}
	return nil
}

func parsePlace(r gjson.Result) accesspoint.PlaceMatch {
	var types []string
	for _, t := range r.Get("types").Array() {
		types = append(types, t.String())
	}
	return accesspoint.PlaceMatch{
		PlaceID:          r.Get("place_id").String(),
		Name:             r.Get("name").String(),
		FormattedAddress: r.Get("formatted_address").String(),
		Latitude:         r.Get("geometry.location.lat").Float(),
		Longitude:        r.Get("geometry.location.lng").Float(),
		Types:            types,
	}
}

func apiError(body, status string) error {
	msg := gjson.Get(body, "error_message").String()
	if msg == "" {
		msg = "Unknown error"
	}
	return fmt.Errorf("places API error: %s - %s", status, msg)
}

func formatLatLng(c accesspoint.Coordinates) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}

// redactKey keeps the API key out of errors that echo the request URL.
func redactKey(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), key, "REDACTED"))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
