package verify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/floatplanner/apscrape/pkg/accesspoint"
	"github.com/floatplanner/apscrape/pkg/geo"
)

// Searcher is the place-search capability a Verifier needs. *places.Client
// implements it.
type Searcher interface {
	TextSearch(ctx context.Context, query string, near *accesspoint.Coordinates) ([]accesspoint.PlaceMatch, error)
}

// Logger abstracts logging so callers can use logrus or any other logger
// that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

const (
	DefaultRegion = "Missouri"
	DefaultDelay  = 200 * time.Millisecond

	// ambiguousAbove is the result count above which a match is ambiguous.
	ambiguousAbove = 3
)

// Options configures a Verifier. Zero values fall back to the Missouri
// defaults.
type Options struct {
	Region string        // appended to every search query
	Bounds geo.Bounds    // verified points outside are flagged, not moved
	Delay  time.Duration // spacing between successive candidates
	Log    Logger
}

// Verifier confirms candidates against a Searcher, one at a time.
type Verifier struct {
	search  Searcher
	region  string
	bounds  geo.Bounds
	limiter *rate.Limiter
	log     Logger
}

// New returns a Verifier backed by s.
func New(s Searcher, opts Options) *Verifier {
	if opts.Region == "" {
		opts.Region = DefaultRegion
	}
	if opts.Bounds.IsZero() {
		opts.Bounds = geo.MissouriBounds
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Log == nil {
		opts.Log = nopLogger{}
	}
	return &Verifier{
		search:  s,
		region:  opts.Region,
		bounds:  opts.Bounds,
		limiter: rate.NewLimiter(rate.Every(opts.Delay), 1),
		log:     opts.Log,
	}
}

// BuildSearchQuery joins the access point name, the river name when the
// name does not already mention it, and the region.
func BuildSearchQuery(name, riverName, region string) string {
	parts := []string{name}
	if riverName != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(riverName)) {
		parts = append(parts, riverName)
	}
	if region != "" {
		parts = append(parts, region)
	}
	return strings.Join(parts, " ")
}

// Verify looks the candidate up and returns an enriched copy. It never
// fails: search errors yield a skipped point flagged for review.
func (v *Verifier) Verify(ctx context.Context, c accesspoint.Candidate, riverName string) accesspoint.Verified {
	query := BuildSearchQuery(c.Name, riverName, v.region)
	v.log.Debugf("Searching: %q", query)

	results, err := v.search.TextSearch(ctx, query, c.Location)
	if err != nil {
		v.log.Warnf("Error verifying %q: %v", c.Name, err)
		return accesspoint.Verified{
			Candidate:          c.WithReviewNote("Verification failed due to API error"),
			VerificationStatus: accesspoint.StatusSkipped,
			VerificationNotes:  fmt.Sprintf("Error: %v", err),
		}
	}

	if len(results) == 0 {
		return accesspoint.Verified{
			Candidate:          c.WithReviewNote("Could not verify location with Google Places"),
			VerificationStatus: accesspoint.StatusNotFound,
			VerificationNotes:  "No results found in Google Places",
		}
	}

	best := results[0]
	best.Confidence = accesspoint.ConfidenceMedium
	if len(results) == 1 {
		best.Confidence = accesspoint.ConfidenceHigh
	}

	if !v.bounds.Contains(best.Latitude, best.Longitude) {
		return accesspoint.Verified{
			Candidate: c.WithReviewNote(fmt.Sprintf("Google Places coordinates (%v, %v) are outside %s bounds",
				best.Latitude, best.Longitude, v.region)),
			Places:             &best,
			VerificationStatus: accesspoint.StatusVerified,
			VerificationNotes:  "Found but coordinates outside " + v.region,
		}
	}

	enriched := c
	enriched.Location = &accesspoint.Coordinates{Lat: best.Latitude, Lng: best.Longitude}
	enriched.DirectionsOverride = best.Name

	out := accesspoint.Verified{
		Candidate:          enriched,
		Places:             &best,
		VerificationStatus: accesspoint.StatusVerified,
		VerificationNotes:  fmt.Sprintf("Verified with Google Places (%d results)", len(results)),
	}
	if len(results) > ambiguousAbove {
		out.Candidate = out.Candidate.WithReviewNote(fmt.Sprintf("Ambiguous: %d Google Places results found", len(results)))
		out.VerificationStatus = accesspoint.StatusAmbiguous
	}

	v.log.Debugf("Verified: %s (%s)", best.Name, best.FormattedAddress)
	return out
}

// VerifyAll verifies candidates sequentially, in order, spacing successive
// searches by the configured delay. When ctx is cancelled the remaining
// candidates are returned as skipped so the output always matches the input.
func (v *Verifier) VerifyAll(ctx context.Context, candidates []accesspoint.Candidate, riverName string) []accesspoint.Verified {
	v.log.Infof("Verifying %d access points with Google Places", len(candidates))

	out := make([]accesspoint.Verified, 0, len(candidates))
	for i, c := range candidates {
		if err := v.limiter.Wait(ctx); err != nil {
			v.log.Warnf("Verification interrupted: %v", err)
			out = append(out, Skip(candidates[i:], "Verification interrupted before this point was checked")...)
			break
		}
		v.log.Debugf("[%d/%d] %s", i+1, len(candidates), c.Name)
		out = append(out, v.Verify(ctx, c, riverName))
	}
	return out
}

// Skip marks every candidate as skipped and flags it for review with reason.
func Skip(candidates []accesspoint.Candidate, reason string) []accesspoint.Verified {
	out := make([]accesspoint.Verified, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, accesspoint.Verified{
			Candidate:          c.WithReviewNote(reason),
			VerificationStatus: accesspoint.StatusSkipped,
			VerificationNotes:  reason,
		})
	}
	return out
}
