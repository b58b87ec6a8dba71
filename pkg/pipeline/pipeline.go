// Package pipeline runs one scrape of a river end to end: scrape every
// source, drop internal duplicates, verify, cross-reference the system of
// record and assemble the run output.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/floatplanner/apscrape/pkg/accesspoint"
	"github.com/floatplanner/apscrape/pkg/dedupe"
	"github.com/floatplanner/apscrape/pkg/existing"
	"github.com/floatplanner/apscrape/pkg/geo"
	"github.com/floatplanner/apscrape/pkg/sources"
	"github.com/floatplanner/apscrape/pkg/verify"
)

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
	warnNoAPIKey      = "Google Places verification skipped - no API key"
	warnVerifyOff     = "Google Places verification skipped - disabled by configuration"
	warnNothingScrape = "No access points scraped from any source"
)

// Config holds the tunables of a run.
type Config struct {
	Thresholds    dedupe.Thresholds `mapstructure:"dedupe"`
	VerifyEnabled bool              `mapstructure:"verify_enabled"`
	VerifyDelay   time.Duration     `mapstructure:"verify_delay"`
	Region        string            `mapstructure:"region"`
	Bounds        geo.Bounds        `mapstructure:"bounds"`
}

// DefaultConfig returns the Missouri defaults with verification enabled.
func DefaultConfig() Config {
	return Config{
		Thresholds:    dedupe.DefaultThresholds(),
		VerifyEnabled: true,
		VerifyDelay:   verify.DefaultDelay,
		Region:        verify.DefaultRegion,
		Bounds:        geo.MissouriBounds,
	}
}

// Runner wires the stages of a run. Searcher may be nil when no API key is
// configured; every point is then skipped and flagged.
type Runner struct {
	Scrapers []sources.Scraper
	Searcher verify.Searcher
	Store    existing.Store
	Config   Config
	Log      Logger

	// Now and NewID default to time.Now and random UUIDs.
	Now   func() time.Time
	NewID func() string
}

// Result is the output of a run plus the partitions it was built from.
type Result struct {
	Output   accesspoint.Output
	Dedup    accesspoint.DeduplicationResult
	Existing int
}

// Run scrapes river. Source and verification failures become warnings; only
// failing to load the existing records aborts the run.
func (r *Runner) Run(ctx context.Context, river accesspoint.River) (*Result, error) {
	log := r.Log
	if log == nil {
		log = nopLogger{}
	}

	out := accesspoint.Output{
		RunID:        r.newID(),
		River:        accesspoint.RiverRef{Slug: river.Slug, Name: river.Name},
		Timestamp:    r.now(),
		Sources:      sources.Names(r.Scrapers),
		AccessPoints: []accesspoint.Verified{},
		Duplicates:   []accesspoint.DuplicateMatch{},
		Warnings:     []string{},
	}

	scraped := r.scrape(ctx, river, &out, log)
	out.Stats.TotalScraped = len(scraped)
	log.Infof("Total scraped: %d access points", len(scraped))

	if len(scraped) == 0 {
		log.Warnf(warnNothingScrape)
		out.Warnings = append(out.Warnings, warnNothingScrape)
		return &Result{Output: out, Dedup: emptyResult()}, nil
	}

	existingPoints, err := r.Store.ListAccessPoints(ctx, river.ID)
	if err != nil {
		return nil, fmt.Errorf("loading existing access points for %s: %w", river.Slug, err)
	}
	log.Infof("Found %d existing access points in database", len(existingPoints))

	d := dedupe.New(r.Config.Thresholds, log)
	candidates := d.Internal(scraped)

	verified := r.verify(ctx, candidates, river, &out, log)

	result := d.CrossReference(verified, existingPoints)

	out.Stats.Verified = countVerified(verified)
	out.Stats.Duplicates = len(result.Duplicates)
	out.Stats.Flagged = len(result.FlaggedForReview)
	out.Stats.ReadyToImport = result.ReadyToImport()
	out.AccessPoints = append(append(out.AccessPoints, result.Unique...), result.FlaggedForReview...)
	out.Duplicates = append(out.Duplicates, result.Duplicates...)

	return &Result{Output: out, Dedup: result, Existing: len(existingPoints)}, nil
}

func (r *Runner) scrape(ctx context.Context, river accesspoint.River, out *accesspoint.Output, log Logger) []accesspoint.Candidate {
	var scraped []accesspoint.Candidate
	for _, s := range r.Scrapers {
		log.Infof("Scraping %s...", s.DisplayName())
		points, err := s.Scrape(ctx, river.Slug, river.Name)
		if err != nil {
			msg := fmt.Sprintf("Failed to scrape %s: %v", s.DisplayName(), err)
			log.Errorf("%s", msg)
			out.Warnings = append(out.Warnings, msg)
			continue
		}
		log.Infof("Found %d access points on %s", len(points), s.DisplayName())
		scraped = append(scraped, points...)
	}
	return scraped
}

func (r *Runner) verify(ctx context.Context, candidates []accesspoint.Candidate, river accesspoint.River, out *accesspoint.Output, log Logger) []accesspoint.Verified {
	switch {
	case !r.Config.VerifyEnabled:
		log.Warnf(warnVerifyOff)
		out.Warnings = append(out.Warnings, warnVerifyOff)
		return verify.Skip(candidates, "Verification skipped - disabled by configuration")
	case r.Searcher == nil:
		log.Warnf(warnNoAPIKey)
		out.Warnings = append(out.Warnings, warnNoAPIKey)
		return verify.Skip(candidates, "Verification skipped - no API key")
	}

	v := verify.New(r.Searcher, verify.Options{
		Region: r.Config.Region,
		Bounds: r.Config.Bounds,
		Delay:  r.Config.VerifyDelay,
		Log:    log,
	})
	return v.VerifyAll(ctx, candidates, river.Name)
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

func (r *Runner) newID() string {
	if r.NewID != nil {
		return r.NewID()
	}
	return uuid.NewString()
}

func countVerified(points []accesspoint.Verified) int {
	n := 0
	for _, p := range points {
		if p.VerificationStatus == accesspoint.StatusVerified {
			n++
		}
	}
	return n
}

func emptyResult() accesspoint.DeduplicationResult {
	return accesspoint.DeduplicationResult{
		Unique:           []accesspoint.Verified{},
		Duplicates:       []accesspoint.DuplicateMatch{},
		FlaggedForReview: []accesspoint.Verified{},
	}
}
