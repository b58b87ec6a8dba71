package storage

import (
	"time"

	"github.com/floatplanner/apscrape/pkg/accesspoint"
)

// Disposition is where a point ended up in a run.
type Disposition string

const (
	DispositionUnique    Disposition = "unique"
	DispositionFlagged   Disposition = "flagged"
	DispositionDuplicate Disposition = "duplicate"
)

// Run is one recorded scrape of a river.
type Run struct {
	ID        string               `json:"id"`
	RiverSlug string               `json:"river_slug"`
	RiverName string               `json:"river_name"`
	StartedAt time.Time            `json:"started_at"`
	Sources   []accesspoint.Source `json:"sources"`
	Stats     accesspoint.Stats    `json:"stats"`
	Warnings  []string             `json:"warnings"`
}

// RunPoint is a single exported or duplicate point of a run.
type RunPoint struct {
	ID                 int64                          `json:"id"`
	RunID              string                         `json:"run_id"`
	Name               string                         `json:"name"`
	Source             accesspoint.Source             `json:"source"`
	Type               accesspoint.Type               `json:"type"`
	Disposition        Disposition                    `json:"disposition"`
	VerificationStatus accesspoint.VerificationStatus `json:"verification_status"`
	Latitude           *float64                       `json:"latitude,omitempty"`
	Longitude          *float64                       `json:"longitude,omitempty"`
	ExistingID         string                         `json:"existing_id,omitempty"`
	Recommendation     accesspoint.Recommendation     `json:"recommendation,omitempty"`
	Notes              string                         `json:"notes,omitempty"`
}

// RiverStats aggregates the history of one river.
type RiverStats struct {
	RiverSlug     string    `json:"river_slug"`
	RiverName     string    `json:"river_name"`
	Runs          int       `json:"runs"`
	LastRun       time.Time `json:"last_run"`
	TotalScraped  int       `json:"total_scraped"`
	ReadyToImport int       `json:"ready_to_import"`
	Duplicates    int       `json:"duplicates"`
	Flagged       int       `json:"flagged"`
}
