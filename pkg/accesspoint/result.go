package accesspoint

import (
	"encoding/json"
	"math"
	"time"
)

// DuplicateMatch pairs a verified candidate with the existing record it most
// likely duplicates.
type DuplicateMatch struct {
	Existing       Existing       `json:"existing"`
	Scraped        Verified       `json:"scraped"`
	MatchType      MatchType      `json:"matchType"`
	NameSimilarity float64        `json:"nameSimilarity"`
	DistanceMeters float64        `json:"distanceMeters"` // +Inf when either side has no coordinates
	Recommendation Recommendation `json:"recommendation"`
	Notes          string         `json:"notes"`
}

// MarshalJSON encodes an unknown (infinite) distance as null.
func (m DuplicateMatch) MarshalJSON() ([]byte, error) {
	type alias DuplicateMatch
	var distance *float64
	if !math.IsInf(m.DistanceMeters, 0) && !math.IsNaN(m.DistanceMeters) {
		d := m.DistanceMeters
		distance = &d
	}
	return json.Marshal(struct {
		alias
		DistanceMeters *float64 `json:"distanceMeters"`
	}{alias: alias(m), DistanceMeters: distance})
}

// UnmarshalJSON reverses MarshalJSON, mapping a null distance back to +Inf.
func (m *DuplicateMatch) UnmarshalJSON(data []byte) error {
	type alias DuplicateMatch
	aux := struct {
		*alias
		DistanceMeters *float64 `json:"distanceMeters"`
	}{alias: (*alias)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.DistanceMeters == nil {
		m.DistanceMeters = math.Inf(1)
	} else {
		m.DistanceMeters = *aux.DistanceMeters
	}
	return nil
}

// DeduplicationResult partitions the verified candidates of one run. Every
// input candidate lands in exactly one of the three lists.
type DeduplicationResult struct {
	Unique           []Verified       `json:"unique"`
	Duplicates       []DuplicateMatch `json:"duplicates"`
	FlaggedForReview []Verified       `json:"flaggedForReview"`
}

// Total is the number of candidates across all partitions.
func (r DeduplicationResult) Total() int {
	return len(r.Unique) + len(r.Duplicates) + len(r.FlaggedForReview)
}

// ReadyToImport counts unique points that need no review.
func (r DeduplicationResult) ReadyToImport() int {
	n := 0
	for _, ap := range r.Unique {
		if !ap.NeedsReview {
			n++
		}
	}
	return n
}

type RiverRef struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type Stats struct {
	TotalScraped  int `json:"totalScraped"`
	Verified      int `json:"verified"`
	Duplicates    int `json:"duplicates"`
	Flagged       int `json:"flagged"`
	ReadyToImport int `json:"readyToImport"`
}

// Output is the artifact of a single run, consumed by exporters and reviewers.
type Output struct {
	RunID        string           `json:"runId"`
	River        RiverRef         `json:"river"`
	Timestamp    time.Time        `json:"timestamp"`
	Sources      []Source         `json:"sources"`
	Stats        Stats            `json:"stats"`
	AccessPoints []Verified       `json:"accessPoints"`
	Duplicates   []DuplicateMatch `json:"duplicates"`
	Warnings     []string         `json:"warnings"`
}

// Result rebuilds the partitions from an output. Unique points never need
// review and flagged points always do, so the split is lossless.
func (o Output) Result() DeduplicationResult {
	var res DeduplicationResult
	for _, ap := range o.AccessPoints {
		if ap.NeedsReview {
			res.FlaggedForReview = append(res.FlaggedForReview, ap)
		} else {
			res.Unique = append(res.Unique, ap)
		}
	}
	res.Duplicates = o.Duplicates
	return res
}
