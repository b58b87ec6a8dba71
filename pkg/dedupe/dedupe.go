package dedupe

import (
	"math"
	"sort"

	"github.com/floatplanner/apscrape/pkg/accesspoint"
	"github.com/floatplanner/apscrape/pkg/fuzzy"
	"github.com/floatplanner/apscrape/pkg/geo"
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

// Thresholds decide when two access points are considered the same site.
// Both comparisons are inclusive.
type Thresholds struct {
	NameSimilarity  float64 `mapstructure:"name_similarity"`
	ProximityMeters float64 `mapstructure:"proximity_meters"`
}

// DefaultThresholds returns the thresholds used when nothing is configured.
func DefaultThresholds() Thresholds {
	return Thresholds{
		NameSimilarity:  0.85,
		ProximityMeters: 100,
	}
}

// skipSimilarity is the similar_name score above which a match is skipped
// rather than flagged.
const skipSimilarity = 0.95

// Deduplicator matches access points against each other and against
// existing records.
type Deduplicator struct {
	th  Thresholds
	log Logger
}

// New returns a Deduplicator. A nil log discards all messages.
func New(th Thresholds, log Logger) *Deduplicator {
	if log == nil {
		log = nopLogger{}
	}
	return &Deduplicator{th: th, log: log}
}

// Thresholds returns the thresholds in use.
func (d *Deduplicator) Thresholds() Thresholds {
	return d.th
}

// Internal drops candidates that describe an access point already seen
// earlier in the batch. Surviving candidates keep their relative order.
func (d *Deduplicator) Internal(points []accesspoint.Candidate) []accesspoint.Candidate {
	d.log.Infof("Deduplicating %d scraped access points", len(points))

	unique := make([]accesspoint.Candidate, 0, len(points))
	kept := make([]string, 0, len(points))
	seen := make(map[string]struct{}, len(points))

	for _, point := range points {
		normalized := fuzzy.NormalizeName(point.Name)

		if _, ok := seen[normalized]; ok {
			d.log.Debugf("Internal duplicate: %q (from %s)", point.Name, point.Source)
			continue
		}

		duplicate := false
		for i, other := range unique {
			similarity := fuzzy.Similarity(normalized, kept[i])
			if similarity < d.th.NameSimilarity {
				continue
			}
			if point.Location != nil && other.Location != nil {
				distance := geo.Distance(*point.Location, *other.Location)
				if distance <= d.th.ProximityMeters {
					d.log.Debugf("Internal duplicate: %q ~ %q (%s)", point.Name, other.Name, geo.FormatDistance(distance))
					duplicate = true
					break
				}
				continue
			}
			d.log.Debugf("Internal duplicate: %q ~ %q (%s similar)", point.Name, other.Name, fuzzy.FormatSimilarity(similarity))
			duplicate = true
			break
		}

		if !duplicate {
			unique = append(unique, point)
			kept = append(kept, normalized)
			seen[normalized] = struct{}{}
		}
	}

	d.log.Infof("%d unique access points after internal deduplication", len(unique))
	return unique
}

// CheckForMatch compares one verified point with one existing record. The
// boolean is false when neither the name nor the location is close enough.
func (d *Deduplicator) CheckForMatch(scraped accesspoint.Verified, existing accesspoint.Existing) (accesspoint.DuplicateMatch, bool) {
	similarity := fuzzy.Similarity(fuzzy.NormalizeName(scraped.Name), fuzzy.NormalizeName(existing.Name))

	distance := math.Inf(1)
	if scraped.Location != nil && existing.HasCoordinates() {
		distance = geo.Distance(*scraped.Location, existing.Coordinates())
	}

	nameMatch := similarity >= d.th.NameSimilarity
	coordinateMatch := distance <= d.th.ProximityMeters
	if !nameMatch && !coordinateMatch {
		return accesspoint.DuplicateMatch{}, false
	}

	var matchType accesspoint.MatchType
	switch {
	case nameMatch && coordinateMatch:
		matchType = accesspoint.MatchBoth
	case nameMatch && similarity == 1:
		matchType = accesspoint.MatchExactName
	case nameMatch:
		matchType = accesspoint.MatchSimilarName
	default:
		matchType = accesspoint.MatchCloseCoordinates
	}

	var (
		recommendation accesspoint.Recommendation
		notes          string
	)
	switch {
	case matchType == accesspoint.MatchBoth || matchType == accesspoint.MatchExactName:
		recommendation = accesspoint.RecommendSkip
		notes = "Very likely duplicate - skip import"
	case matchType == accesspoint.MatchSimilarName && similarity > skipSimilarity:
		recommendation = accesspoint.RecommendSkip
		notes = "Highly similar name - likely duplicate"
	default:
		recommendation = accesspoint.RecommendFlag
		notes = "Potential duplicate - needs manual review"
	}
	if existing.Approved {
		notes += " (existing is approved)"
	} else {
		notes += " (existing is pending)"
	}

	return accesspoint.DuplicateMatch{
		Existing:       existing,
		Scraped:        scraped,
		MatchType:      matchType,
		NameSimilarity: similarity,
		DistanceMeters: distance,
		Recommendation: recommendation,
		Notes:          notes,
	}, true
}

// SelectBestMatch picks the match with the highest name similarity, breaking
// ties by the shortest distance. matches must not be empty.
func SelectBestMatch(matches []accesspoint.DuplicateMatch) accesspoint.DuplicateMatch {
	sorted := make([]accesspoint.DuplicateMatch, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].NameSimilarity != sorted[j].NameSimilarity {
			return sorted[i].NameSimilarity > sorted[j].NameSimilarity
		}
		return sorted[i].DistanceMeters < sorted[j].DistanceMeters
	})
	return sorted[0]
}

// CrossReference classifies every scraped point against the existing records.
// Each point ends up in exactly one partition of the result. Matches are
// computed per point, so one existing record may absorb several points.
func (d *Deduplicator) CrossReference(scraped []accesspoint.Verified, existing []accesspoint.Existing) accesspoint.DeduplicationResult {
	d.log.Infof("Checking %d scraped points against %d existing points", len(scraped), len(existing))

	result := accesspoint.DeduplicationResult{
		Unique:           []accesspoint.Verified{},
		Duplicates:       []accesspoint.DuplicateMatch{},
		FlaggedForReview: []accesspoint.Verified{},
	}

	for _, point := range scraped {
		var matches []accesspoint.DuplicateMatch
		for _, e := range existing {
			if m, ok := d.CheckForMatch(point, e); ok {
				matches = append(matches, m)
			}
		}

		if len(matches) == 0 {
			if point.NeedsReview {
				result.FlaggedForReview = append(result.FlaggedForReview, point)
			} else {
				result.Unique = append(result.Unique, point)
			}
			continue
		}

		best := SelectBestMatch(matches)
		result.Duplicates = append(result.Duplicates, best)
		d.log.Debugf("Duplicate: %q matches %q (%s, %s, %s)", point.Name, best.Existing.Name,
			best.MatchType, fuzzy.FormatSimilarity(best.NameSimilarity), geo.FormatDistance(best.DistanceMeters))
	}

	d.log.Infof("Unique: %d, flagged: %d, duplicates: %d",
		len(result.Unique), len(result.FlaggedForReview), len(result.Duplicates))
	return result
}
