package classify

import (
	"regexp"
	"strings"

	"github.com/floatplanner/apscrape/pkg/accesspoint"
)

type keywords[T any] struct {
	value T
	words []string
}

// Tables are checked in order and the first keyword found wins.
var typeKeywords = []keywords[accesspoint.Type]{
	{accesspoint.TypeBoatRamp, []string{"boat ramp", "launch", "ramp", "boat launch", "concrete ramp"}},
	{accesspoint.TypeGravelBar, []string{"gravel bar", "sand bar", "gravel access", "informal access"}},
	{accesspoint.TypeCampground, []string{"campground", "camping", "camp", "rv park", "primitive camp"}},
	{accesspoint.TypeBridge, []string{"bridge", "highway bridge", "county bridge", "road bridge"}},
	{accesspoint.TypePark, []string{"state park", "national park", "city park", "recreation area", "conservation area"}},
	{accesspoint.TypeAccess, []string{"access", "put-in", "take-out", "public access", "river access"}},
}

var ownershipKeywords = []keywords[accesspoint.Ownership]{
	{accesspoint.OwnershipMDC, []string{"mdc", "missouri department of conservation", "conservation area", "conservation department"}},
	{accesspoint.OwnershipNPS, []string{"nps", "national park service", "ozark national scenic riverways", "onsr", "national monument"}},
	{accesspoint.OwnershipStatePark, []string{"state park", "missouri state parks", "mo state park"}},
	{accesspoint.OwnershipUSFS, []string{"usfs", "forest service", "national forest", "mark twain national forest"}},
	{accesspoint.OwnershipCounty, []string{"county", "county park", "county access"}},
	{accesspoint.OwnershipCity, []string{"city", "city park", "municipal"}},
	{accesspoint.OwnershipPrivate, []string{"private", "privately owned", "commercial", "outfitter"}},
}

var amenityKeywords = []keywords[string]{
	{"parking", []string{"parking", "parking lot", "parking area", "vehicle parking"}},
	{"restrooms", []string{"restroom", "bathroom", "toilet", "facilities", "outhouse"}},
	{"camping", []string{"camping", "campground", "campsites", "overnight"}},
	{"boat_ramp", []string{"boat ramp", "launch ramp", "concrete ramp"}},
	{"picnic", []string{"picnic", "picnic area", "picnic shelter", "day use"}},
	{"drinking_water", []string{"drinking water", "water", "potable water"}},
	{"trash", []string{"trash", "garbage", "dumpster", "waste disposal"}},
	{"ada_accessible", []string{"accessible", "ada", "handicap", "wheelchair"}},
}

const (
	keywordConfidence  = 0.9
	fallbackConfidence = 0.5
)

// DetectType guesses the access point type from free text. The float is a
// confidence in [0,1]; unmatched text falls back to a plain access.
func DetectType(text string) (accesspoint.Type, float64) {
	lower := strings.ToLower(text)
	for _, k := range typeKeywords {
		if containsAny(lower, k.words) {
			return k.value, keywordConfidence
		}
	}
	return accesspoint.TypeAccess, fallbackConfidence
}

// DetectOwnership returns the managing agency named in text, or "" when
// none is recognized.
func DetectOwnership(text string) accesspoint.Ownership {
	lower := strings.ToLower(text)
	for _, k := range ownershipKeywords {
		if containsAny(lower, k.words) {
			return k.value
		}
	}
	return ""
}

// DetectAmenities lists every amenity mentioned in text, in table order.
func DetectAmenities(text string) []string {
	lower := strings.ToLower(text)
	var amenities []string
	for _, k := range amenityKeywords {
		if containsAny(lower, k.words) {
			amenities = append(amenities, k.value)
		}
	}
	return amenities
}

// IsPublic reports whether text does not describe a private site.
func IsPublic(text string) bool {
	return !strings.Contains(strings.ToLower(text), "private")
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

var (
	apostrophes = strings.NewReplacer("'", "", "’", "", "‘", "")
	nonSlug     = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify turns a name into a database slug: "Akers Ferry (MDC)" becomes
// "akers-ferry-mdc".
func Slugify(text string) string {
	s := apostrophes.Replace(strings.ToLower(text))
	s = nonSlug.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

var whitespace = regexp.MustCompile(`\s+`)

// CleanText collapses runs of whitespace into single spaces.
func CleanText(text string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

// NewCandidate builds a candidate from scraped text. Points without a
// location or with a guessed type are flagged for review.
func NewCandidate(src accesspoint.Source, sourceURL, name, description, raw string, loc *accesspoint.Coordinates) accesspoint.Candidate {
	name = CleanText(name)
	description = CleanText(description)
	text := name + " " + description

	typ, confidence := DetectType(text)
	c := accesspoint.Candidate{
		Name:        name,
		Source:      src,
		SourceURL:   sourceURL,
		RawData:     raw,
		Location:    loc,
		Type:        typ,
		IsPublic:    IsPublic(description),
		Ownership:   DetectOwnership(text),
		Description: description,
		Amenities:   DetectAmenities(description),
		Confidence:  accesspoint.ConfidenceMedium,
	}
	if confidence > 0.8 {
		c.Confidence = accesspoint.ConfidenceHigh
	}

	if loc == nil {
		c = c.WithReviewNote("Missing coordinates")
	}
	if confidence < 0.7 {
		c = c.WithReviewNote("Access type not detected, defaulted to " + string(typ))
	}
	return c
}
