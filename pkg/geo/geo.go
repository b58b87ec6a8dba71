package geo

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/floatplanner/apscrape/pkg/accesspoint"
)

// EarthRadiusMeters is the mean Earth radius used by Distance.
const EarthRadiusMeters = 6371e3

// Distance returns the great-circle distance between a and b in meters
// using the Haversine formula.
func Distance(a, b accesspoint.Coordinates) float64 {
	phi1 := a.Lat * math.Pi / 180
	phi2 := b.Lat * math.Pi / 180
	dPhi := (b.Lat - a.Lat) * math.Pi / 180
	dLambda := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// Bounds is a latitude/longitude rectangle.
type Bounds struct {
	MinLat float64 `mapstructure:"min_lat" json:"minLat"`
	MaxLat float64 `mapstructure:"max_lat" json:"maxLat"`
	MinLng float64 `mapstructure:"min_lng" json:"minLng"`
	MaxLng float64 `mapstructure:"max_lng" json:"maxLng"`
}

// MissouriBounds encloses the state of Missouri.
var MissouriBounds = Bounds{
	MinLat: 35.9,
	MaxLat: 40.7,
	MinLng: -96.5,
	MaxLng: -88.9,
}

// Contains reports whether the point lies inside b, edges included.
func (b Bounds) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// IsZero reports whether no bounds were configured.
func (b Bounds) IsZero() bool {
	return b == Bounds{}
}

// ValidCoordinate checks latitude and longitude ranges.
func ValidCoordinate(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

var (
	pairPattern = regexp.MustCompile(`(-?\d+\.?\d*)\s*,\s*(-?\d+\.?\d*)`)
	latPattern  = regexp.MustCompile(`(?i)lat(?:itude)?:\s*(-?\d+\.?\d*)`)
	lngPattern  = regexp.MustCompile(`(?i)l(?:on|ng)(?:gitude)?:\s*(-?\d+\.?\d*)`)
)

// ParseCoordinates extracts a point from "lat, lng" text or from labelled
// "lat: x, lng: y" text. Out-of-range values are rejected.
func ParseCoordinates(text string) (*accesspoint.Coordinates, bool) {
	if m := pairPattern.FindStringSubmatch(text); m != nil {
		if c, ok := parsePair(m[1], m[2]); ok {
			return c, true
		}
	}

	latMatch := latPattern.FindStringSubmatch(text)
	lngMatch := lngPattern.FindStringSubmatch(text)
	if latMatch != nil && lngMatch != nil {
		if c, ok := parsePair(latMatch[1], lngMatch[1]); ok {
			return c, true
		}
	}
	return nil, false
}

func parsePair(latStr, lngStr string) (*accesspoint.Coordinates, bool) {
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, false
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil, false
	}
	if !ValidCoordinate(lat, lng) {
		return nil, false
	}
	return &accesspoint.Coordinates{Lat: lat, Lng: lng}, true
}

// FormatDistance renders meters for reports.
func FormatDistance(meters float64) string {
	switch {
	case math.IsInf(meters, 0) || math.IsNaN(meters):
		return "unknown"
	case meters < 1000:
		return fmt.Sprintf("%dm", int(math.Round(meters)))
	default:
		return fmt.Sprintf("%.2fkm", meters/1000)
	}
}
