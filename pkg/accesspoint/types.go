package accesspoint

// Type classifies what kind of river access a point is.
type Type string

const (
	TypeBoatRamp   Type = "boat_ramp"
	TypeGravelBar  Type = "gravel_bar"
	TypeCampground Type = "campground"
	TypeBridge     Type = "bridge"
	TypeAccess     Type = "access"
	TypePark       Type = "park"
)

// Ownership is the managing agency or owner of an access point.
type Ownership string

const (
	OwnershipMDC       Ownership = "MDC"
	OwnershipNPS       Ownership = "NPS"
	OwnershipPrivate   Ownership = "private"
	OwnershipCounty    Ownership = "county"
	OwnershipCity      Ownership = "city"
	OwnershipStatePark Ownership = "state_park"
	OwnershipUSFS      Ownership = "USFS"
	OwnershipUnknown   Ownership = "unknown"
)

// Source identifies the site a candidate was scraped from.
type Source string

const (
	SourceMissouriScenicRivers Source = "missouriscenicrivers"
	SourceUSGS                 Source = "usgs"
	SourceMOHERP               Source = "moherp"
	SourceFloatMissouri        Source = "floatmissouri"
	SourceOzarkFloating        Source = "ozarkfloating"
)

// AllSources is the default scrape order.
var AllSources = []Source{
	SourceMissouriScenicRivers,
	SourceUSGS,
	SourceMOHERP,
	SourceFloatMissouri,
	SourceOzarkFloating,
}

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

type VerificationStatus string

const (
	StatusVerified  VerificationStatus = "verified"
	StatusNotFound  VerificationStatus = "not_found"
	StatusAmbiguous VerificationStatus = "ambiguous"
	StatusSkipped   VerificationStatus = "skipped"
)

// MatchType records which signal paired a candidate with an existing record.
type MatchType string

const (
	MatchExactName        MatchType = "exact_name"
	MatchSimilarName      MatchType = "similar_name"
	MatchCloseCoordinates MatchType = "close_coordinates"
	MatchBoth             MatchType = "both"
)

type Recommendation string

const (
	RecommendSkip  Recommendation = "skip"
	RecommendFlag  Recommendation = "flag"
	RecommendMerge Recommendation = "merge"
)

// Coordinates is a WGS84 point in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Candidate is an access point scraped from one source and not yet trusted.
type Candidate struct {
	Name      string `json:"name"`
	Source    Source `json:"source"`
	SourceURL string `json:"sourceUrl"`
	RawData   string `json:"rawData"`

	Location           *Coordinates `json:"location,omitempty"`
	Driving            *Coordinates `json:"driving,omitempty"`
	DirectionsOverride string       `json:"directionsOverride,omitempty"`

	Type      Type      `json:"type"`
	IsPublic  bool      `json:"isPublic"`
	Ownership Ownership `json:"ownership,omitempty"`

	Description string   `json:"description,omitempty"`
	Amenities   []string `json:"amenities,omitempty"`
	ParkingInfo string   `json:"parkingInfo,omitempty"`
	FeeRequired *bool    `json:"feeRequired,omitempty"`
	FeeNotes    string   `json:"feeNotes,omitempty"`

	Confidence  Confidence `json:"confidence"`
	NeedsReview bool       `json:"needsReview"`
	ReviewNotes []string   `json:"reviewNotes,omitempty"`
}

// HasCoordinates reports whether the candidate carries a location.
func (c Candidate) HasCoordinates() bool {
	return c.Location != nil
}

// WithReviewNote returns a copy flagged for review with note appended.
// The receiver's notes slice is never shared with the copy.
func (c Candidate) WithReviewNote(note string) Candidate {
	notes := make([]string, 0, len(c.ReviewNotes)+1)
	notes = append(notes, c.ReviewNotes...)
	c.ReviewNotes = append(notes, note)
	c.NeedsReview = true
	return c
}

// PlaceMatch is the geocoder's view of a candidate.
type PlaceMatch struct {
	PlaceID          string     `json:"placeId"`
	Name             string     `json:"name"`
	FormattedAddress string     `json:"formattedAddress"`
	Latitude         float64    `json:"latitude"`
	Longitude        float64    `json:"longitude"`
	Types            []string   `json:"types"`
	Confidence       Confidence `json:"confidence"`
}

// Verified is a candidate plus the outcome of place verification.
type Verified struct {
	Candidate
	Places             *PlaceMatch        `json:"googlePlaces,omitempty"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
	VerificationNotes  string             `json:"verificationNotes,omitempty"`
}

// Existing is an access point already in the system of record.
type Existing struct {
	ID          string  `json:"id"`
	RiverID     string  `json:"river_id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Type        Type    `json:"type"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Approved    bool    `json:"approved"`
	Description string  `json:"description,omitempty"`
}

// HasCoordinates treats a zero latitude or longitude as missing geometry,
// which is how the datastore reports access points without a location.
func (e Existing) HasCoordinates() bool {
	return e.Latitude != 0 && e.Longitude != 0
}

// Coordinates returns the record's location.
func (e Existing) Coordinates() Coordinates {
	return Coordinates{Lat: e.Latitude, Lng: e.Longitude}
}

// River is a river known to the planner.
type River struct {
	ID          string  `json:"id"`
	Slug        string  `json:"slug"`
	Name        string  `json:"name"`
	LengthMiles float64 `json:"length_miles"`
	Region      string  `json:"region"`
}
