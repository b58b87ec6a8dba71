package classify

import (
	"reflect"
	"testing"

	"github.com/floatplanner/apscrape/pkg/accesspoint"
)

func TestDetectType(t *testing.T) {
	tests := []struct {
		text string
		want accesspoint.Type
		conf float64
	}{
		{"Baptist Boat Ramp", accesspoint.TypeBoatRamp, 0.9},
		{"Concrete launch below the bridge", accesspoint.TypeBoatRamp, 0.9},
		{"Big gravel bar on river left", accesspoint.TypeGravelBar, 0.9},
		{"Pulltite Campground", accesspoint.TypeCampground, 0.9},
		{"Hwy 19 Bridge", accesspoint.TypeBridge, 0.9},
		{"Echo Bluff State Park", accesspoint.TypePark, 0.9},
		{"Cedargrove Access", accesspoint.TypeAccess, 0.9},
		{"Round Spring", accesspoint.TypeAccess, 0.5},
	}
	for _, tc := range tests {
		got, conf := DetectType(tc.text)
		if got != tc.want || conf != tc.conf {
			t.Fatalf("DetectType(%q) = %s, %v; want %s, %v", tc.text, got, conf, tc.want, tc.conf)
		}
	}
}

func TestDetectOwnership(t *testing.T) {
	tests := []struct {
		text string
		want accesspoint.Ownership
	}{
		{"Managed by MDC", accesspoint.OwnershipMDC},
		{"Part of the Ozark National Scenic Riverways", accesspoint.OwnershipNPS},
		{"Montauk State Park", accesspoint.OwnershipStatePark},
		{"Mark Twain National Forest", accesspoint.OwnershipUSFS},
		{"Shannon County access", accesspoint.OwnershipCounty},
		{"Owned by the outfitter", accesspoint.OwnershipPrivate},
		{"Just a gravel bar", ""},
	}
	for _, tc := range tests {
		if got := DetectOwnership(tc.text); got != tc.want {
			t.Fatalf("DetectOwnership(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestDetectAmenities(t *testing.T) {
	got := DetectAmenities("Large parking lot, vault toilet, picnic shelter and a concrete ramp. Overnight camping allowed.")
	want := []string{"parking", "restrooms", "camping", "boat_ramp", "picnic"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DetectAmenities = %v, want %v", got, want)
	}
	if got := DetectAmenities("nothing here"); got != nil {
		t.Fatalf("DetectAmenities = %v, want nil", got)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Akers Ferry", "akers-ferry"},
		{"Akers Ferry (MDC)", "akers-ferry-mdc"},
		{"Alley's Spring", "alleys-spring"},
		{"Alley’s Spring", "alleys-spring"},
		{"  --Hwy 19 Bridge--  ", "hwy-19-bridge"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := Slugify(tc.in); got != tc.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsPublic(t *testing.T) {
	if IsPublic("Privately owned campground") {
		t.Fatalf("private site reported public")
	}
	if !IsPublic("MDC access") {
		t.Fatalf("public site reported private")
	}
}

func TestCleanText(t *testing.T) {
	if got := CleanText("  Akers \n\t Ferry  "); got != "Akers Ferry" {
		t.Fatalf("CleanText = %q", got)
	}
}

func TestNewCandidate(t *testing.T) {
	loc := &accesspoint.Coordinates{Lat: 37.37, Lng: -91.55}
	c := NewCandidate(accesspoint.SourceMOHERP, "https://rivers.moherp.org/rivers/current", " Akers Ferry\n Access ",
		"MDC access with parking and a concrete ramp", "<li>raw</li>", loc)

	if c.Name != "Akers Ferry Access" {
		t.Fatalf("Name = %q", c.Name)
	}
	if c.Type != accesspoint.TypeBoatRamp || c.Confidence != accesspoint.ConfidenceHigh {
		t.Fatalf("Type/Confidence = %s/%s", c.Type, c.Confidence)
	}
	if c.Ownership != accesspoint.OwnershipMDC || !c.IsPublic {
		t.Fatalf("Ownership/IsPublic = %s/%v", c.Ownership, c.IsPublic)
	}
	if !reflect.DeepEqual(c.Amenities, []string{"parking", "boat_ramp"}) {
		t.Fatalf("Amenities = %v", c.Amenities)
	}
	if c.NeedsReview || len(c.ReviewNotes) != 0 {
		t.Fatalf("unexpected review: %v", c.ReviewNotes)
	}

	bare := NewCandidate(accesspoint.SourceFloatMissouri, "", "Round Spring", "", "", nil)
	if !bare.NeedsReview || bare.Confidence != accesspoint.ConfidenceMedium {
		t.Fatalf("bare candidate = %+v", bare)
	}
	want := []string{"Missing coordinates", "Access type not detected, defaulted to access"}
	if !reflect.DeepEqual(bare.ReviewNotes, want) {
		t.Fatalf("ReviewNotes = %v, want %v", bare.ReviewNotes, want)
	}
}
