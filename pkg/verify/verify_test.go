package verify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/floatplanner/apscrape/pkg/accesspoint"
)

type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) TextSearch(ctx context.Context, query string, near *accesspoint.Coordinates) ([]accesspoint.PlaceMatch, error) {
	args := m.Called(ctx, query, near)
	return args.Get(0).([]accesspoint.PlaceMatch), args.Error(1)
}

func place(id string, lat, lng float64) accesspoint.PlaceMatch {
	return accesspoint.PlaceMatch{PlaceID: id, Name: "Place " + id, FormattedAddress: "MO", Latitude: lat, Longitude: lng}
}

func TestBuildSearchQuery(t *testing.T) {
	tests := []struct {
		name, river, want string
	}{
		{"Akers Ferry", "Current River", "Akers Ferry Current River Missouri"},
		{"Current River State Park", "Current River", "Current River State Park Missouri"},
		{"JACKS FORK ACCESS", "Jacks Fork", "JACKS FORK ACCESS Missouri"},
		{"Akers Ferry", "", "Akers Ferry Missouri"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, BuildSearchQuery(tc.name, tc.river, DefaultRegion))
	}
}

func TestVerify(t *testing.T) {
	original := &accesspoint.Coordinates{Lat: 37.2, Lng: -91.4}

	tests := []struct {
		name       string
		results    []accesspoint.PlaceMatch
		err        error
		wantStatus accesspoint.VerificationStatus
		wantReview bool
		wantNote   string
		wantLoc    *accesspoint.Coordinates
		wantConf   accesspoint.Confidence
	}{
		{
			name:       "no results",
			results:    []accesspoint.PlaceMatch{},
			wantStatus: accesspoint.StatusNotFound,
			wantReview: true,
			wantNote:   "Could not verify location with Google Places",
			wantLoc:    original,
		},
		{
			name:       "single in-region result",
			results:    []accesspoint.PlaceMatch{place("a", 37.21, -91.41)},
			wantStatus: accesspoint.StatusVerified,
			wantLoc:    &accesspoint.Coordinates{Lat: 37.21, Lng: -91.41},
			wantConf:   accesspoint.ConfidenceHigh,
		},
		{
			name:       "three results",
			results:    []accesspoint.PlaceMatch{place("a", 37.21, -91.41), place("b", 37.3, -91.5), place("c", 37.4, -91.6)},
			wantStatus: accesspoint.StatusVerified,
			wantLoc:    &accesspoint.Coordinates{Lat: 37.21, Lng: -91.41},
			wantConf:   accesspoint.ConfidenceMedium,
		},
		{
			name: "four results",
			results: []accesspoint.PlaceMatch{
				place("a", 37.21, -91.41), place("b", 37.3, -91.5), place("c", 37.4, -91.6), place("d", 37.5, -91.7),
			},
			wantStatus: accesspoint.StatusAmbiguous,
			wantReview: true,
			wantNote:   "Ambiguous: 4 Google Places results found",
			wantLoc:    &accesspoint.Coordinates{Lat: 37.21, Lng: -91.41},
			wantConf:   accesspoint.ConfidenceMedium,
		},
		{
			name:       "out of region",
			results:    []accesspoint.PlaceMatch{place("a", 35.1, -90.0)},
			wantStatus: accesspoint.StatusVerified,
			wantReview: true,
			wantNote:   "Google Places coordinates (35.1, -90) are outside Missouri bounds",
			wantLoc:    original,
			wantConf:   accesspoint.ConfidenceHigh,
		},
		{
			name:       "search error",
			results:    []accesspoint.PlaceMatch(nil),
			err:        errors.New("HTTP 500: Internal Server Error"),
			wantStatus: accesspoint.StatusSkipped,
			wantReview: true,
			wantNote:   "Verification failed due to API error",
			wantLoc:    original,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := new(MockSearcher)
			searcher.On("TextSearch", mock.Anything, "Old Confluence Access Current River Missouri", original).
				Return(tt.results, tt.err)

			in := accesspoint.Candidate{
				Name:        "Old Confluence Access",
				Source:      accesspoint.SourceMOHERP,
				Location:    original,
				Description: "Gravel lot above the confluence",
				ReviewNotes: []string{"Scraped from listing"},
			}
			got := New(searcher, Options{}).Verify(context.Background(), in, "Current River")

			searcher.AssertExpectations(t)
			assert.Equal(t, tt.wantStatus, got.VerificationStatus)
			assert.Equal(t, tt.wantReview, got.NeedsReview)
			assert.Equal(t, tt.wantLoc, got.Location)
			assert.Equal(t, "Gravel lot above the confluence", got.Description)
			assert.Equal(t, "Scraped from listing", got.ReviewNotes[0])
			if tt.wantNote != "" {
				assert.Equal(t, tt.wantNote, got.ReviewNotes[len(got.ReviewNotes)-1])
			} else {
				assert.Len(t, got.ReviewNotes, 1)
			}
			if tt.wantConf != "" {
				require.NotNil(t, got.Places)
				assert.Equal(t, "a", got.Places.PlaceID)
				assert.Equal(t, tt.wantConf, got.Places.Confidence)
			} else {
				assert.Nil(t, got.Places)
			}

			assert.Equal(t, []string{"Scraped from listing"}, in.ReviewNotes, "input must not be mutated")
			assert.False(t, in.NeedsReview)
		})
	}
}

func TestVerifySetsDirectionsOverride(t *testing.T) {
	searcher := new(MockSearcher)
	searcher.On("TextSearch", mock.Anything, "Rymers Jacks Fork Missouri", (*accesspoint.Coordinates)(nil)).
		Return([]accesspoint.PlaceMatch{place("r", 37.15, -91.6)}, nil)

	got := New(searcher, Options{}).Verify(context.Background(), accesspoint.Candidate{Name: "Rymers"}, "Jacks Fork")
	assert.Equal(t, "Place r", got.DirectionsOverride)
	assert.Equal(t, "Verified with Google Places (1 results)", got.VerificationNotes)
	assert.False(t, got.NeedsReview)
}

func TestVerifyAllKeepsOrder(t *testing.T) {
	searcher := new(MockSearcher)
	searcher.On("TextSearch", mock.Anything, "Akers Ferry Current River Missouri", mock.Anything).
		Return([]accesspoint.PlaceMatch{place("a", 37.37, -91.55)}, nil)
	searcher.On("TextSearch", mock.Anything, "Nowhere Current River Missouri", mock.Anything).
		Return([]accesspoint.PlaceMatch{}, nil)
	searcher.On("TextSearch", mock.Anything, "Pulltite Current River Missouri", mock.Anything).
		Return([]accesspoint.PlaceMatch(nil), errors.New("timeout"))

	in := []accesspoint.Candidate{{Name: "Akers Ferry"}, {Name: "Nowhere"}, {Name: "Pulltite"}}
	got := New(searcher, Options{Delay: time.Millisecond}).VerifyAll(context.Background(), in, "Current River")

	require.Len(t, got, 3)
	assert.Equal(t, "Akers Ferry", got[0].Name)
	assert.Equal(t, accesspoint.StatusVerified, got[0].VerificationStatus)
	assert.Equal(t, accesspoint.StatusNotFound, got[1].VerificationStatus)
	assert.Equal(t, accesspoint.StatusSkipped, got[2].VerificationStatus)
	assert.Equal(t, "Error: timeout", got[2].VerificationNotes)
	searcher.AssertNumberOfCalls(t, "TextSearch", 3)
}

func TestVerifyAllSpacesRequests(t *testing.T) {
	searcher := new(MockSearcher)
	searcher.On("TextSearch", mock.Anything, mock.Anything, mock.Anything).Return([]accesspoint.PlaceMatch{}, nil)

	in := []accesspoint.Candidate{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	start := time.Now()
	New(searcher, Options{Delay: 30 * time.Millisecond}).VerifyAll(context.Background(), in, "")
	assert.GreaterOrEqual(t, time.Since(start), 55*time.Millisecond)
}

func TestVerifyAllCancelled(t *testing.T) {
	searcher := new(MockSearcher)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := []accesspoint.Candidate{{Name: "a"}, {Name: "b"}}
	got := New(searcher, Options{}).VerifyAll(ctx, in, "")

	require.Len(t, got, 2)
	for _, v := range got {
		assert.Equal(t, accesspoint.StatusSkipped, v.VerificationStatus)
		assert.True(t, v.NeedsReview)
	}
	searcher.AssertNotCalled(t, "TextSearch", mock.Anything, mock.Anything, mock.Anything)
}

func TestSkip(t *testing.T) {
	in := []accesspoint.Candidate{{Name: "a", ReviewNotes: []string{"Missing coordinates"}}, {Name: "b"}}
	got := Skip(in, "Google Places verification skipped - no API key")

	require.Len(t, got, 2)
	assert.Equal(t, []string{"Missing coordinates", "Google Places verification skipped - no API key"}, got[0].ReviewNotes)
	assert.True(t, got[1].NeedsReview)
	assert.Equal(t, accesspoint.StatusSkipped, got[1].VerificationStatus)
	assert.Len(t, in[0].ReviewNotes, 1)
}
