package dedupe

import (
	"fmt"
	"strings"

	"github.com/floatplanner/apscrape/pkg/accesspoint"
	"github.com/floatplanner/apscrape/pkg/fuzzy"
	"github.com/floatplanner/apscrape/pkg/geo"
)

const reportWidth = 70

// Report renders a deduplication result as plain text. The output depends
// only on result.
func Report(result accesspoint.DeduplicationResult) string {
	rule := strings.Repeat("=", reportWidth)
	thin := strings.Repeat("-", reportWidth)

	var b strings.Builder
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("%s", rule)
	line("DEDUPLICATION REPORT")
	line("%s", rule)
	line("")

	line("Summary:")
	line("  Unique access points: %d", len(result.Unique))
	line("  Flagged for review: %d", len(result.FlaggedForReview))
	line("  Duplicates found: %d", len(result.Duplicates))
	line("")

	if len(result.Duplicates) > 0 {
		line("Duplicates:")
		line("%s", thin)
		for _, dup := range result.Duplicates {
			state := "pending"
			if dup.Existing.Approved {
				state = "approved"
			}
			line("  Scraped: %q (%s)", dup.Scraped.Name, dup.Scraped.Source)
			line("  Existing: %q (%s)", dup.Existing.Name, state)
			line("  Match type: %s", dup.MatchType)
			line("  Similarity: %s", fuzzy.FormatSimilarity(dup.NameSimilarity))
			line("  Distance: %s", geo.FormatDistance(dup.DistanceMeters))
			line("  Recommendation: %s", strings.ToUpper(string(dup.Recommendation)))
			line("  Notes: %s", dup.Notes)
			line("")
		}
	}

	if len(result.FlaggedForReview) > 0 {
		line("Flagged for Review:")
		line("%s", thin)
		for _, ap := range result.FlaggedForReview {
			line("  Name: %q (%s)", ap.Name, ap.Source)
			line("  Verification: %s", ap.VerificationStatus)
			if len(ap.ReviewNotes) > 0 {
				line("  Reasons:")
				for _, note := range ap.ReviewNotes {
					line("    - %s", note)
				}
			}
			line("")
		}
	}

	b.WriteString(rule)
	return b.String()
}
