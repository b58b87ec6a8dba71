// Package export writes the review artifacts of a run: the full JSON output,
// an SQL import script and a plain-text summary.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/floatplanner/apscrape/pkg/accesspoint"
	"github.com/floatplanner/apscrape/pkg/classify"
)

// Millisecond ISO-8601, the timestamp form used in artifacts and file names.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

var fileStamp = strings.NewReplacer(":", "-", ".", "-")

// Files lists the paths written by WriteAll.
type Files struct {
	JSON    string
	SQL     string
	Summary string
}

// RenderJSON returns the output indented the way reviewers read it.
func RenderJSON(output accesspoint.Output) ([]byte, error) {
	return json.MarshalIndent(output, "", "  ")
}

// RenderSQL returns an import script that creates every exported access
// point as unapproved. Duplicates and flagged points are listed as comments.
func RenderSQL(output accesspoint.Output, riverID string) string {
	var lines []string
	add := func(l ...string) { lines = append(lines, l...) }
	section := func(title string) {
		add("-- ============================================", "-- "+title, "-- ============================================")
	}

	add(
		"-- Access Points Import for "+output.River.Name,
		"-- Generated: "+output.Timestamp.UTC().Format(isoMillis),
		"-- Sources: "+joinSources(output.Sources),
		fmt.Sprintf("-- Total access points: %d", len(output.AccessPoints)),
		"",
	)
	section("INSTRUCTIONS")
	add(
		"-- 1. Review the JSON file for duplicates and warnings",
		"-- 2. Manually approve data before running this script",
		"-- 3. Run via psql or the database SQL editor",
		"-- 4. Access points will be created as UNAPPROVED (approved=false)",
		"-- 5. Run snap-access-points script after import",
		"-- 6. Review in Geo Admin UI before approving",
		"",
	)

	if len(output.AccessPoints) == 0 {
		add("-- No unique access points to import")
	} else {
		section(fmt.Sprintf("INSERT ACCESS POINTS (%d total)", len(output.AccessPoints)))
		add("")
		for _, ap := range output.AccessPoints {
			add(insertStatement(ap, riverID)...)
			add("")
		}
	}

	if len(output.Duplicates) > 0 {
		section(fmt.Sprintf("SKIPPED DUPLICATES (%d total)", len(output.Duplicates)))
		add("--")
		for _, dup := range output.Duplicates {
			state := "pending"
			if dup.Existing.Approved {
				state = "approved"
			}
			add(
				fmt.Sprintf("-- %q (%s)", dup.Scraped.Name, dup.Scraped.Source),
				fmt.Sprintf("--   Matches: %q (%s)", dup.Existing.Name, state),
				"--   Reason: "+dup.Notes,
				"--",
			)
		}
	}

	var flagged []accesspoint.Verified
	for _, ap := range output.AccessPoints {
		if ap.NeedsReview {
			flagged = append(flagged, ap)
		}
	}
	if len(flagged) > 0 {
		section("FLAGGED FOR REVIEW")
		add("--")
		for _, ap := range flagged {
			add(fmt.Sprintf("-- %q (%s)", ap.Name, ap.Source))
			for _, note := range ap.ReviewNotes {
				add("--   - " + note)
			}
			add("--")
		}
	}

	return strings.Join(lines, "\n")
}

func insertStatement(ap accesspoint.Verified, riverID string) []string {
	lines := []string{fmt.Sprintf("-- %s (%s)", ap.Name, ap.Source)}
	if ap.Location == nil {
		lines = append(lines, "-- WARNING: Missing coordinates - REVIEW REQUIRED")
	}
	if ap.VerificationStatus == accesspoint.StatusNotFound {
		lines = append(lines, "-- WARNING: Not verified with Google Places")
	}
	if ap.NeedsReview {
		lines = append(lines, "-- WARNING: Flagged for manual review")
	}

	var cols, vals []string
	set := func(col, val string) {
		cols = append(cols, col)
		vals = append(vals, val)
	}

	set("river_id", quote(riverID)+"::uuid")
	set("name", quote(ap.Name))
	set("slug", quote(classify.Slugify(ap.Name)))
	set("type", quote(string(ap.Type)))
	if ap.Location != nil {
		set("location_orig", fmt.Sprintf("ST_SetSRID(ST_MakePoint(%s, %s), 4326)",
			formatFloat(ap.Location.Lng), formatFloat(ap.Location.Lat)))
	} else {
		set("location_orig", "NULL")
	}
	if ap.Driving != nil {
		set("driving_lat", formatFloat(ap.Driving.Lat))
		set("driving_lng", formatFloat(ap.Driving.Lng))
	}
	if ap.DirectionsOverride != "" {
		set("directions_override", quote(ap.DirectionsOverride))
	}
	set("is_public", strconv.FormatBool(ap.IsPublic))
	if ap.Ownership != "" {
		set("ownership", quote(string(ap.Ownership)))
	}
	if ap.Description != "" {
		set("description", quote(ap.Description))
	}
	if len(ap.Amenities) > 0 {
		quoted := make([]string, len(ap.Amenities))
		for i, a := range ap.Amenities {
			quoted[i] = quote(a)
		}
		set("amenities", "ARRAY["+strings.Join(quoted, ", ")+"]::text[]")
	}
	if ap.ParkingInfo != "" {
		set("parking_info", quote(ap.ParkingInfo))
	}
	if ap.FeeRequired != nil {
		set("fee_required", strconv.FormatBool(*ap.FeeRequired))
	}
	if ap.FeeNotes != "" {
		set("fee_notes", quote(ap.FeeNotes))
	}
	set("approved", "false")
	set("created_at", "NOW()")
	set("updated_at", "NOW()")

	lines = append(lines, "INSERT INTO access_points (")
	for i, c := range cols {
		lines = append(lines, "  "+c+comma(i, len(cols)))
	}
	lines = append(lines, ") VALUES (")
	for i, v := range vals {
		lines = append(lines, "  "+v+comma(i, len(vals)))
	}
	return append(lines, ")", "ON CONFLICT (river_id, slug) DO NOTHING;")
}

// RenderSummary returns the human-readable run summary.
func RenderSummary(output accesspoint.Output) string {
	rule := strings.Repeat("=", 70)
	lines := []string{
		rule,
		"ACCESS POINT SCRAPING SUMMARY",
		rule,
		"",
		"River: " + output.River.Name,
		"Timestamp: " + output.Timestamp.UTC().Format(isoMillis),
		"Sources: " + joinSources(output.Sources),
	}
	if output.RunID != "" {
		lines = append(lines, "Run: "+output.RunID)
	}
	lines = append(lines,
		"",
		"Statistics:",
		fmt.Sprintf("  Total scraped: %d", output.Stats.TotalScraped),
		fmt.Sprintf("  Verified: %d", output.Stats.Verified),
		fmt.Sprintf("  Duplicates: %d", output.Stats.Duplicates),
		fmt.Sprintf("  Flagged: %d", output.Stats.Flagged),
		fmt.Sprintf("  Ready to import: %d", output.Stats.ReadyToImport),
		"",
	)
	if len(output.Warnings) > 0 {
		lines = append(lines, "Warnings:")
		for _, w := range output.Warnings {
			lines = append(lines, "  ! "+w)
		}
		lines = append(lines, "")
	}
	lines = append(lines,
		"Next Steps:",
		"  1. Review the JSON file for data accuracy",
		"  2. Check duplicates section for potential conflicts",
		"  3. Review flagged items before import",
		"  4. Run the SQL script against the planner database",
		"  5. Run snap-access-points script to calculate river miles",
		"  6. Review in Geo Admin UI and approve",
		"",
		rule,
	)
	return strings.Join(lines, "\n")
}

// WriteAll renders every artifact into dir, creating it when needed. File
// names are <slug>-<timestamp> with ':' and '.' in the timestamp replaced.
func WriteAll(output accesspoint.Output, riverID, dir string, now time.Time) (Files, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Files{}, fmt.Errorf("creating output directory: %w", err)
	}

	base := filepath.Join(dir, output.River.Slug+"-"+fileStamp.Replace(now.UTC().Format(isoMillis)))
	files := Files{
		JSON:    base + ".json",
		SQL:     base + ".sql",
		Summary: base + "-summary.txt",
	}

	data, err := RenderJSON(output)
	if err != nil {
		return Files{}, fmt.Errorf("encoding output: %w", err)
	}
	writes := []struct {
		path string
		data []byte
	}{
		{files.JSON, data},
		{files.SQL, []byte(RenderSQL(output, riverID))},
		{files.Summary, []byte(RenderSummary(output))},
	}
	for _, w := range writes {
		if err := os.WriteFile(w.path, w.data, 0o644); err != nil {
			return Files{}, fmt.Errorf("writing %s: %w", w.path, err)
		}
	}
	return files, nil
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func comma(i, n int) string {
	if i < n-1 {
		return ","
	}
	return ""
}

func joinSources(sources []accesspoint.Source) string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
