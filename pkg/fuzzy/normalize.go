package fuzzy

import (
	"regexp"
	"strings"
)

var (
	accessSuffix = regexp.MustCompile(`\s+(access|put-in|take-out|boat ramp|ramp|campground|park)$`)
	roadPrefix   = regexp.MustCompile(`^(hwy|highway|state route|sr|county road|cr)\s+`)
)

// NormalizeName reduces an access point name to the part that identifies the
// site: lower-cased, without trailing access-type words or a leading road
// type. Rules repeat until nothing changes, so the result is a fixed point.
func NormalizeName(name string) string {
	s := strings.TrimSpace(strings.ToLower(name))
	for {
		next := accessSuffix.ReplaceAllString(s, "")
		next = strings.TrimSpace(roadPrefix.ReplaceAllString(next, ""))
		if next == s {
			return s
		}
		s = next
	}
}
