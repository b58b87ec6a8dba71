package fuzzy

import (
	"fmt"
	"math"
	"strings"
)

// Levenshtein returns the edit distance between a and b, counting runes.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prev := make([]int, lb+1)
	cur := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		cur[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(
				prev[j]+1,      // deletion
				cur[j-1]+1,     // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, cur = cur, prev
	}
	return prev[lb]
}

// Similarity scores two strings in [0,1] after lower-casing and trimming them.
// 1 means identical; two empty strings are identical.
func Similarity(a, b string) float64 {
	s1 := strings.ToLower(strings.TrimSpace(a))
	s2 := strings.ToLower(strings.TrimSpace(b))
	if s1 == s2 {
		return 1
	}

	maxLen := max(len([]rune(s1)), len([]rune(s2)))
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(Levenshtein(s1, s2))/float64(maxLen)
}

// FormatSimilarity renders a score as a whole percentage.
func FormatSimilarity(score float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(score*100)))
}
