package bot

import (
	"fmt"
	"sort"
	"strings"
)

// suggestThreshold is the minimum normalized similarity for a command name
// to count as a plausible intention. 0.6 keeps a single swap on a
// three-letter name ("tga" for "tag") within range.
const suggestThreshold = 0.6

// unknownCommandMessage builds the reply for a command name that routed
// nowhere, listing close matches when any registered name is similar enough.
func unknownCommandMessage(name string, known []string) string {
	matches := closestNames(name, known)
	if len(matches) == 0 {
		return fmt.Sprintf("Command %q not found.", name)
	}
	return fmt.Sprintf("Command %q not found. Did you mean 🔎\n>>> %s", name, strings.Join(matches, "\n"))
}

// closestNames returns the known names similar to name, best match first.
func closestNames(name string, known []string) []string {
	type scored struct {
		name  string
		score float64
	}
	var matches []scored
	for _, candidate := range known {
		if s := similarity(name, candidate); s >= suggestThreshold {
			matches = append(matches, scored{candidate, s})
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].score > matches[j].score })

	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.name
	}
	return names
}

// similarity is 1 minus the normalized edit distance, so 1.0 means equal and
// 0.0 means nothing in common. Comparison is case-insensitive.
func similarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 1
	}
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	return 1 - float64(editDistance(a, b))/float64(longest)
}

// editDistance computes optimal string alignment distance: Levenshtein with
// adjacent transpositions costing a single edit, so the common swapped-letter
// typo stays close to its target.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	rows := make([][]int, len(ra)+1)
	for i := range rows {
		rows[i] = make([]int, len(rb)+1)
		rows[i][0] = i
	}
	for j := range rows[0] {
		rows[0][j] = j
	}

	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			d := min(rows[i-1][j]+1, rows[i][j-1]+1, rows[i-1][j-1]+cost)
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				d = min(d, rows[i-2][j-2]+1)
			}
			rows[i][j] = d
		}
	}
	return rows[len(ra)][len(rb)]
}
