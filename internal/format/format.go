// Package format provides small text helpers for user-facing messages.
package format

import (
	"fmt"
	"strings"
)

// HumanJoin joins items into prose with an oxford comma: "a", "a and b",
// "a, b, and c".
func HumanJoin(items []string, conjunction string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " " + conjunction + " " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", " + conjunction + " " + items[len(items)-1]
	}
}

// Plural renders a count with its unit, adding "s" when the count is not one:
// "1 week", "3 weeks".
func Plural(n int, singular string) string {
	if n == 1 || n == -1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %ss", n, singular)
}
