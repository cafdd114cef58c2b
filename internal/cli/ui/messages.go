package ui

import (
	"slices"
	"strings"

	"github.com/fatih/color"
)

const maxSuggestionDistance = 3

// Suggest returns up to three candidates within a small edit distance of
// target, closest first. Matching ignores case.
func Suggest(target string, candidates []string) []string {
	type scored struct {
		value    string
		distance int
	}

	var matches []scored
	for _, c := range candidates {
		d := editDistance(strings.ToLower(target), strings.ToLower(c))
		if d <= maxSuggestionDistance {
			matches = append(matches, scored{c, d})
		}
	}
	slices.SortStableFunc(matches, func(a, b scored) int {
		return a.distance - b.distance
	})

	var result []string
	for i := 0; i < len(matches) && i < 3; i++ {
		result = append(result, matches[i].value)
	}
	return result
}

// editDistance is the Levenshtein distance over runes
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// NotFound formats a lookup failure with suggestions and a hint
//
//	❌ BINDING NOT FOUND: Cannot find binding 'bok'.
//	   Did you mean: book?
//	   → See all bindings: dictctl inspect
func NotFound(kind, name string, suggestions []string, hint string, noColor bool) string {
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)
	if noColor {
		red.DisableColor()
		yellow.DisableColor()
		cyan.DisableColor()
	}

	var b strings.Builder
	red.Fprintf(&b, "❌ %s NOT FOUND: Cannot find %s '%s'.\n", strings.ToUpper(kind), kind, name)
	if len(suggestions) > 0 {
		yellow.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(suggestions, ", "))
	}
	if hint != "" {
		cyan.Fprintf(&b, "   → %s\n", hint)
	}
	return b.String()
}

// Success formats a confirmation line
func Success(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}

// Warn formats a warning line
func Warn(message string, noColor bool) string {
	yellow := color.New(color.FgYellow, color.Bold)
	if noColor {
		yellow.DisableColor()
	}
	return yellow.Sprintf("⚠ %s", message)
}
