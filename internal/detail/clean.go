package detail

import "strings"

// boilerplatePhrases are dropped from descriptions by exact substring match.
var boilerplatePhrases = []string{
	"You'll now receive updates based on what you follow!",
	"Save this picture!",
}

const dropPrefix = "Check the"

const minDescriptionWords = 4

// CleanDescription filters candidate description lines: lines with three or
// fewer words, known boilerplate, and "Check the" teasers are removed, then
// duplicates are dropped while preserving first-seen order.
func CleanDescription(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	var out []string
	for _, line := range lines {
		if len(strings.Fields(line)) < minDescriptionWords {
			continue
		}
		if containsBoilerplate(line) {
			continue
		}
		if strings.HasPrefix(line, dropPrefix) {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}

func containsBoilerplate(line string) bool {
	for _, phrase := range boilerplatePhrases {
		if strings.Contains(line, phrase) {
			return true
		}
	}
	return false
}
