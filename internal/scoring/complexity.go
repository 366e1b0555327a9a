// Package scoring provides the complexity and token heuristics shared by every engine.
package scoring

import "strings"

// DefaultKeywords is the control-flow keyword set counted by every scorer.
var DefaultKeywords = []string{"if", "elif", "else", "for", "while", "try", "except", "match", "case"}

// Scorer computes a keyword-count complexity score over a line range.
type Scorer struct {
	// Keywords are counted when surrounded by a leading space or tab and a trailing space.
	Keywords []string
	// DefinitionToken marks a function declaration. Occurrences beyond the first add to the score.
	DefinitionToken string
}

// Python scores Python source.
var Python = Scorer{Keywords: DefaultKeywords, DefinitionToken: "def "}

// Rust scores Rust source.
var Rust = Scorer{Keywords: DefaultKeywords, DefinitionToken: "fn "}

// Score returns the complexity of lines start..end (1-based, inclusive) of code. The result is
// always at least 1.
func (s Scorer) Score(code string, start, end int) int {
	block := lineRange(code, start, end)

	score := 1
	for _, kw := range s.Keywords {
		score += strings.Count(block, " "+kw+" ")
		score += strings.Count(block, "\t"+kw+" ")
	}
	if s.DefinitionToken != "" {
		score += strings.Count(block, s.DefinitionToken) - 1
	}
	return max(score, 1)
}

// Complexity scores code with the Python scorer.
func Complexity(code string, start, end int) int {
	return Python.Score(code, start, end)
}

func lineRange(code string, start, end int) string {
	lines := strings.Split(code, "\n")
	lo := max(start-1, 0)
	hi := min(end, len(lines))
	if lo >= hi {
		return ""
	}
	return strings.Join(lines[lo:hi], "\n")
}
