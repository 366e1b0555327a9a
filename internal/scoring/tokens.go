package scoring

import (
	"regexp"
	"unicode/utf8"

	"github.com/mvp-joe/csd-analyzers/internal/ir"
)

// delimiters splits code into word-like tokens.
var delimiters = regexp.MustCompile(`[\s(){}\[\]<>,.;:"'` + "`" + `|\\/\-+=*&%$#@!?~]+`)

// delimiterChar matches a single punctuation character. Whitespace separates words but is not
// counted.
var delimiterChar = regexp.MustCompile(`[(){}\[\]<>,.;:"'` + "`" + `|\\/\-+=*&%$#@!?~]`)

// EstimateText is the coarse estimator for free text: roughly four characters (code points, not
// bytes) per token.
func EstimateText(text string) int {
	if text == "" {
		return 0
	}
	return max(1, utf8.RuneCountInString(text)/4)
}

// EstimateCode is the fine estimator for source: word tokens plus half the punctuation.
func EstimateCode(code string) int {
	if code == "" {
		return 0
	}
	words := 0
	for _, part := range delimiters.Split(code, -1) {
		if part != "" {
			words++
		}
	}
	punct := len(delimiterChar.FindAllStringIndex(code, -1))
	return max(1, words+punct/2)
}

// Breakdown builds a TokenInfo, deriving code tokens from the other counts.
func Breakdown(total, documentation, comment int) ir.TokenInfo {
	return ir.TokenInfo{
		TotalTokens:         total,
		CodeTokens:          max(0, total-documentation-comment),
		DocumentationTokens: documentation,
		CommentTokens:       comment,
	}
}
