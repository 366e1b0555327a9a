package scoring

// Test Plan for scoring:
// - Complexity starts at 1 and counts space/tab delimited keywords inside the range only
// - Nested definitions add to the score, the outer one is excluded
// - Score never drops below 1, even for empty or out-of-range input
// - One more keyword never lowers the score
// - Coarse and fine token estimators, including empty input
// - Breakdown clamps code tokens at zero

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComplexity_Basic(t *testing.T) {
	t.Parallel()

	code := "def f(x):\n    return x\n"
	assert.Equal(t, 1, Complexity(code, 1, 2))
}

func TestComplexity_CountsKeywords(t *testing.T) {
	t.Parallel()

	code := strings.Join([]string{
		"def f(x):",
		"    if x > 1:",
		"        for i in range(x):",
		"            while True:",
		"                break",
		"    else:",
		"\tif y ",
	}, "\n")

	// if, for, while, tab-if; "else:" has no trailing space
	assert.Equal(t, 5, Complexity(code, 1, 7))
	// range limits the count to lines 1-2
	assert.Equal(t, 2, Complexity(code, 1, 2))
}

func TestComplexity_NestedDefinitions(t *testing.T) {
	t.Parallel()

	code := "def outer():\n    def inner():\n        pass\n    def other():\n        pass\n"
	assert.Equal(t, 3, Complexity(code, 1, 5))
}

func TestComplexity_FloorsAtOne(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, Complexity("", 1, 1))
	assert.Equal(t, 1, Complexity("x = 1", 10, 20))
	// no definition token in range would subtract one
	assert.Equal(t, 1, Rust.Score("struct A;", 1, 1))
}

func TestComplexity_Monotonic(t *testing.T) {
	t.Parallel()

	base := "fn f() {\n    let a = 1;\n}"
	more := "fn f() {\n    let a = 1; if a {\n}"
	assert.GreaterOrEqual(t, Rust.Score(more, 1, 3), Rust.Score(base, 1, 3))
}

func TestRustScorer_UsesFnToken(t *testing.T) {
	t.Parallel()

	code := "impl A {\n    fn a() {}\n    fn b() { if x { } }\n}"
	// base 1 + one "if" + (2 fn - 1)
	assert.Equal(t, 3, Rust.Score(code, 1, 4))
}

func TestEstimateText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, EstimateText(""))
	assert.Equal(t, 1, EstimateText("abc"))
	assert.Equal(t, 2, EstimateText("abcdefghi"))
	// 22 code points, 27 bytes
	assert.Equal(t, 5, EstimateText("Größe prüfen – überall"))
	assert.Equal(t, 1, EstimateText("ü"))
}

func TestEstimateCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, EstimateCode(""))
	// tokens: def, f, x, return, x (5); punctuation: ( ) : (3) -> 5 + 1
	assert.Equal(t, 6, EstimateCode("def f(x): return x"))
	// whitespace splits words but adds nothing
	assert.Equal(t, 3, EstimateCode("alpha beta gamma"))
	assert.Equal(t, 3, EstimateCode("alpha\tbeta\n\ngamma"))
	assert.Equal(t, 1, EstimateCode("   "))
	assert.Equal(t, 1, EstimateCode("word"))
}

func TestBreakdown(t *testing.T) {
	t.Parallel()

	info := Breakdown(100, 20, 10)
	assert.Equal(t, 70, info.CodeTokens)
	assert.Equal(t, 100, info.TotalTokens)

	info = Breakdown(5, 10, 10)
	assert.Equal(t, 0, info.CodeTokens)
}
