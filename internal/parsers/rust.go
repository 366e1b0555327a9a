package parsers

import (
	"context"
	"regexp"
	"strings"

	"github.com/mvp-joe/csd-analyzers/internal/imports"
	"github.com/mvp-joe/csd-analyzers/internal/ir"
	"github.com/mvp-joe/csd-analyzers/internal/scoring"
)

// maxElementSpan bounds the brace scan when a declaration never balances.
const maxElementSpan = 20

// ident matches a Unicode identifier.
const ident = `[\p{L}\p{N}_]+`

func rx(pattern string) *regexp.Regexp {
	return regexp.MustCompile(strings.ReplaceAll(pattern, `\w+`, ident))
}

type elementPattern struct {
	kind     ir.ElementType
	patterns []*regexp.Regexp
}

// rustElementPatterns is scanned in order; the first pattern that matches a line wins and the
// element name is its last capture group. "impl Trait for Type" therefore records Trait.
var rustElementPatterns = []elementPattern{
	{ir.ElementFunction, []*regexp.Regexp{
		rx(`^\s*(pub\s+)?fn\s+(\w+)`),
		rx(`^\s*(pub\s+)?(async\s+)?fn\s+(\w+)`),
	}},
	{ir.ElementStruct, []*regexp.Regexp{rx(`^\s*(pub\s+)?struct\s+(\w+)`)}},
	{ir.ElementEnum, []*regexp.Regexp{rx(`^\s*(pub\s+)?enum\s+(\w+)`)}},
	{ir.ElementTrait, []*regexp.Regexp{rx(`^\s*(pub\s+)?trait\s+(\w+)`)}},
	{ir.ElementImpl, []*regexp.Regexp{
		rx(`^\s*impl(?:\s*<[^>]*>)?\s+(\w+)`),
		rx(`^\s*impl(?:\s*<[^>]*>)?\s+\w+\s+for\s+(\w+)`),
	}},
	{ir.ElementModule, []*regexp.Regexp{rx(`^\s*(pub\s+)?mod\s+(\w+)`)}},
	{ir.ElementTypeAlias, []*regexp.Regexp{rx(`^\s*(pub\s+)?type\s+(\w+)`)}},
	{ir.ElementConstant, []*regexp.Regexp{rx(`^\s*(pub\s+)?const\s+(\w+)`)}},
}

var (
	rustCallPatterns = []*regexp.Regexp{
		rx(`(\w+)\s*\(`),
		rx(`\.(\w+)\s*\(`),
		rx(`(\w+)::\w+\s*\(`),
	}
	rustCallStoplist = map[string]bool{
		"if": true, "else": true, "while": true, "for": true, "match": true,
		"let": true, "mut": true, "return": true, "break": true, "continue": true,
	}

	rustUsePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\s*use\s+([^;]+);`),
		rx(`^\s*extern\s+crate\s+(\w+)`),
	}

	rustExportPatterns = []*regexp.Regexp{
		rx(`^\s*pub\s+fn\s+(\w+)`),
		rx(`^\s*pub\s+struct\s+(\w+)`),
		rx(`^\s*pub\s+enum\s+(\w+)`),
		rx(`^\s*pub\s+trait\s+(\w+)`),
		rx(`^\s*pub\s+type\s+(\w+)`),
		rx(`^\s*pub\s+const\s+(\w+)`),
		rx(`^\s*pub\s+mod\s+(\w+)`),
	}

	rustMainPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\s*fn\s+main\s*\(`),
		regexp.MustCompile(`^\s*pub\s+fn\s+main\s*\(`),
	}
)

// RustParser extracts the IR from Rust source by scanning lines. It is deliberately
// approximate: braces inside strings or comments are counted, multi-line declarations and
// braced use trees that span lines are not understood.
type RustParser struct {
	classifier *imports.Classifier
}

// NewRustParser creates a new Rust parser.
func NewRustParser(classifier *imports.Classifier) *RustParser {
	return &RustParser{classifier: classifier}
}

// Parse analyzes Rust source.
func (p *RustParser) Parse(ctx context.Context, in *ir.Input) *ir.Output {
	out := ir.NewOutput(in)
	lines := strings.Split(in.Content, "\n")

	out.Elements = rustElements(in.Content, lines)
	out.Imports = p.rustImports(lines, in)
	out.Exports = rustExports(lines)
	out.Relationships = imports.BuildRelationships(out.Imports, in, p.classifier, "use")

	info := rustTokenInfo(in.Content, lines)
	out.TokenInfo = &info
	out.Metadata = ir.FileMetadata{
		HasMainFn: ir.Bool(hasRustMain(lines)),
		IsLibRs:   ir.Bool(strings.HasSuffix(in.RelativePath, "lib.rs")),
		IsMainRs:  ir.Bool(strings.HasSuffix(in.RelativePath, "main.rs")),
	}
	return out
}

func rustElements(content string, lines []string) []ir.CodeElement {
	elements := []ir.CodeElement{}
	for idx, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" || strings.HasPrefix(stripped, "//") {
			continue
		}
		kind, name, ok := matchRustElement(line)
		if !ok {
			continue
		}
		elements = append(elements, buildRustElement(content, lines, idx, kind, name, stripped))
	}
	return elements
}

func matchRustElement(line string) (ir.ElementType, string, bool) {
	for _, ep := range rustElementPatterns {
		for _, re := range ep.patterns {
			if m := re.FindStringSubmatch(line); m != nil {
				return ep.kind, m[len(m)-1], true
			}
		}
	}
	return "", "", false
}

func buildRustElement(content string, lines []string, idx int, kind ir.ElementType, name, stripped string) ir.CodeElement {
	line := lines[idx]
	start := idx + 1
	last, reported := elementEnd(lines, idx, stripped)

	isPublic := strings.Contains(line, "pub ")
	isAsync := kind == ir.ElementFunction && strings.Contains(line, "async ")
	visibility := "private"
	if isPublic {
		visibility = "pub"
	}

	el := ir.CodeElement{
		ElementType:     kind,
		Name:            name,
		Signature:       ir.String(stripped),
		LineStart:       start,
		LineEnd:         reported,
		ComplexityScore: ir.Int(scoring.Rust.Score(content, start, last)),
		Calls:           rustCalls(lines, idx, last-1),
		Tokens:          ir.Int(max(1, scoring.EstimateCode(extractLines(lines, start, last)))),
		Metadata: ir.ElementMetadata{
			IsPublic:         ir.Bool(isPublic),
			IsAsync:          ir.Bool(isAsync),
			Visibility:       visibility,
			HasDocumentation: ir.Bool(false),
			DocTokens:        ir.Int(0),
		},
	}
	if doc, ok := rustDocumentation(lines, idx); ok {
		el.Summary = ir.String(doc)
		el.Metadata.HasDocumentation = ir.Bool(true)
		el.Metadata.DocTokens = ir.Int(scoring.EstimateText(doc))
	}
	return el
}

// elementEnd returns the last line (1-based) the element's metrics cover and the line_end to
// report. A declaration terminated by ";" covers only its own line and reports the line after
// it. Otherwise braces are balanced from the declaration line, giving up after maxElementSpan
// lines.
func elementEnd(lines []string, idx int, stripped string) (last, reported int) {
	if strings.HasSuffix(stripped, ";") {
		return idx + 1, idx + 2
	}

	count := 0
	inElement := false
	for i := idx; i < len(lines); i++ {
		open := strings.Count(lines[i], "{")
		closing := strings.Count(lines[i], "}")
		if open > 0 {
			inElement = true
			count += open
		}
		count -= closing
		if inElement && count <= 0 {
			return i + 1, i + 1
		}
	}

	end := min(idx+maxElementSpan, len(lines))
	return end, end
}

// rustCalls collects call names on lines [from, to) (0-based).
func rustCalls(lines []string, from, to int) []string {
	calls := []string{}
	for i := from; i < min(to, len(lines)); i++ {
		for _, re := range rustCallPatterns {
			for _, m := range re.FindAllStringSubmatch(lines[i], -1) {
				name := m[1]
				if rustCallStoplist[name] || len([]rune(name)) <= 1 {
					continue
				}
				calls = append(calls, name)
			}
		}
	}
	return dedupe(calls)
}

// rustDocumentation collects the doc comments above the declaration at idx, skipping
// attributes and blank lines. Any other line ends the scan.
func rustDocumentation(lines []string, idx int) (string, bool) {
	var doc []string
scan:
	for i := idx - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		switch {
		case strings.HasPrefix(line, "///"), strings.HasPrefix(line, "//!"):
			doc = append(doc, strings.TrimSpace(line[3:]))
		case strings.HasPrefix(line, "/**") && strings.HasSuffix(line, "*/"):
			if len(line) < 5 {
				continue
			}
			if text := strings.TrimSpace(line[3 : len(line)-2]); text != "" {
				doc = append(doc, text)
			}
		case strings.HasPrefix(line, "#["), line == "":
			continue
		default:
			break scan
		}
	}
	if len(doc) == 0 {
		return "", false
	}
	for l, r := 0, len(doc)-1; l < r; l, r = l+1, r-1 {
		doc[l], doc[r] = doc[r], doc[l]
	}
	return strings.Join(doc, "\n"), true
}

func (p *RustParser) rustImports(lines []string, in *ir.Input) []ir.Import {
	result := []ir.Import{}
	for idx, line := range lines {
		for _, re := range rustUsePatterns {
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			module, items := parseUseTree(strings.TrimSpace(m[1]))
			result = append(result, ir.Import{
				Module:     module,
				Items:      items,
				LineNumber: idx + 1,
				ImportType: p.classifier.Classify(module, in.ProjectRoot, in.FilePath),
			})
		}
	}
	return result
}

// parseUseTree splits a use path into the module and the imported items. Nested braces are
// not understood; only the first brace group is read.
func parseUseTree(stmt string) (string, []string) {
	if !strings.Contains(stmt, "::") {
		return stmt, []string{}
	}

	if strings.Contains(stmt, "{") && strings.Contains(stmt, "}") {
		head, rest, _ := strings.Cut(stmt, "{")
		module := strings.TrimSpace(strings.TrimRight(head, ":"))
		group, _, _ := strings.Cut(rest, "}")
		items := []string{}
		for _, item := range strings.Split(group, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return module, items
	}

	if strings.HasSuffix(stmt, "::*") {
		return strings.TrimSuffix(stmt, "::*"), []string{"*"}
	}

	i := strings.LastIndex(stmt, "::")
	return stmt[:i], []string{stmt[i+2:]}
}

func rustExports(lines []string) []string {
	var names []string
	for _, line := range lines {
		for _, re := range rustExportPatterns {
			if m := re.FindStringSubmatch(line); m != nil {
				names = append(names, m[1])
			}
		}
	}
	exports := dedupe(names)
	if exports == nil {
		exports = []string{}
	}
	return exports
}

func hasRustMain(lines []string) bool {
	for _, line := range lines {
		for _, re := range rustMainPatterns {
			if re.MatchString(line) {
				return true
			}
		}
	}
	return false
}

func rustTokenInfo(content string, lines []string) ir.TokenInfo {
	total := scoring.EstimateCode(content)

	doc, comment := 0, 0
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		isDocLine := strings.HasPrefix(stripped, "///") || strings.HasPrefix(stripped, "//!")
		isDocBlock := strings.HasPrefix(stripped, "/**") || strings.HasPrefix(stripped, "/*!")

		switch {
		case isDocLine:
			doc += scoring.EstimateText(stripped[3:])
		case isDocBlock:
			doc += scoring.EstimateText(stripped)
		}

		switch {
		case strings.HasPrefix(stripped, "//") && !isDocLine:
			comment += scoring.EstimateText(stripped[2:])
		case strings.Contains(stripped, "/*") && !isDocBlock:
			comment += scoring.EstimateText(stripped)
		}
	}
	return scoring.Breakdown(total, doc, comment)
}
