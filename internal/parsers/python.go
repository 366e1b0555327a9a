package parsers

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/mvp-joe/csd-analyzers/internal/imports"
	"github.com/mvp-joe/csd-analyzers/internal/ir"
	"github.com/mvp-joe/csd-analyzers/internal/scoring"
	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// PythonParser extracts the IR from Python source using the tree-sitter grammar.
type PythonParser struct {
	*treeSitterParser
	classifier *imports.Classifier
}

// NewPythonParser creates a new Python parser. classifier decides import types and resolves
// local imports into relationships.
func NewPythonParser(classifier *imports.Classifier) *PythonParser {
	lang := sitter.NewLanguage(python.Language())
	return &PythonParser{
		treeSitterParser: newTreeSitterParser(lang, "python"),
		classifier:       classifier,
	}
}

// pythonFile carries the per-call parse state.
type pythonFile struct {
	in     *ir.Input
	source []byte
	lines  []string
}

// Parse analyzes Python source. Unparseable input yields empty collections and a summary
// describing the syntax error.
func (p *PythonParser) Parse(ctx context.Context, in *ir.Input) *ir.Output {
	source := []byte(in.Content)
	out := ir.NewOutput(in)

	tree, err := p.parse(source)
	if err != nil {
		return syntaxErrorOutput(out, in.Content, err.Error())
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return syntaxErrorOutput(out, in.Content, describeSyntaxError(root))
	}
	if msg, bad := legacySyntax(root, source); bad {
		return syntaxErrorOutput(out, in.Content, msg)
	}

	f := &pythonFile{in: in, source: source, lines: strings.Split(in.Content, "\n")}

	out.Elements = f.elements(root)
	out.Imports = f.imports(root, p.classifier)
	out.Exports = f.exports(root)
	out.Relationships = imports.BuildRelationships(out.Imports, in, p.classifier, "import")

	info := f.tokenInfo(out.Elements)
	out.TokenInfo = &info
	out.Metadata = ir.FileMetadata{
		HasMainCheck: ir.Bool(f.hasMainCheck(root)),
	}
	if doc, ok := f.docstring(root); ok {
		out.Metadata.ModuleDocstring = ir.String(doc)
	}
	return out
}

func syntaxErrorOutput(out *ir.Output, content, msg string) *ir.Output {
	out.FileSummary = ir.String("Syntax error in Python file: " + msg)
	out.TokenInfo = &ir.TokenInfo{TotalTokens: scoring.EstimateText(content)}
	return out
}

// describeSyntaxError locates the first ERROR or MISSING node.
func describeSyntaxError(root *sitter.Node) string {
	var bad *sitter.Node
	walkTree(root, func(n *sitter.Node) bool {
		if bad != nil {
			return false
		}
		if n.IsError() || n.IsMissing() {
			bad = n
			return false
		}
		return n.HasError()
	})
	if bad == nil {
		return "invalid syntax"
	}
	pos := bad.StartPosition()
	if bad.IsMissing() {
		return fmt.Sprintf("expected '%s' (line %d, column %d)", bad.Kind(), pos.Row+1, pos.Column+1)
	}
	return fmt.Sprintf("invalid syntax (line %d, column %d)", pos.Row+1, pos.Column+1)
}

// legacySyntax finds constructs the grammar accepts but Python 3 rejects: Python 2 print and
// exec statements, and blocks holding no statement.
func legacySyntax(root *sitter.Node, source []byte) (string, bool) {
	var msg string
	walkTree(root, func(n *sitter.Node) bool {
		if msg != "" {
			return false
		}
		pos := n.StartPosition()
		switch n.Kind() {
		case "print_statement", "exec_statement":
			keyword := strings.TrimSuffix(n.Kind(), "_statement")
			rest := strings.TrimSpace(strings.TrimPrefix(extractNodeText(n, source), keyword))
			if !strings.HasPrefix(rest, "(") {
				msg = fmt.Sprintf("Missing parentheses in call to '%s' (line %d, column %d)", keyword, pos.Row+1, pos.Column+1)
			}
		case "block":
			if !hasStatement(n) {
				line := pos.Row + 1
				if parent := n.Parent(); parent != nil {
					line = parent.StartPosition().Row + 1
				}
				msg = fmt.Sprintf("expected an indented block (line %d)", line)
			}
		}
		return msg == ""
	})
	return msg, msg != ""
}

func hasStatement(block *sitter.Node) bool {
	for i := uint(0); i < block.NamedChildCount(); i++ {
		if block.NamedChild(i).Kind() != "comment" {
			return true
		}
	}
	return false
}

// elements visits the tree breadth first. A decorated definition is handled as its inner
// definition so decorated and plain declarations come out in source order.
func (f *pythonFile) elements(root *sitter.Node) []ir.CodeElement {
	elements := []ir.CodeElement{}

	queue := []*sitter.Node{root}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		if node.Kind() == "decorated_definition" {
			queue = append(queue, findChildrenByType(node, "decorator")...)
			if def := node.ChildByFieldName("definition"); def != nil {
				node = def
			}
		}

		switch node.Kind() {
		case "function_definition":
			elements = append(elements, f.functionElement(node))
		case "class_definition":
			elements = append(elements, f.classElement(node))
		case "expression_statement":
			if parent := node.Parent(); parent != nil && parent.Kind() == "module" {
				if el, ok := f.variableElement(node); ok {
					elements = append(elements, el)
				}
			}
		}

		for i := 0; i < int(node.ChildCount()); i++ {
			queue = append(queue, node.Child(uint(i)))
		}
	}
	return elements
}

func (f *pythonFile) functionElement(node *sitter.Node) ir.CodeElement {
	name := extractNodeText(node.ChildByFieldName("name"), f.source)
	isAsync := false
	if first := node.Child(0); first != nil && first.Kind() == "async" {
		isAsync = true
	}

	args := f.positionalParams(node.ChildByFieldName("parameters"))
	signature := fmt.Sprintf("def %s(%s)", name, strings.Join(args, ", "))
	if isAsync {
		signature = "async " + signature
	}

	start, end := nodeLines(node)
	decorators := f.decorators(node)
	doc, hasDoc := f.docstring(node.ChildByFieldName("body"))

	el := ir.CodeElement{
		ElementType:     ir.ElementFunction,
		Name:            name,
		Signature:       ir.String(signature),
		LineStart:       start,
		LineEnd:         end,
		ComplexityScore: ir.Int(scoring.Python.Score(f.in.Content, start, end)),
		Calls:           f.calls(node),
		Tokens:          ir.Int(f.elementTokens(start, end)),
		Metadata: ir.ElementMetadata{
			IsAsync:         ir.Bool(isAsync),
			Decorators:      decorators,
			ArgCount:        ir.Int(len(args)),
			HasDocstring:    ir.Bool(hasDoc),
			DocstringTokens: ir.Int(0),
		},
	}
	if hasDoc {
		el.Summary = ir.String(doc)
		el.Metadata.DocstringTokens = ir.Int(scoring.EstimateText(doc))
	}
	return el
}

func (f *pythonFile) classElement(node *sitter.Node) ir.CodeElement {
	name := extractNodeText(node.ChildByFieldName("name"), f.source)
	bases := f.baseClasses(node.ChildByFieldName("superclasses"))

	signature := "class " + name
	if len(bases) > 0 {
		signature = fmt.Sprintf("class %s(%s)", name, strings.Join(bases, ", "))
	}

	body := node.ChildByFieldName("body")
	methods := []string{}
	for _, stmt := range namedChildren(body) {
		if stmt.Kind() == "decorated_definition" {
			stmt = stmt.ChildByFieldName("definition")
		}
		if stmt != nil && stmt.Kind() == "function_definition" {
			methods = append(methods, extractNodeText(stmt.ChildByFieldName("name"), f.source))
		}
	}

	start, end := nodeLines(node)
	doc, hasDoc := f.docstring(body)

	el := ir.CodeElement{
		ElementType:     ir.ElementClass,
		Name:            name,
		Signature:       ir.String(signature),
		LineStart:       start,
		LineEnd:         end,
		ComplexityScore: ir.Int(scoring.Python.Score(f.in.Content, start, end)),
		Calls:           dedupe(methods),
		Tokens:          ir.Int(f.elementTokens(start, end)),
		Metadata: ir.ElementMetadata{
			BaseClasses:     bases,
			Methods:         methods,
			Decorators:      f.decorators(node),
			HasDocstring:    ir.Bool(hasDoc),
			DocstringTokens: ir.Int(0),
		},
	}
	if hasDoc {
		el.Summary = ir.String(doc)
		el.Metadata.DocstringTokens = ir.Int(scoring.EstimateText(doc))
	}
	return el
}

// variableElement handles module-level NAME = value and name: T [= value] statements.
func (f *pythonFile) variableElement(stmt *sitter.Node) (ir.CodeElement, bool) {
	children := namedChildren(stmt)
	if len(children) != 1 || children[0].Kind() != "assignment" {
		return ir.CodeElement{}, false
	}
	assign := children[0]
	left := assign.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		return ir.CodeElement{}, false
	}
	name := extractNodeText(left, f.source)
	if strings.HasPrefix(name, "_") {
		return ir.CodeElement{}, false
	}

	var meta ir.ElementMetadata
	switch {
	case assign.ChildByFieldName("type") != nil:
		meta.HasTypeAnnotation = ir.Bool(true)
	case isChainedAssignment(assign):
		return ir.CodeElement{}, false
	case isUpper(name):
		meta.IsConstant = ir.Bool(true)
	default:
		return ir.CodeElement{}, false
	}

	line := int(stmt.StartPosition().Row) + 1
	return ir.CodeElement{
		ElementType: ir.ElementVariable,
		Name:        name,
		LineStart:   line,
		LineEnd:     line,
		Calls:       []string{},
		Tokens:      ir.Int(max(1, scoring.EstimateCode(f.line(line)))),
		Metadata:    meta,
	}, true
}

func isChainedAssignment(assign *sitter.Node) bool {
	right := assign.ChildByFieldName("right")
	return right != nil && right.Kind() == "assignment"
}

// positionalParams returns the positional-or-keyword parameter names. Positional-only
// parameters (before "/") are dropped and the list ends at "*" or *args.
func (f *pythonFile) positionalParams(params *sitter.Node) []string {
	names := []string{}
	for _, p := range namedChildren(params) {
		switch p.Kind() {
		case "positional_separator":
			names = names[:0]
			continue
		case "keyword_separator", "list_splat_pattern", "dictionary_splat_pattern":
			return names
		case "identifier":
			names = append(names, extractNodeText(p, f.source))
		case "default_parameter", "typed_default_parameter":
			names = append(names, extractNodeText(p.ChildByFieldName("name"), f.source))
		case "typed_parameter":
			inner := firstNamedChild(p)
			if inner == nil {
				continue
			}
			if inner.Kind() != "identifier" {
				return names
			}
			names = append(names, extractNodeText(inner, f.source))
		}
	}
	return names
}

func (f *pythonFile) baseClasses(args *sitter.Node) []string {
	bases := []string{}
	for _, arg := range namedChildren(args) {
		switch arg.Kind() {
		case "keyword_argument", "list_splat", "dictionary_splat":
			continue
		}
		name := f.nameOf(arg)
		if name == "" {
			name = extractNodeText(arg, f.source)
		}
		bases = append(bases, name)
	}
	return bases
}

// decorators resolves the decorators applied to a definition.
func (f *pythonFile) decorators(def *sitter.Node) []string {
	names := []string{}
	parent := def.Parent()
	if parent == nil || parent.Kind() != "decorated_definition" {
		return names
	}
	for _, d := range findChildrenByType(parent, "decorator") {
		name := f.nameOf(firstNamedChild(d))
		if name == "" {
			name = "unknown"
		}
		names = append(names, name)
	}
	return names
}

// calls collects the resolved target of every call in the definition, its decorators included.
func (f *pythonFile) calls(def *sitter.Node) []string {
	root := def
	if parent := def.Parent(); parent != nil && parent.Kind() == "decorated_definition" {
		root = parent
	}
	calls := []string{}
	walkTree(root, func(n *sitter.Node) bool {
		if n.Kind() == "call" {
			if name := f.nameOf(n.ChildByFieldName("function")); name != "" {
				calls = append(calls, name)
			}
		}
		return true
	})
	return dedupe(calls)
}

// nameOf resolves identifiers, attribute chains, call targets and string constants to a
// dotted name. Anything else resolves to "".
func (f *pythonFile) nameOf(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	switch node.Kind() {
	case "identifier":
		return extractNodeText(node, f.source)
	case "attribute":
		attr := extractNodeText(node.ChildByFieldName("attribute"), f.source)
		if value := f.nameOf(node.ChildByFieldName("object")); value != "" {
			return value + "." + attr
		}
		return attr
	case "call":
		return f.nameOf(node.ChildByFieldName("function"))
	case "string", "concatenated_string":
		v, _ := pythonStringValue(node, f.source)
		return v
	case "parenthesized_expression":
		return f.nameOf(firstNamedChild(node))
	}
	return ""
}

// docstring returns the cleaned docstring of a block or module: its first statement when
// that is a bare string literal.
func (f *pythonFile) docstring(body *sitter.Node) (string, bool) {
	first := firstNamedChild(body)
	if first == nil || first.Kind() != "expression_statement" {
		return "", false
	}
	children := namedChildren(first)
	if len(children) != 1 {
		return "", false
	}
	v, ok := pythonStringValue(children[0], f.source)
	if !ok {
		return "", false
	}
	return cleandoc(v), true
}

func (f *pythonFile) imports(root *sitter.Node, classifier *imports.Classifier) []ir.Import {
	result := []ir.Import{}

	queue := []*sitter.Node{root}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		line := int(node.StartPosition().Row) + 1
		switch node.Kind() {
		case "import_statement":
			for _, child := range namedChildren(node) {
				var module string
				var alias *string
				switch child.Kind() {
				case "dotted_name":
					module = f.dottedName(child)
				case "aliased_import":
					module = f.dottedName(child.ChildByFieldName("name"))
					alias = ir.String(extractNodeText(child.ChildByFieldName("alias"), f.source))
				default:
					continue
				}
				result = append(result, ir.Import{
					Module:     module,
					Items:      []string{},
					Alias:      alias,
					LineNumber: line,
					ImportType: classifier.Classify(module, f.in.ProjectRoot, f.in.FilePath),
				})
			}
			continue

		case "import_from_statement", "future_import_statement":
			module := "__future__"
			if node.Kind() == "import_from_statement" {
				module = f.dottedName(node.ChildByFieldName("module_name"))
			}
			result = append(result, ir.Import{
				Module:     module,
				Items:      f.importedNames(node),
				LineNumber: line,
				ImportType: classifier.Classify(module, f.in.ProjectRoot, f.in.FilePath),
			})
			continue
		}

		for i := 0; i < int(node.ChildCount()); i++ {
			queue = append(queue, node.Child(uint(i)))
		}
	}
	return result
}

// importedNames lists the names after the import keyword of a from-import.
func (f *pythonFile) importedNames(node *sitter.Node) []string {
	items := []string{}
	afterImport := false
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == "import" {
			afterImport = true
			continue
		}
		if !afterImport {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			items = append(items, f.dottedName(child))
		case "aliased_import":
			items = append(items, f.dottedName(child.ChildByFieldName("name")))
		case "wildcard_import":
			items = append(items, "*")
		}
	}
	return items
}

func (f *pythonFile) dottedName(node *sitter.Node) string {
	return strings.Join(strings.Fields(extractNodeText(node, f.source)), "")
}

// exports lists the public names bound at module level.
func (f *pythonFile) exports(root *sitter.Node) []string {
	exports := []string{}
	for _, stmt := range namedChildren(root) {
		if stmt.Kind() == "decorated_definition" {
			stmt = stmt.ChildByFieldName("definition")
			if stmt == nil {
				continue
			}
		}
		switch stmt.Kind() {
		case "function_definition", "class_definition":
			if name := extractNodeText(stmt.ChildByFieldName("name"), f.source); !strings.HasPrefix(name, "_") {
				exports = append(exports, name)
			}
		case "expression_statement":
			children := namedChildren(stmt)
			if len(children) != 1 || children[0].Kind() != "assignment" {
				continue
			}
			assign := children[0]
			if assign.ChildByFieldName("type") != nil {
				continue
			}
			for assign != nil && assign.Kind() == "assignment" {
				if left := assign.ChildByFieldName("left"); left != nil && left.Kind() == "identifier" {
					if name := extractNodeText(left, f.source); !strings.HasPrefix(name, "_") {
						exports = append(exports, name)
					}
				}
				assign = assign.ChildByFieldName("right")
			}
		}
	}
	return exports
}

// hasMainCheck reports whether the file has an if __name__ == "__main__" block.
func (f *pythonFile) hasMainCheck(root *sitter.Node) bool {
	found := false
	walkTree(root, func(n *sitter.Node) bool {
		if found {
			return false
		}
		if n.Kind() != "if_statement" {
			return true
		}
		cond := n.ChildByFieldName("condition")
		if cond == nil || cond.Kind() != "comparison_operator" || cond.ChildCount() != 3 {
			return true
		}
		left, right := cond.Child(0), cond.Child(2)
		if left.Kind() == "identifier" && extractNodeText(left, f.source) == "__name__" {
			if v, ok := pythonStringValue(right, f.source); ok && v == "__main__" {
				found = true
			}
		}
		return true
	})
	return found
}

func (f *pythonFile) tokenInfo(elements []ir.CodeElement) ir.TokenInfo {
	total := scoring.EstimateCode(f.in.Content)

	doc := 0
	for _, el := range elements {
		if el.Summary != nil && *el.Summary != "" {
			doc += scoring.EstimateText(*el.Summary)
		}
	}

	comment := 0
	for _, line := range f.lines {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "#") && !strings.HasPrefix(stripped, "#!") {
			comment += scoring.EstimateText(stripped[1:])
		}
	}
	return scoring.Breakdown(total, doc, comment)
}

func (f *pythonFile) elementTokens(start, end int) int {
	return max(1, scoring.EstimateCode(extractLines(f.lines, start, end)))
}

func (f *pythonFile) line(n int) string {
	if n < 1 || n > len(f.lines) {
		return ""
	}
	return f.lines[n-1]
}

// isUpper mirrors Python's str.isupper: at least one cased rune and no lowercase ones.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) || unicode.IsTitle(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

// dedupe returns the sorted unique values of names.
func dedupe(names []string) []string {
	out := slices.Clone(names)
	slices.Sort(out)
	return slices.Compact(out)
}
