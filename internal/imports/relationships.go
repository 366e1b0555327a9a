package imports

import "github.com/mvp-joe/csd-analyzers/internal/ir"

// Resolver maps a local module reference to a project file.
type Resolver interface {
	Resolve(module, projectRoot, filePath string) (string, bool)
}

// BuildRelationships emits one import relationship per resolvable local import. Local imports
// that do not resolve are dropped. verb prefixes the module in the relationship details.
func BuildRelationships(imports []ir.Import, in *ir.Input, r Resolver, verb string) []ir.Relationship {
	rels := []ir.Relationship{}
	for _, imp := range imports {
		if imp.ImportType != ir.ImportLocal {
			continue
		}
		target, ok := r.Resolve(imp.Module, in.ProjectRoot, in.FilePath)
		if !ok {
			continue
		}
		rels = append(rels, ir.Relationship{
			FromFile:         in.RelativePath,
			ToFile:           target,
			RelationshipType: ir.RelationshipImport,
			Details:          verb + " " + imp.Module,
			LineNumber:       ir.Int(imp.LineNumber),
			Strength:         ir.ImportStrength,
		})
	}
	return rels
}
