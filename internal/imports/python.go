package imports

import (
	"path/filepath"
	"strings"
)

// PythonStdlib is the set of standard library root modules recognized for Python.
var PythonStdlib = map[string]bool{
	"os": true, "sys": true, "json": true, "time": true, "datetime": true, "pathlib": true,
	"collections": true, "itertools": true, "functools": true, "typing": true, "dataclasses": true,
	"abc": true, "re": true, "math": true, "random": true, "urllib": true, "http": true,
	"socket": true, "threading": true, "asyncio": true, "logging": true, "argparse": true,
	"configparser": true, "csv": true, "xml": true, "sqlite3": true, "ast": true, "hashlib": true,
	"io": true, "unittest": true, "traceback": true,
}

// NewPython returns the Python classifier. Dotted modules map to directories, with package
// __init__.py files as the fallback, probed against the project root and then the importing
// file's directory.
func NewPython(p Prober) *Classifier {
	return &Classifier{
		RelativePrefixes:    []string{"."},
		StandardModules:     PythonStdlib,
		RootModule:          pythonRoot,
		ProbeBeforeStandard: true,
		ClassifyCandidates:  pythonCandidates,
		ResolveCandidates:   pythonCandidates,
		Prober:              p,
	}
}

func pythonRoot(module string) string {
	root, _, _ := strings.Cut(module, ".")
	return root
}

func pythonCandidates(module, projectRoot, filePath string) []string {
	if module == "" || strings.HasPrefix(module, ".") {
		return nil
	}
	rel := filepath.FromSlash(strings.ReplaceAll(module, ".", "/"))
	fileDir := filepath.Dir(filePath)
	return []string{
		filepath.Join(projectRoot, rel+".py"),
		filepath.Join(projectRoot, rel, "__init__.py"),
		filepath.Join(fileDir, rel+".py"),
		filepath.Join(fileDir, rel, "__init__.py"),
	}
}
