// Command csd-python analyzes Python sources and dependency manifests.
package main

import (
	"github.com/mvp-joe/csd-analyzers/internal/analyzer"
	"github.com/mvp-joe/csd-analyzers/internal/cli"
	"github.com/mvp-joe/csd-analyzers/internal/config"
)

func main() {
	cli.Execute("csd-python", func(_ *config.Config, opts ...analyzer.Option) (analyzer.Analyzer, error) {
		return analyzer.NewPython(opts...), nil
	})
}
