// Command csd-rust analyzes Rust sources and Cargo manifests.
package main

import (
	"github.com/mvp-joe/csd-analyzers/internal/analyzer"
	"github.com/mvp-joe/csd-analyzers/internal/cli"
	"github.com/mvp-joe/csd-analyzers/internal/config"
)

func main() {
	cli.Execute("csd-rust", func(_ *config.Config, opts ...analyzer.Option) (analyzer.Analyzer, error) {
		return analyzer.NewRust(opts...), nil
	})
}
