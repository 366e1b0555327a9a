// Command csd-analyzer dispatches each file to the enabled engine that claims it most
// confidently.
package main

import (
	"github.com/mvp-joe/csd-analyzers/internal/analyzer"
	"github.com/mvp-joe/csd-analyzers/internal/cli"
	"github.com/mvp-joe/csd-analyzers/internal/config"
)

func main() {
	cli.Execute("csd-analyzer", func(cfg *config.Config, opts ...analyzer.Option) (analyzer.Analyzer, error) {
		registry, err := analyzer.NewRegistry(cfg.Engines.Enabled, opts...)
		if err != nil {
			return nil, err
		}
		return registry, nil
	})
}
