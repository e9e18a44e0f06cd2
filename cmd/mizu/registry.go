package main

import (
	"github.com/data-oriented-ir/mizu"
	"github.com/data-oriented-ir/mizu/concurrency"
	"github.com/data-oriented-ir/mizu/instr"
)

// buildRegistry assembles a registry carrying the base, float and
// concurrency banks — the CLI always registers all three since it has no
// way to know ahead of time which banks a loaded binary program needs.
func buildRegistry() (*mizu.Registry, error) {
	reg := mizu.NewRegistry()
	if err := instr.RegisterAll(reg); err != nil {
		return nil, err
	}
	if err := instr.RegisterAllFloat(reg); err != nil {
		return nil, err
	}
	if err := concurrency.RegisterAll(reg); err != nil {
		return nil, err
	}
	return reg, nil
}
