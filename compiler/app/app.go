// Copyright 2020, Square, Inc.

// Package app provides app-wide data structs and functions.
package app

import (
	"github.com/square/taskgraph/config"
	"github.com/square/taskgraph/spec"
)

// Context represents how to run the compiler. A context is passed to
// compiler.Run(). A default context is created in main.go. Wrapper code can
// integrate with the compiler by passing a custom context to compiler.Run().
// Integration is done primarily with hooks and factories.
type Context struct {
	// for integration with other code
	Factories Factories
	Hooks     Hooks
}

type Factories struct {
	CheckFactories []spec.CheckFactory // All additional check factories to run
}

type Hooks struct {
	// LoadConfig loads the config file given by --config. The returned values
	// are defaults; command line options override them.
	LoadConfig func(file string) (config.Compiler, error)

	// LoadSpecs loads every DAG spec in specsDir.
	LoadSpecs func(specsDir string, logFunc func(string, ...interface{})) (spec.Specs, error)
}

func Defaults() Context {
	return Context{
		Factories: Factories{
			CheckFactories: []spec.CheckFactory{spec.DefaultCheckFactory{}},
		},
		Hooks: Hooks{
			LoadConfig: LoadConfig,
			LoadSpecs:  spec.Parse,
		},
	}
}

// LoadConfig loads a compiler config file.
func LoadConfig(file string) (config.Compiler, error) {
	var cfg config.Compiler
	err := config.Load(file, &cfg)
	return cfg, err
}
