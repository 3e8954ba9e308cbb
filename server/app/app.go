// Copyright 2017-2020, Square, Inc.

// Package app provides app-wide data structs and functions.
package app

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/square/taskgraph/config"
	"github.com/square/taskgraph/grapher"
	"github.com/square/taskgraph/spec"
)

// Context represents the config, hooks, and factories of the graph service.
// A default context is created in main.go. Wrapper code can pass a custom
// context to server.NewServer().
type Context struct {
	Hooks     Hooks
	Factories Factories

	// Config file given on the command line, optional
	ConfigFile string

	// Set by Server.Boot
	Config  config.Server
	Specs   spec.Specs
	Grapher *grapher.Grapher
	Cache   grapher.Repo // resolved DAGs keyed on name
}

type Factories struct {
	CheckFactories []spec.CheckFactory // run after the base checks at boot and on every resolve request
}

type Hooks struct {
	LoadConfig func(Context) (config.Server, error)
	LoadSpecs  func(Context) (spec.Specs, error)
}

func Defaults() Context {
	return Context{
		Factories: Factories{
			CheckFactories: []spec.CheckFactory{spec.DefaultCheckFactory{}},
		},
		Hooks: Hooks{
			LoadConfig: LoadConfig,
			LoadSpecs:  LoadSpecs,
		},
	}
}

// LoadConfig loads ctx.ConfigFile, else the file for the ENVIRONMENT env var.
func LoadConfig(ctx Context) (config.Server, error) {
	cfgFile := ctx.ConfigFile
	if cfgFile == "" {
		switch os.Getenv("ENVIRONMENT") {
		case "staging":
			cfgFile = "config/staging.yaml"
		case "production":
			cfgFile = "config/production.yaml"
		default:
			cfgFile = "config/development.yaml"
		}
	}
	var cfg config.Server
	err := config.Load(cfgFile, &cfg)
	return cfg, err
}

// LoadSpecs loads every DAG spec in the configured specs dir.
func LoadSpecs(ctx Context) (spec.Specs, error) {
	if ctx.Config.SpecsDir == "" {
		return spec.Specs{}, fmt.Errorf("specs_dir not set in config")
	}
	return spec.Parse(ctx.Config.SpecsDir, log.Warnf)
}
