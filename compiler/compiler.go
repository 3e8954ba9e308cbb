// Copyright 2020, Square, Inc.

// Package compiler loads DAG specs, checks them, resolves them into task graphs,
// and renders the graphs. It is the taskgraphc command; wrapper code can call
// Run with a custom app.Context.
package compiler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/alexflint/go-arg"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/square/taskgraph/builder"
	"github.com/square/taskgraph/compiler/app"
	"github.com/square/taskgraph/grapher"
	"github.com/square/taskgraph/proto"
	"github.com/square/taskgraph/spec"
	"github.com/square/taskgraph/util"
	"github.com/square/taskgraph/version"
)

const (
	FORMAT_CODE    = "code"
	FORMAT_DOT     = "dot"
	FORMAT_JSON    = "json"
	FORMAT_SURFACE = "surface"
)

// Options represents the command line. Options set on the command line
// override the config file.
type Options struct {
	SpecsDir string `arg:"positional" help:"directory of DAG spec files"`
	Dag      string `arg:"--dag" help:"DAG to compile (default: every DAG)"`
	Format   string `arg:"--format" help:"output format: code, dot, json, or surface (default: code)"`
	Output   string `arg:"--output" help:"output file; a directory when compiling every DAG (default: stdout)"`
	Config   string `arg:"--config" help:"config file"`
	LogLevel string `arg:"--log-level" help:"log level (default: info)"`
	Parallel int    `arg:"--parallel" help:"max DAGs resolved at once (default: one per CPU)"`
	Version  bool   `arg:"-v" help:"print version and exit"`
}

type renderFunc func(w io.Writer, r *grapher.Result) error

var renderers = map[string]renderFunc{
	FORMAT_CODE: builder.Render,
	FORMAT_DOT: func(w io.Writer, r *grapher.Result) error {
		return r.Graph.WriteDot(w)
	},
	FORMAT_JSON: func(w io.Writer, r *grapher.Result) error {
		g, err := proto.NewGraph(r)
		if err != nil {
			return err
		}
		bytes, err := json.MarshalIndent(g, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", bytes)
		return err
	},
	FORMAT_SURFACE: func(w io.Writer, r *grapher.Result) error {
		_, err := fmt.Fprintf(w, "%s\nupstream: %s\ndownstream: %s\n",
			r.Graph.Name, strings.Join(r.Surface.Upstream, ", "), strings.Join(r.Surface.Downstream, ", "))
		return err
	},
}

var extensions = map[string]string{
	FORMAT_CODE:    ".py",
	FORMAT_DOT:     ".dot",
	FORMAT_JSON:    ".json",
	FORMAT_SURFACE: ".txt",
}

// ParseCommandLine parses args, which do not include the program name.
func ParseCommandLine(args []string) (Options, error) {
	var o Options
	p, err := arg.NewParser(arg.Config{Program: "taskgraphc"}, &o)
	if err != nil {
		return o, err
	}
	if err := p.Parse(args); err != nil {
		if err == arg.ErrHelp {
			p.WriteHelp(os.Stdout)
		}
		return o, err
	}
	return o, nil
}

// Run parses the command line and config file, then compiles to stdout or the
// --output path.
func Run(ctx app.Context) error {
	o, err := ParseCommandLine(os.Args[1:])
	if err != nil {
		if err == arg.ErrHelp {
			return nil
		}
		return err
	}
	if o.Version {
		fmt.Println("taskgraphc " + version.Version())
		return nil
	}

	// Config file values are defaults for unset options
	logFormat := ""
	if o.Config != "" {
		cfg, err := ctx.Hooks.LoadConfig(o.Config)
		if err != nil {
			return fmt.Errorf("error loading config file %s: %s", o.Config, err)
		}
		if o.SpecsDir == "" {
			o.SpecsDir = cfg.SpecsDir
		}
		if o.Format == "" {
			o.Format = cfg.Format
		}
		if o.Parallel == 0 {
			o.Parallel = cfg.Parallel
		}
		if o.LogLevel == "" {
			o.LogLevel = cfg.Log.Level
		}
		logFormat = cfg.Log.Format
	}
	if err := util.SetupLogging(os.Stderr, o.LogLevel, logFormat); err != nil {
		return err
	}

	return Compile(ctx, o, os.Stdout)
}

// Compile loads and checks every spec in o.SpecsDir, resolves o.Dag (or every
// DAG), and renders the results in o.Format. Without o.Output the results are
// written to stdout in DAG name order.
func Compile(ctx app.Context, o Options, stdout io.Writer) error {
	if o.SpecsDir == "" {
		return fmt.Errorf("specs dir not set: pass it as the first argument or set specs_dir in the config file")
	}
	if o.Format == "" {
		o.Format = FORMAT_CODE
	}
	render, ok := renderers[o.Format]
	if !ok {
		return fmt.Errorf("invalid format %q, expected code, dot, json, or surface", o.Format)
	}
	logger := log.WithField("specs", o.SpecsDir)

	/* Load and run static checks. */
	allSpecs, err := ctx.Hooks.LoadSpecs(o.SpecsDir, logger.Warnf)
	if err != nil {
		return err
	}
	factories := append([]spec.CheckFactory{spec.BaseCheckFactory{AllSpecs: allSpecs}}, ctx.Factories.CheckFactories...)
	checker, err := spec.NewChecker(factories)
	if err != nil {
		return err
	}
	checks := checker.RunChecks(allSpecs)
	for _, key := range checks.Keys() {
		result, _ := checks.Get(key)
		for _, w := range result.Warnings {
			logger.WithField("dag", key).Warn(w)
		}
	}
	if checks.AnyError {
		return fmt.Errorf("static checks failed: %w", checks.Err())
	}

	/* Resolve. */
	names := allSpecs.Names()
	if o.Dag != "" {
		names = []string{o.Dag}
	}
	parallel := o.Parallel
	if parallel <= 0 {
		parallel = runtime.NumCPU()
	}
	results, errs := grapher.NewGrapher(allSpecs, logger).ResolveAll(context.Background(), names, parallel)
	if len(errs) > 0 {
		var err error
		for _, name := range names {
			if e, ok := errs[name]; ok {
				err = multierr.Append(err, fmt.Errorf("%s: %w", name, e))
			}
		}
		return err
	}

	/* Render. */
	switch {
	case o.Output == "":
		for _, name := range names {
			if err := render(stdout, results[name]); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
		return nil
	case o.Dag != "":
		return writeFile(o.Output, render, results[o.Dag])
	}

	if err := os.MkdirAll(o.Output, 0755); err != nil {
		return err
	}
	for _, name := range names {
		file := filepath.Join(o.Output, name+extensions[o.Format])
		if err := writeFile(file, render, results[name]); err != nil {
			return err
		}
		logger.WithFields(log.Fields{"dag": name, "file": file}).Info("wrote dag")
	}
	return nil
}

func writeFile(file string, render renderFunc, r *grapher.Result) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	if err := render(f, r); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", r.Graph.Name, err)
	}
	return f.Close()
}
