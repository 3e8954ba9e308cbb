// Copyright 2017-2020, Square, Inc.

// Package server bootstraps and runs the graph service.
package server

import (
	"context"
	"fmt"
	"runtime"

	log "github.com/sirupsen/logrus"

	"github.com/square/taskgraph/grapher"
	"github.com/square/taskgraph/server/api"
	"github.com/square/taskgraph/server/app"
	"github.com/square/taskgraph/spec"
	"github.com/square/taskgraph/util"
)

type Server struct {
	appCtx app.Context
	api    *api.API
}

func NewServer(appCtx app.Context) *Server {
	return &Server{
		appCtx: appCtx,
	}
}

func (s *Server) Boot() error {
	// Load config file
	cfg, err := s.appCtx.Hooks.LoadConfig(s.appCtx)
	if err != nil {
		return fmt.Errorf("error loading config: %s", err)
	}
	s.appCtx.Config = cfg
	if err := util.SetupLogging(nil, cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}

	// Load and check DAG specs. Done only once on startup.
	specs, err := s.appCtx.Hooks.LoadSpecs(s.appCtx)
	if err != nil {
		return fmt.Errorf("error loading specs: %s", err)
	}
	factories := append([]spec.CheckFactory{spec.BaseCheckFactory{AllSpecs: specs}}, s.appCtx.Factories.CheckFactories...)
	checker, err := spec.NewChecker(factories)
	if err != nil {
		return err
	}
	checks := checker.RunChecks(specs)
	for _, key := range checks.Keys() {
		result, _ := checks.Get(key)
		for _, w := range result.Warnings {
			log.WithField("dag", key).Warn(w)
		}
	}
	if checks.AnyError {
		return fmt.Errorf("static checks failed: %s", checks.Err())
	}
	s.appCtx.Specs = specs

	// Grapher and cache, warmed with every DAG. A DAG that fails to resolve
	// is not fatal: requests for it get the resolution error.
	s.appCtx.Grapher = grapher.NewGrapher(specs, log.NewEntry(log.StandardLogger()))
	s.appCtx.Cache = grapher.NewRepo()
	results, errs := s.appCtx.Grapher.ResolveAll(context.Background(), specs.Names(), runtime.NumCPU())
	for name, res := range results {
		s.appCtx.Cache.Set(name, res)
	}
	log.WithFields(log.Fields{"resolved": len(results), "failed": len(errs)}).Info("warmed graph cache")

	// API: endpoints and controllers
	s.api = api.NewAPI(s.appCtx)

	return nil
}

func (s *Server) Run() error {
	if s.api == nil {
		panic("Server.Run called before Server.Boot")
	}
	return s.api.Run()
}

func (s *Server) API() *api.API {
	return s.api
}
