// Copyright 2017-2020, Square, Inc.

package main

import (
	"github.com/alexflint/go-arg"
	log "github.com/sirupsen/logrus"

	"github.com/square/taskgraph/server"
	"github.com/square/taskgraph/server/app"
)

var cmd struct {
	Config string `arg:"positional" help:"config file (default: by ENVIRONMENT env var)"`
}

func main() {
	arg.MustParse(&cmd)
	ctx := app.Defaults()
	ctx.ConfigFile = cmd.Config

	s := server.NewServer(ctx)
	if err := s.Boot(); err != nil {
		log.Fatalf("error starting the graph service: %s", err)
	}
	err := s.Run()
	log.Fatalf("error running the graph service: %s", err)
}
