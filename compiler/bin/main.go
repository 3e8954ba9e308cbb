// Copyright 2017-2020, Square, Inc.

package main

import (
	"fmt"
	"os"

	"github.com/square/taskgraph/compiler"
	"github.com/square/taskgraph/compiler/app"
)

func main() {
	if err := compiler.Run(app.Defaults()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
