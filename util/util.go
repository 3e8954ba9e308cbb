// Copyright 2017-2020, Square, Inc.

package util

import (
	"fmt"
	"io"

	"github.com/rs/xid"
	log "github.com/sirupsen/logrus"
)

// XID generates a globally unique, 12-byte xid.
func XID() xid.ID {
	return xid.New()
}

// SetupLogging configures the package-level logrus logger. An empty level means
// "info"; an empty format means "text".
func SetupLogging(out io.Writer, level, format string) error {
	if level == "" {
		level = "info"
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %s", level, err)
	}

	switch format {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("invalid log format %q, expected text or json", format)
	}

	if out != nil {
		log.SetOutput(out)
	}
	log.SetLevel(lvl)
	return nil
}
