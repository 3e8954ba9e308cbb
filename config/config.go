// Copyright 2017-2020, Square, Inc.

package config

import (
	"io/ioutil"
	"os"

	"gopkg.in/yaml.v2"
)

///////////////////////////////////////////////////////////////////////////////
// High-Level Config Structs
///////////////////////////////////////////////////////////////////////////////

// The config used by the compiler. Command line flags override these values.
type Compiler struct {
	// The directory that holds all of the workflow spec files.
	SpecsDir string `yaml:"specs_dir"`

	// Output format: code, dot, json, or surface.
	Format string `yaml:"format"`

	// Max number of DAGs resolved at the same time when compiling a whole
	// specs dir. Zero means one per CPU.
	Parallel int `yaml:"parallel"`

	Log Log `yaml:"log"`
}

// The config used by the graph service. This is read from in
// server/bin/main.go
type Server struct {
	// The address the server will listen on (ex: "127.0.0.1:8080").
	ListenAddress string `yaml:"listen_address"`

	// The TLS config used by the server.
	TLS TLS `yaml:"tls_config"`

	// The directory that holds all of the workflow spec files. The server
	// loads and checks them once at boot.
	SpecsDir string `yaml:"specs_dir"`

	Log Log `yaml:"log"`
}

///////////////////////////////////////////////////////////////////////////////
// Config Components
///////////////////////////////////////////////////////////////////////////////

// Logging configuration.
type Log struct {
	// logrus level name (ex: "debug", "info", "warning"). Defaults to "info".
	Level string `yaml:"level"`

	// "text" or "json". Defaults to "text".
	Format string `yaml:"format"`
}

// TLS configuration.
type TLS struct {
	// The certificate file to use.
	CertFile string `yaml:"cert_file"`

	// The key file to use.
	KeyFile string `yaml:"key_file"`

	// The CA file to use.
	CAFile string `yaml:"ca_file"`
}

///////////////////////////////////////////////////////////////////////////////
// Loading Config
///////////////////////////////////////////////////////////////////////////////

// Load loads a configuration file into the struct pointed to by the
// configStruct argument.
func Load(configFile string, configStruct interface{}) error {
	// Make sure the file exists.
	_, err := os.Stat(configFile)
	if err != nil {
		return err
	}

	// Read the file.
	data, err := ioutil.ReadFile(configFile)
	if err != nil {
		return err
	}

	// Unmarshal the contents of the file into the provided struct.
	err = yaml.Unmarshal(data, configStruct)
	if err != nil {
		return err
	}

	return nil
}
