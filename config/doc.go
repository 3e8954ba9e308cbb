/*
Copyright 2017-2020, Square, Inc.

Package config provides the ability to load config files into predefined
structures that are used by taskgraph. The compiler uses the Compiler struct in
compiler/bin/main.go, and the graph service uses the Server struct in
server/bin/main.go.

Types of config structs provided by this package:

* Compiler: everything the taskgraphc CLI needs when flags are not given
  (specs dir, default output format, parallelism, logging)

* Server: everything the graph service needs (listen address, TLS, specs dir,
  logging)

* Log: logrus level and formatter

* TLS: the configuration for constructing a Go tls.Config (ex: the CA cert file
  to use, the key file to use, etc.)
*/
package config
