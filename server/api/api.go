// Copyright 2017-2020, Square, Inc.

// Package api provides controllers for each api endpoint. Controllers are
// "dumb wiring"; there is little to no application logic in this package.
// Controllers call and coordinate other packages to satisfy the api endpoint.
package api

import (
	"context"
	"errors"
	"io/ioutil"
	"net/http"

	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	log "github.com/sirupsen/logrus"

	serr "github.com/square/taskgraph/errors"
	"github.com/square/taskgraph/grapher"
	"github.com/square/taskgraph/proto"
	"github.com/square/taskgraph/server/app"
	"github.com/square/taskgraph/spec"
	"github.com/square/taskgraph/util"
	v "github.com/square/taskgraph/version"
)

const (
	API_ROOT = "/api/v1/"

	REQUEST_ID_HEADER = "X-Request-Id"
)

// API provides controllers for endpoints it registers with a router.
// It satisfies the http.HandlerFunc interface.
type API struct {
	appCtx app.Context
	// --
	echo *echo.Echo
}

// NewAPI creates a new API struct. It initializes an echo web server within the
// struct, and registers all of the API's routes with it. appCtx must have
// Specs, Grapher, and Cache set.
func NewAPI(appCtx app.Context) *API {
	api := &API{
		appCtx: appCtx,
		// --
		echo: echo.New(),
	}

	// //////////////////////////////////////////////////////////////////////
	// Routes
	// //////////////////////////////////////////////////////////////////////

	// DAGs
	api.echo.GET(API_ROOT+"dags", api.dagListHandler)               // list -> proto.DagList
	api.echo.GET(API_ROOT+"dags/:name/graph", api.graphHandler)     // resolve -> proto.Graph
	api.echo.GET(API_ROOT+"dags/:name/surface", api.surfaceHandler) // resolve -> proto.Surface
	api.echo.POST(API_ROOT+"resolve", api.resolveHandler)           // resolve bundle -> proto.Graph

	// Meta
	api.echo.GET("/version", api.versionHandler) // return version.Version()

	// //////////////////////////////////////////////////////////////////////
	// Middleware and hooks
	// //////////////////////////////////////////////////////////////////////
	api.echo.Use(middleware.Recover())

	// Tag every request with an id, logged with everything the request does.
	api.echo.Use((func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqId := c.Request().Header.Get(REQUEST_ID_HEADER)
			if reqId == "" {
				reqId = util.XID().String()
			}
			c.Response().Header().Set(REQUEST_ID_HEADER, reqId)
			c.Response().Header().Set("X-Taskgraph-Version", v.Version())
			c.Set("requestId", reqId)
			c.Set("logger", log.WithFields(log.Fields{
				"request_id": reqId,
				"method":     c.Request().Method,
				"path":       c.Path(),
			}))
			return next(c)
		}
	}))

	return api
}

func (api *API) Router() *echo.Echo {
	return api.echo
}

// Run makes the API listen on the configured address.
func (api *API) Run() error {
	cfg := api.appCtx.Config
	if cfg.TLS.CertFile != "" && cfg.TLS.KeyFile != "" {
		return api.echo.StartTLS(cfg.ListenAddress, cfg.TLS.CertFile, cfg.TLS.KeyFile)
	}
	return api.echo.Start(cfg.ListenAddress)
}

// Stop stops the API when it's running. When Stop is called, Run returns
// immediately. Make sure to wait for Stop to return.
func (api *API) Stop() error {
	cfg := api.appCtx.Config
	if cfg.TLS.CertFile != "" && cfg.TLS.KeyFile != "" {
		return api.echo.TLSServer.Shutdown(context.TODO())
	}
	return api.echo.Server.Shutdown(context.TODO())
}

// ServeHTTP makes the API implement the http.HandlerFunc interface.
func (api *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	api.echo.ServeHTTP(w, r)
}

// GET <API_ROOT>/dags
// List the names of the loaded DAGs.
func (api *API) dagListHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, proto.DagList{Dags: api.appCtx.Specs.Names()})
}

// GET <API_ROOT>/dags/:name/graph
// Resolve a loaded DAG. Optional query param kind filters the nodes.
func (api *API) graphHandler(c echo.Context) error {
	filter := proto.GraphFilter{Kind: c.QueryParam("kind")}
	if err := filter.Validate(); err != nil {
		return handleError(badRequest{err}, c)
	}

	res, err := api.result(c, c.Param("name"))
	if err != nil {
		return handleError(err, c)
	}
	g, err := proto.NewGraph(res)
	if err != nil {
		return handleError(err, c)
	}
	return c.JSON(http.StatusOK, g.Filter(filter.Kind))
}

// GET <API_ROOT>/dags/:name/surface
// Resolve a loaded DAG and return only its surfaces.
func (api *API) surfaceHandler(c echo.Context) error {
	res, err := api.result(c, c.Param("name"))
	if err != nil {
		return handleError(err, c)
	}
	return c.JSON(http.StatusOK, proto.Surface{
		Upstream:   res.Surface.Upstream,
		Downstream: res.Surface.Downstream,
	})
}

// POST <API_ROOT>/resolve
// Resolve a bundle of DAG specs sent in the body, YAML or JSON. Nothing is
// cached: the bundle is parsed, checked, and resolved for this request only.
func (api *API) resolveHandler(c echo.Context) error {
	logger := requestLogger(c)

	data, err := ioutil.ReadAll(c.Request().Body)
	if err != nil {
		return handleError(badRequest{err}, c)
	}
	primary, specs, err := spec.ParseBundle(data, logger.Warnf)
	if err != nil {
		return handleError(badRequest{err}, c)
	}

	factories := append([]spec.CheckFactory{spec.BaseCheckFactory{AllSpecs: specs}}, api.appCtx.Factories.CheckFactories...)
	checker, err := spec.NewChecker(factories)
	if err != nil {
		return handleError(err, c)
	}
	if checks := checker.RunChecks(specs); checks.AnyError {
		return handleError(failedChecks{checks.Err()}, c)
	}

	res, err := grapher.NewGrapher(specs, logger).Resolve(primary)
	if err != nil {
		return handleError(err, c)
	}
	g, err := proto.NewGraph(res)
	if err != nil {
		return handleError(err, c)
	}
	return c.JSON(http.StatusOK, g)
}

// GET /version
// Return the version.
func (api *API) versionHandler(c echo.Context) error {
	return c.String(http.StatusOK, v.Version())
}

// ------------------------------------------------------------------------- //

// result returns the resolved DAG from the cache, resolving it on a miss.
// Concurrent misses for one DAG can resolve it twice; the results are equal.
func (api *API) result(c echo.Context, name string) (*grapher.Result, error) {
	if res, ok := api.appCtx.Cache.Get(name); ok {
		return res, nil
	}
	res, err := api.appCtx.Grapher.Resolve(name)
	if err != nil {
		return nil, err
	}
	api.appCtx.Cache.Set(name, res)
	requestLogger(c).WithField("dag", name).Info("cached resolved dag")
	return res, nil
}

// badRequest wraps client errors: invalid payloads and query params.
type badRequest struct{ error }

func (e badRequest) Unwrap() error { return e.error }

// failedChecks wraps the static check errors of a resolve request.
type failedChecks struct{ error }

func (e failedChecks) Unwrap() error { return e.error }

func requestLogger(c echo.Context) *log.Entry {
	if logger, ok := c.Get("logger").(*log.Entry); ok {
		return logger
	}
	return log.NewEntry(log.StandardLogger())
}

func handleError(err error, c echo.Context) error {
	ret := proto.NewResolveError(err)
	ret.HTTPStatus = http.StatusUnprocessableEntity
	if reqId, ok := c.Get("requestId").(string); ok {
		ret.RequestId = reqId
	}

	var (
		unknown serr.UnknownDagError
		bad     badRequest
		checks  failedChecks
	)
	switch {
	case errors.As(err, &bad):
		ret.Type = proto.ERR_INVALID_SPEC
		ret.HTTPStatus = http.StatusBadRequest
	case errors.As(err, &checks):
		ret.Type = proto.ERR_FAILED_CHECKS
		ret.HTTPStatus = http.StatusBadRequest
	case errors.As(err, &unknown) && unknown.Referrer == "":
		ret.HTTPStatus = http.StatusNotFound
	case ret.Type == proto.ERR_UNKNOWN:
		ret.HTTPStatus = http.StatusInternalServerError
	}

	requestLogger(c).WithFields(log.Fields{
		"type":   ret.Type,
		"status": ret.HTTPStatus,
	}).Warn(err)
	return c.JSON(ret.HTTPStatus, ret)
}
