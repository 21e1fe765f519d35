// Package api exposes a state store over HTTP for dashboards and probes.
//
// Endpoints:
//
//	GET  /states             - every group and its records
//	GET  /states/:group      - records of one group
//	GET  /states/:group/:key - one record, 404 when the key was never tracked
//	GET  /metrics            - Prometheus exposition, when a gatherer is set
//	POST /refresh            - re-run loads, when a refresher is set
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tailored-agentic-units/loadstate/state"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// RefreshResponse is the body of an accepted refresh.
type RefreshResponse struct {
	Status string `json:"status"`
}

// Refresher starts a new round of loads. It must not block until the loads
// settle.
type Refresher func(ctx context.Context)

// Option configures Handlers.
type Option func(*Handlers)

// WithGatherer serves g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(h *Handlers) { h.gatherer = g }
}

// WithRefresher serves POST /refresh by calling fn.
func WithRefresher(fn Refresher) Option {
	return func(h *Handlers) { h.refresh = fn }
}

// Handlers serves read-only views of a state store.
type Handlers struct {
	store    *state.Store
	gatherer prometheus.Gatherer
	refresh  Refresher
}

// NewHandlers creates handlers reading from store.
func NewHandlers(store *state.Store, opts ...Option) *Handlers {
	h := &Handlers{store: store}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleSnapshot handles GET /states.
func (h *Handlers) HandleSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Snapshot())
}

// HandleGroup handles GET /states/:group. An unknown group is an empty
// object, not an error.
func (h *Handlers) HandleGroup(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Group(c.Param("group")))
}

// HandleKey handles GET /states/:group/:key.
func (h *Handlers) HandleKey(c *gin.Context) {
	rec, ok := h.store.Get(c.Param("group"), c.Param("key"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "no record for " + c.Param("group") + "/" + c.Param("key"),
			Code:  "STATE_NOT_FOUND",
		})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// HandleRefresh handles POST /refresh. The refresher runs detached from the
// request so a disconnecting client does not abort it.
func (h *Handlers) HandleRefresh(c *gin.Context) {
	h.refresh(context.WithoutCancel(c.Request.Context()))
	c.JSON(http.StatusAccepted, RefreshResponse{Status: "accepted"})
}

// RegisterRoutes registers the state endpoints on rg. /metrics and /refresh
// are registered only when their dependency was supplied.
func RegisterRoutes(rg gin.IRoutes, h *Handlers) {
	rg.GET("/states", h.HandleSnapshot)
	rg.GET("/states/:group", h.HandleGroup)
	rg.GET("/states/:group/:key", h.HandleKey)

	if h.gatherer != nil {
		rg.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}
	if h.refresh != nil {
		rg.POST("/refresh", h.HandleRefresh)
	}
}

// NewRouter returns a gin engine with recovery and the state endpoints
// mounted at the root.
func NewRouter(store *state.Store, opts ...Option) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	RegisterRoutes(router, NewHandlers(store, opts...))
	return router
}
