package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// api binds the gin handlers to an Engine and the request-scoped
// settings (match timeout) they need.
type api struct {
	engine *Engine
	cfg    Config
}

func (a *api) withMatchTimeout(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), a.cfg.MatchTimeout)
}

func newRouter(a *api) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type"},
	}))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/ingest", a.handleIngest)
		apiGroup.GET("/ingest/:taskID", a.handleIngestStatus)
		apiGroup.POST("/match", a.handleMatch)
		apiGroup.GET("/stats", a.handleStats)
		apiGroup.GET("/tracks", a.handleListTracks)
		apiGroup.DELETE("/tracks/:songID", a.handleDeleteTrack)
	}

	r.StaticFS("/static", http.Dir("static"))

	return r
}

// runServe starts the HTTP server and blocks until it exits.
func runServe(cfg Config, engine *Engine) error {
	a := &api{engine: engine, cfg: cfg}
	router := newRouter(a)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // uploads can be large; per-request timeouts are enforced via context
	}

	slog.Info("serve starting", "port", cfg.Port, "backend", cfg.StoreBackend)
	return srv.ListenAndServe()
}
