package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gridworks/sheetkernel/internal/infrastructure/monitoring"
	"github.com/gridworks/sheetkernel/internal/kernel"
	"github.com/gridworks/sheetkernel/internal/logging"
	"github.com/gridworks/sheetkernel/internal/registry"
)

// Server is the optional status/debug HTTP surface: kernel state, the
// child process directory, and Prometheus metrics. It never participates
// in the launch or poll paths.
type Server struct {
	router   *gin.Engine
	driver   *kernel.Driver
	registry *registry.Manager
	metrics  *monitoring.Metrics
	logger   *logging.Logger
	srv      *http.Server
}

// New creates the status server. gatherer feeds /metrics; pass the same
// registry the monitoring collector was created with. metrics may be nil.
func New(driver *kernel.Driver, reg *registry.Manager, metrics *monitoring.Metrics, gatherer prometheus.Gatherer, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	s := &Server{
		router:   router,
		driver:   driver,
		registry: reg,
		metrics:  metrics,
		logger:   logger,
	}

	router.GET("/health", s.handleHealth)
	router.GET("/status", s.handleStatus)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return s
}

// Run serves on addr until Shutdown.
func (s *Server) Run(addr string) error {
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.srv.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleStatus(c *gin.Context) {
	kernelRunning := false
	connectionFile := ""
	if s.driver != nil {
		if session := s.driver.Session(); session != nil {
			kernelRunning = session.Running()
			connectionFile = session.ConnectionFile()
		}
	}

	payload := gin.H{
		"kernel": gin.H{
			"running":         kernelRunning,
			"connection_file": connectionFile,
		},
		"children": s.registry.List(),
	}
	if s.metrics != nil {
		payload["uptime_seconds"] = s.metrics.Uptime().Seconds()
	}

	c.JSON(http.StatusOK, payload)
}
