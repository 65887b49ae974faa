package server

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"payment-mandate-service/internal/handlers"
)

// Server wraps the gin engine in an http.Server with sane timeouts and a
// permissive CORS layer for browser clients.
type Server struct {
	router  *gin.Engine
	verbose bool
}

// NewServer builds the router and registers all routes.
func NewServer(handler *handlers.Handler, verbose bool) *Server {
	var router *gin.Engine
	if verbose {
		gin.SetMode(gin.DebugMode)
		router = gin.Default()
		log.Printf("Verbose mode enabled - HTTP requests will be logged")
	} else {
		gin.SetMode(gin.ReleaseMode)
		router = gin.New()
		router.Use(gin.Recovery())
	}

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/invoices", handler.ListInvoices)
		apiGroup.GET("/invoices/:id", handler.GetInvoice)
		apiGroup.POST("/mandates", handler.CreateMandate)
		apiGroup.POST("/pay", handler.Pay)
		apiGroup.GET("/receipts", handler.ListReceipts)
	}

	router.GET("/health", handler.HealthCheck)

	return &Server{
		router:  router,
		verbose: verbose,
	}
}

// Start blocks serving HTTP on the given port.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)

	if s.verbose {
		log.Printf("[SERVER] Available endpoints:")
		log.Printf("[SERVER]   GET  /api/invoices")
		log.Printf("[SERVER]   GET  /api/invoices/:id")
		log.Printf("[SERVER]   POST /api/mandates")
		log.Printf("[SERVER]   POST /api/pay")
		log.Printf("[SERVER]   GET  /api/receipts")
		log.Printf("[SERVER]   GET  /health")
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      cors.Default().Handler(s.router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return srv.ListenAndServe()
}
