package httpserver

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps carries the services the router needs.
type Deps struct {
	CustomerSvc CustomerService
	// FrontendOrigin is the single browser origin allowed by CORS. Empty disables CORS headers.
	FrontendOrigin string
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, deps Deps) (*gin.Engine, error) {
	if deps.CustomerSvc == nil {
		return nil, errors.New("httpserver: customer service is required")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	if origin := strings.TrimRight(deps.FrontendOrigin, "/"); origin != "" {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     []string{origin},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.CustomerSvc))

	h := &customerHandler{svc: deps.CustomerSvc, logger: logger}
	api := router.Group("/api/customers")
	api.POST("", h.create)
	api.GET("", h.list)
	api.GET("/:id", h.get)
	api.PUT("/:id", h.update)
	api.DELETE("/:id", h.delete)
	api.POST("/:id/addresses", h.addAddress)
	api.PUT("/:id/addresses/:addressId", h.updateAddress)
	api.DELETE("/:id/addresses/:addressId", h.deleteAddress)

	return router, nil
}
