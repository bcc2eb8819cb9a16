// Package webui renders the customer list, form and profile pages on top of
// the customer API client.
package webui

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log"

	"github.com/gin-gonic/gin"

	"customerhub/internal/client"
	"customerhub/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

const defaultPageSize = 10

// API is the slice of the customer API the pages use.
type API interface {
	ListCustomers(ctx context.Context, page, limit int, search string) (*client.Page, error)
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	CreateCustomer(ctx context.Context, in client.CustomerInput) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, id string, in client.CustomerInput) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
	AddAddress(ctx context.Context, customerID string, in client.AddressInput) (*domain.Customer, error)
	DeleteAddress(ctx context.Context, customerID, addressID string) (*domain.Customer, error)
}

// Deps carries what the pages need.
type Deps struct {
	API      API
	PageSize int
}

func buildRouter(logger *log.Logger, deps Deps) (*gin.Engine, error) {
	if deps.API == nil {
		return nil, errors.New("webui: api client is required")
	}
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"fullName": func(c domain.Customer) string { return c.FirstName + " " + c.LastName },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.SetHTMLTemplate(tmpl)

	pageSize := deps.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	h := &pages{api: deps.API, pageSize: pageSize, logger: logger}

	router.GET("/", h.list)
	router.GET("/customers/:id/delete", h.confirmDeleteCustomer)
	router.POST("/customers/:id/delete", h.deleteCustomer)

	router.GET("/add", h.newForm)
	router.POST("/add", h.submitForm)
	router.GET("/edit/:id", h.editForm)
	router.POST("/edit/:id", h.submitForm)

	router.GET("/profile/:id", h.profile)
	router.POST("/profile/:id/addresses", h.addAddress)
	router.GET("/profile/:id/addresses/:addressId/delete", h.confirmDeleteAddress)
	router.POST("/profile/:id/addresses/:addressId/delete", h.deleteAddress)

	router.POST("/theme", toggleTheme)

	return router, nil
}
