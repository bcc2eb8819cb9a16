package httpserver

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"customerhub/internal/domain"
	customersvc "customerhub/internal/service/customer"
)

// CustomerService is the subset of the customer service used by the handlers.
type CustomerService interface {
	Create(ctx context.Context, in customersvc.CustomerInput) (*domain.Customer, error)
	List(ctx context.Context, in customersvc.ListInput) (*customersvc.ListResult, error)
	Get(ctx context.Context, id string) (*domain.Customer, error)
	Update(ctx context.Context, id string, in customersvc.CustomerInput) (*domain.Customer, error)
	Delete(ctx context.Context, id string) error
	AddAddress(ctx context.Context, customerID string, in customersvc.AddressInput) (*domain.Customer, error)
	UpdateAddress(ctx context.Context, customerID, addressID string, patch domain.AddressPatch) (*domain.Customer, error)
	RemoveAddress(ctx context.Context, customerID, addressID string) (*domain.Customer, error)
	Ping(ctx context.Context) error
}

type customerHandler struct {
	svc    CustomerService
	logger *log.Logger
}

func (h *customerHandler) create(c *gin.Context) {
	var req customersvc.CustomerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	created, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *customerHandler) list(c *gin.Context) {
	in := customersvc.ListInput{
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
		Search: c.Query("search"),
	}
	res, err := h.svc.List(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *customerHandler) get(c *gin.Context) {
	cust, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

func (h *customerHandler) update(c *gin.Context) {
	var req customersvc.CustomerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	updated, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *customerHandler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted successfully"})
}

func (h *customerHandler) addAddress(c *gin.Context) {
	var req customersvc.AddressInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	updated, err := h.svc.AddAddress(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *customerHandler) updateAddress(c *gin.Context) {
	var patch domain.AddressPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	updated, err := h.svc.UpdateAddress(c.Request.Context(), c.Param("id"), c.Param("addressId"), patch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *customerHandler) deleteAddress(c *gin.Context) {
	updated, err := h.svc.RemoveAddress(c.Request.Context(), c.Param("id"), c.Param("addressId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// queryInt returns zero for missing or non-numeric values so the service applies its defaults.
func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return v
}
