package webui

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"customerhub/internal/client"
	"customerhub/internal/domain"
)

var requiredMessages = map[string]string{
	"firstName": "First name is required",
	"lastName":  "Last name is required",
	"email":     "Email is required",
	"phone":     "Phone number is required",
	"street":    "Street is required",
	"city":      "City is required",
	"state":     "State is required",
	"zipCode":   "Zip code is required",
	"country":   "Country is required",
}

type pages struct {
	api      API
	pageSize int
	logger   *log.Logger
}

// render adds the theme and any pending flash toast to data.
func (h *pages) render(c *gin.Context, status int, name string, data gin.H) {
	data["Theme"] = currentTheme(c)
	if _, ok := data["Toast"]; !ok {
		if t := popFlash(c); t != nil {
			data["Toast"] = t
		}
	}
	c.HTML(status, name, data)
}

func (h *pages) list(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 1 {
		page = 1
	}
	search := strings.TrimSpace(c.Query("search"))
	data := gin.H{"Title": "Customers", "Search": search, "Customers": []domain.Customer{}}

	res, err := h.api.ListCustomers(c.Request.Context(), page, h.pageSize, search)
	if err != nil {
		h.logger.Printf("web: list customers: %v", err)
		data["Toast"] = &toast{Kind: "error", Message: "Error fetching customers."}
		data["Page"], data["TotalPages"] = page, 1
		h.render(c, http.StatusBadGateway, "list.html", data)
		return
	}

	total := res.TotalPages
	if total < 1 {
		total = 1
	}
	data["Customers"] = res.Customers
	data["Page"] = res.CurrentPage
	data["TotalPages"] = total
	if res.CurrentPage > 1 {
		data["PrevURL"] = listURL(res.CurrentPage-1, search)
	}
	if res.CurrentPage < total {
		data["NextURL"] = listURL(res.CurrentPage+1, search)
	}
	h.render(c, http.StatusOK, "list.html", data)
}

func listURL(page int, search string) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if search != "" {
		q.Set("search", search)
	}
	return "/?" + q.Encode()
}

func (h *pages) confirmDeleteCustomer(c *gin.Context) {
	h.render(c, http.StatusOK, "confirm.html", gin.H{
		"Title":   "Confirm Delete",
		"Message": "Are you sure you want to delete this customer?",
		"Action":  "/customers/" + url.PathEscape(c.Param("id")) + "/delete",
		"Cancel":  "/",
	})
}

func (h *pages) deleteCustomer(c *gin.Context) {
	if err := h.api.DeleteCustomer(c.Request.Context(), c.Param("id")); err != nil {
		h.logger.Printf("web: delete customer %s: %v", c.Param("id"), err)
		setFlash(c, "error", "Error deleting customer.")
	} else {
		setFlash(c, "success", "Customer deleted successfully!")
	}
	c.Redirect(http.StatusSeeOther, "/")
}

type customerForm struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

func (f customerForm) fields() domain.CustomerFields {
	return domain.CustomerFields{FirstName: f.FirstName, LastName: f.LastName, Email: f.Email, Phone: f.Phone}
}

func formData(id string, values customerForm) gin.H {
	title, action := "Add Customer", "/add"
	if id != "" {
		title, action = "Update Customer", "/edit/"+url.PathEscape(id)
	}
	return gin.H{"Title": title, "Action": action, "Values": values, "Errors": map[string]string{}}
}

func (h *pages) newForm(c *gin.Context) {
	h.render(c, http.StatusOK, "form.html", formData("", customerForm{}))
}

func (h *pages) editForm(c *gin.Context) {
	id := c.Param("id")
	cust, err := h.api.GetCustomer(c.Request.Context(), id)
	if err != nil {
		h.logger.Printf("web: fetch customer %s: %v", id, err)
		data := formData(id, customerForm{})
		data["Toast"] = &toast{Kind: "error", Message: "Error fetching customer data."}
		h.render(c, upstreamStatus(err), "form.html", data)
		return
	}
	h.render(c, http.StatusOK, "form.html", formData(id, customerForm{
		FirstName: cust.FirstName,
		LastName:  cust.LastName,
		Email:     cust.Email,
		Phone:     cust.Phone,
	}))
}

func (h *pages) submitForm(c *gin.Context) {
	id := c.Param("id")
	values := customerForm{
		FirstName: strings.TrimSpace(c.PostForm("firstName")),
		LastName:  strings.TrimSpace(c.PostForm("lastName")),
		Email:     strings.TrimSpace(c.PostForm("email")),
		Phone:     strings.TrimSpace(c.PostForm("phone")),
	}
	data := formData(id, values)

	if errs := fieldErrors(domain.CustomerProblems(values.fields())); len(errs) > 0 {
		data["Errors"] = errs
		h.render(c, http.StatusUnprocessableEntity, "form.html", data)
		return
	}

	in := client.CustomerInput{FirstName: values.FirstName, LastName: values.LastName, Email: values.Email, Phone: values.Phone}
	var err error
	success := "Customer added successfully!"
	if id == "" {
		_, err = h.api.CreateCustomer(c.Request.Context(), in)
	} else {
		_, err = h.api.UpdateCustomer(c.Request.Context(), id, in)
		success = "Customer updated successfully!"
	}

	switch {
	case err == nil:
		setFlash(c, "success", success)
		c.Redirect(http.StatusSeeOther, "/")
	case client.IsDuplicateEmail(err):
		data["Modal"] = "This email is already registered."
		h.render(c, http.StatusBadRequest, "form.html", data)
	case client.IsValidation(err):
		data["Modal"] = apiMessage(err, "Error saving customer.")
		h.render(c, http.StatusBadRequest, "form.html", data)
	default:
		h.logger.Printf("web: save customer: %v", err)
		data["Toast"] = &toast{Kind: "error", Message: "Error saving customer."}
		h.render(c, upstreamStatus(err), "form.html", data)
	}
}

type addressForm struct {
	Street    string
	City      string
	State     string
	ZipCode   string
	Country   string
	IsPrimary bool
}

func (f addressForm) address() domain.Address {
	return domain.Address{Street: f.Street, City: f.City, State: f.State, ZipCode: f.ZipCode, Country: f.Country, IsPrimary: f.IsPrimary}
}

func profilePath(id string) string {
	return "/profile/" + url.PathEscape(id)
}

func (h *pages) renderProfile(c *gin.Context, status int, id string, extra gin.H) {
	data := gin.H{
		"Title":         "Customer Profile",
		"ID":            id,
		"AddressAction": profilePath(id) + "/addresses",
		"Address":       addressForm{},
		"AddressErrors": map[string]string{},
	}
	for k, v := range extra {
		data[k] = v
	}

	cust, err := h.api.GetCustomer(c.Request.Context(), id)
	if err != nil {
		h.logger.Printf("web: fetch customer %s: %v", id, err)
		data["Toast"] = &toast{Kind: "error", Message: "Error fetching customer data."}
		h.render(c, upstreamStatus(err), "profile.html", data)
		return
	}
	data["Customer"] = *cust
	h.render(c, status, "profile.html", data)
}

func (h *pages) profile(c *gin.Context) {
	h.renderProfile(c, http.StatusOK, c.Param("id"), nil)
}

func (h *pages) addAddress(c *gin.Context) {
	id := c.Param("id")
	form := addressForm{
		Street:    strings.TrimSpace(c.PostForm("street")),
		City:      strings.TrimSpace(c.PostForm("city")),
		State:     strings.TrimSpace(c.PostForm("state")),
		ZipCode:   strings.TrimSpace(c.PostForm("zipCode")),
		Country:   strings.TrimSpace(c.PostForm("country")),
		IsPrimary: c.PostForm("isPrimary") != "",
	}
	if errs := fieldErrors(domain.AddressProblems(form.address())); len(errs) > 0 {
		h.renderProfile(c, http.StatusUnprocessableEntity, id, gin.H{
			"Address":         form,
			"AddressErrors":   errs,
			"ShowAddressForm": true,
		})
		return
	}

	_, err := h.api.AddAddress(c.Request.Context(), id, client.AddressInput{
		Street:    form.Street,
		City:      form.City,
		State:     form.State,
		ZipCode:   form.ZipCode,
		Country:   form.Country,
		IsPrimary: form.IsPrimary,
	})
	if err != nil {
		h.logger.Printf("web: add address for %s: %v", id, err)
		setFlash(c, "error", "Error adding address.")
	} else {
		setFlash(c, "success", "Address added successfully!")
	}
	c.Redirect(http.StatusSeeOther, profilePath(id))
}

func (h *pages) confirmDeleteAddress(c *gin.Context) {
	id := c.Param("id")
	h.render(c, http.StatusOK, "confirm.html", gin.H{
		"Title":   "Confirm Delete",
		"Message": "Are you sure you want to delete this address?",
		"Action":  profilePath(id) + "/addresses/" + url.PathEscape(c.Param("addressId")) + "/delete",
		"Cancel":  profilePath(id),
	})
}

func (h *pages) deleteAddress(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.api.DeleteAddress(c.Request.Context(), id, c.Param("addressId")); err != nil {
		h.logger.Printf("web: delete address %s/%s: %v", id, c.Param("addressId"), err)
		setFlash(c, "error", "Error deleting address.")
	} else {
		setFlash(c, "success", "Address deleted successfully!")
	}
	c.Redirect(http.StatusSeeOther, profilePath(id))
}

// fieldErrors converts validation problems into per-field form messages.
func fieldErrors(problems []*domain.ValidationError) map[string]string {
	out := make(map[string]string, len(problems))
	for _, p := range problems {
		if p.Message == "is required" {
			if msg, ok := requiredMessages[p.Field]; ok {
				out[p.Field] = msg
				continue
			}
		}
		out[p.Field] = capitalize(p.Message)
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func apiMessage(err error, fallback string) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func upstreamStatus(err error) int {
	if client.IsNotFound(err) {
		return http.StatusNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}
