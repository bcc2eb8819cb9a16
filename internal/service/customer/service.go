package customer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strings"

	"customerhub/internal/domain"
	custrepo "customerhub/internal/repository/customer"
)

const (
	// DefaultPage is used when the requested page is missing or not positive.
	DefaultPage = 1
	// DefaultLimit is used when the requested page size is missing or not positive.
	DefaultLimit = 10
	// MaxLimit caps the page size.
	MaxLimit = 100
)

// Notifier learns about newly created customers. Implementations must return
// without waiting on delivery.
type Notifier interface {
	CustomerCreated(ctx context.Context, c domain.Customer)
}

// Service implements the customer CRUD operations on top of a document repository.
type Service struct {
	repo     custrepo.Repository
	notifier Notifier
	logger   *log.Logger
}

// New creates a Service. A nil notifier disables welcome notifications.
func New(repo custrepo.Repository, notifier Notifier, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, notifier: notifier, logger: logger}
}

// CustomerInput mirrors create/update payloads.
type CustomerInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func (in CustomerInput) fields() domain.CustomerFields {
	return domain.CustomerFields{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
	}
}

// AddressInput mirrors incoming address payloads.
type AddressInput struct {
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
	IsPrimary *bool  `json:"isPrimary"`
}

func (in AddressInput) address() domain.Address {
	a := domain.Address{
		Street:  strings.TrimSpace(in.Street),
		City:    strings.TrimSpace(in.City),
		State:   strings.TrimSpace(in.State),
		ZipCode: strings.TrimSpace(in.ZipCode),
		Country: strings.TrimSpace(in.Country),
	}
	if in.IsPrimary != nil {
		a.IsPrimary = *in.IsPrimary
	}
	return a
}

// ListInput selects a page of customers.
type ListInput struct {
	Page   int
	Limit  int
	Search string
}

// ListResult is one page of customers plus paging metadata.
type ListResult struct {
	Customers   []domain.Customer `json:"customers"`
	TotalPages  int               `json:"totalPages"`
	CurrentPage int               `json:"currentPage"`
	TotalCount  int64             `json:"totalCount"`
}

// Create registers a new customer with no addresses and queues a welcome notification.
func (s *Service) Create(ctx context.Context, in CustomerInput) (*domain.Customer, error) {
	f := in.fields()
	if err := domain.ValidateCustomer(f); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByEmail(ctx, f.Email)
	switch {
	case err == nil && existing != nil:
		return nil, domain.ErrDuplicateEmail
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("check email: %w", err)
	}

	created, err := s.repo.Create(ctx, domain.Customer{
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Email:     f.Email,
		Phone:     f.Phone,
		Addresses: []domain.Address{},
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create customer: %w", err)
	}
	s.logger.Printf("customer service: created id=%s", created.ID)

	if s.notifier != nil {
		s.notifier.CustomerCreated(ctx, *created)
	}
	return created, nil
}

// List returns one page of customers matching the optional search term.
func (s *Service) List(ctx context.Context, in ListInput) (*ListResult, error) {
	page := in.Page
	if page < 1 {
		page = DefaultPage
	}
	limit := in.Limit
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	search := strings.TrimSpace(in.Search)

	var customers []domain.Customer
	if skip, ok := pageOffset(page, limit); ok {
		var err error
		customers, err = s.repo.List(ctx, custrepo.ListQuery{
			Search: search,
			Skip:   skip,
			Limit:  int64(limit),
		})
		if err != nil {
			return nil, fmt.Errorf("list customers: %w", err)
		}
	}
	total, err := s.repo.Count(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("count customers: %w", err)
	}
	if customers == nil {
		customers = []domain.Customer{}
	}
	return &ListResult{
		Customers:   customers,
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
		TotalCount:  total,
	}, nil
}

// Get returns a customer with its addresses.
func (s *Service) Get(ctx context.Context, id string) (*domain.Customer, error) {
	return s.repo.GetByID(ctx, id)
}

// Update replaces the scalar customer fields and refreshes updatedAt. Addresses are untouched.
func (s *Service) Update(ctx context.Context, id string, in CustomerInput) (*domain.Customer, error) {
	f := in.fields()
	if err := domain.ValidateCustomer(f); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, id, f)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, &domain.ValidationError{Field: "email", Message: "Email is already registered"}
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a customer together with its embedded addresses.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Printf("customer service: deleted id=%s", id)
	return nil
}

// AddAddress appends a new address to the customer's collection.
func (s *Service) AddAddress(ctx context.Context, customerID string, in AddressInput) (*domain.Customer, error) {
	a := in.address()
	if err := domain.ValidateAddress(a); err != nil {
		return nil, err
	}
	return s.repo.PushAddress(ctx, customerID, a)
}

// UpdateAddress merges the provided fields onto an existing address.
func (s *Service) UpdateAddress(ctx context.Context, customerID, addressID string, patch domain.AddressPatch) (*domain.Customer, error) {
	patch = trimPatch(patch)
	if err := domain.ValidateAddressPatch(patch); err != nil {
		return nil, err
	}
	return s.repo.PatchAddress(ctx, customerID, addressID, patch)
}

// RemoveAddress deletes one address from the customer's collection.
func (s *Service) RemoveAddress(ctx context.Context, customerID, addressID string) (*domain.Customer, error) {
	return s.repo.PullAddress(ctx, customerID, addressID)
}

// Ping reports whether the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// pageOffset reports false when the page lies beyond any row a store can hold.
func pageOffset(page, limit int) (int64, bool) {
	n := int64(page - 1)
	if n > math.MaxInt64/int64(limit) {
		return 0, false
	}
	return n * int64(limit), true
}

func totalPages(total int64, limit int) int {
	if total <= 0 {
		return 0
	}
	l := int64(limit)
	return int((total + l - 1) / l)
}

func trimPatch(p domain.AddressPatch) domain.AddressPatch {
	for _, f := range []**string{&p.Street, &p.City, &p.State, &p.ZipCode, &p.Country} {
		if *f != nil {
			v := strings.TrimSpace(**f)
			*f = &v
		}
	}
	return p
}
