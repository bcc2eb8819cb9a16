package seed

import (
	"context"
	"errors"
	"testing"

	"customerhub/internal/domain"
	customersvc "customerhub/internal/service/customer"
)

type stubWriter struct {
	emails    map[string]bool
	addresses int
	err       error
}

func (s *stubWriter) Create(_ context.Context, in customersvc.CustomerInput) (*domain.Customer, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.emails[in.Email] {
		return nil, domain.ErrDuplicateEmail
	}
	s.emails[in.Email] = true
	return &domain.Customer{ID: in.Email}, nil
}

func (s *stubWriter) AddAddress(_ context.Context, id string, _ customersvc.AddressInput) (*domain.Customer, error) {
	s.addresses++
	return &domain.Customer{ID: id}, nil
}

func TestApply_Idempotent(t *testing.T) {
	w := &stubWriter{emails: map[string]bool{}}

	n, err := Apply(context.Background(), w)
	if err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if n != 3 || w.addresses != 2 {
		t.Fatalf("expected 3 customers and 2 addresses, got %d and %d", n, w.addresses)
	}

	n, err = Apply(context.Background(), w)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if n != 0 || w.addresses != 2 {
		t.Fatalf("expected no new rows, got %d customers and %d addresses", n, w.addresses)
	}
}

func TestApply_PropagatesErrors(t *testing.T) {
	w := &stubWriter{emails: map[string]bool{}, err: errors.New("store down")}
	if _, err := Apply(context.Background(), w); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDemoCustomersAreValid(t *testing.T) {
	for _, s := range demoCustomers {
		f := domain.CustomerFields{FirstName: s.Customer.FirstName, LastName: s.Customer.LastName, Email: s.Customer.Email, Phone: s.Customer.Phone}
		if err := domain.ValidateCustomer(f); err != nil {
			t.Fatalf("demo customer %s invalid: %v", s.Customer.Email, err)
		}
	}
}
