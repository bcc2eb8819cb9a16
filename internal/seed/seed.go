package seed

import (
	"context"
	"errors"
	"fmt"

	"customerhub/internal/domain"
	customersvc "customerhub/internal/service/customer"
)

// CustomerWriter is satisfied by the customer service.
type CustomerWriter interface {
	Create(ctx context.Context, in customersvc.CustomerInput) (*domain.Customer, error)
	AddAddress(ctx context.Context, customerID string, in customersvc.AddressInput) (*domain.Customer, error)
}

type customerSeed struct {
	Customer customersvc.CustomerInput
	Address  *customersvc.AddressInput
}

func primary() *bool {
	v := true
	return &v
}

var demoCustomers = []customerSeed{
	{
		Customer: customersvc.CustomerInput{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "2025550101"},
		Address: &customersvc.AddressInput{
			Street:    "12 St James Square",
			City:      "London",
			State:     "LDN",
			ZipCode:   "SW1Y4JH",
			Country:   "United Kingdom",
			IsPrimary: primary(),
		},
	},
	{
		Customer: customersvc.CustomerInput{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com", Phone: "2025550102"},
		Address: &customersvc.AddressInput{
			Street:  "1 Navy Pentagon",
			City:    "Arlington",
			State:   "VA",
			ZipCode: "22202",
			Country: "United States",
		},
	},
	{
		Customer: customersvc.CustomerInput{FirstName: "Alan", LastName: "Turing", Email: "alan@example.com", Phone: "2025550103"},
	},
}

// Apply creates the demo customers for manual testing. Customers whose email
// is already registered are left alone, so running it twice is harmless.
func Apply(ctx context.Context, svc CustomerWriter) (int, error) {
	created := 0
	for _, s := range demoCustomers {
		c, err := svc.Create(ctx, s.Customer)
		if errors.Is(err, domain.ErrDuplicateEmail) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("create %s: %w", s.Customer.Email, err)
		}
		if s.Address != nil {
			if _, err := svc.AddAddress(ctx, c.ID, *s.Address); err != nil {
				return created, fmt.Errorf("add address for %s: %w", s.Customer.Email, err)
			}
		}
		created++
	}
	return created, nil
}
