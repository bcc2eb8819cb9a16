package customer

import (
	"context"

	"customerhub/internal/domain"
)

// ListQuery selects one page of customers. Search is matched case-insensitively
// as a literal substring of first name, last name or email; empty matches all.
type ListQuery struct {
	Search string
	Skip   int64
	Limit  int64
}

// Repository persists customer documents together with their embedded addresses.
// Address mutations are single atomic store operations on the parent document.
type Repository interface {
	Create(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	List(ctx context.Context, q ListQuery) ([]domain.Customer, error)
	Count(ctx context.Context, search string) (int64, error)
	Update(ctx context.Context, id string, f domain.CustomerFields) (*domain.Customer, error)
	Delete(ctx context.Context, id string) error
	PushAddress(ctx context.Context, customerID string, a domain.Address) (*domain.Customer, error)
	PatchAddress(ctx context.Context, customerID, addressID string, p domain.AddressPatch) (*domain.Customer, error)
	PullAddress(ctx context.Context, customerID, addressID string) (*domain.Customer, error)
	Ping(ctx context.Context) error
}
