package customer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"

	"customerhub/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const customerColumns = `id::text, first_name, last_name, email, phone, addresses, created_at, updated_at`

const searchFilter = `($1::text = '' OR first_name ILIKE $2 OR last_name ILIKE $2 OR email ILIKE $2)`

const addressExists = `addresses @> jsonb_build_array(jsonb_build_object('_id', $2::text))`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a Repository backed by Postgres. Each row is one customer
// document; addresses live in a JSONB array column.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	addresses := make([]domain.Address, 0, len(c.Addresses))
	for _, a := range c.Addresses {
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		addresses = append(addresses, a)
	}
	addrJSON, err := json.Marshal(addresses)
	if err != nil {
		return nil, err
	}

	q := `
INSERT INTO customers (first_name, last_name, email, phone, addresses)
VALUES ($1, $2, $3, $4, $5::jsonb)
RETURNING ` + customerColumns
	c2, err := r.scanCustomer(r.pool.QueryRow(ctx, q, c.FirstName, c.LastName, c.Email, c.Phone, string(addrJSON)))
	if err != nil {
		return nil, r.translate("create", err)
	}
	r.logger.Printf("customer repo: created id=%s", c2.ID)
	return c2, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	q := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	c, err := r.scanCustomer(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, r.translate("get", err)
	}
	return c, nil
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	q := `SELECT ` + customerColumns + ` FROM customers WHERE email = $1 LIMIT 1`
	c, err := r.scanCustomer(r.pool.QueryRow(ctx, q, email))
	if err != nil {
		return nil, r.translate("get by email", err)
	}
	return c, nil
}

func (r *postgresRepo) List(ctx context.Context, lq ListQuery) ([]domain.Customer, error) {
	q := `
SELECT ` + customerColumns + `
FROM customers
WHERE ` + searchFilter + `
ORDER BY created_at, id
OFFSET $3 LIMIT $4
`
	rows, err := r.pool.Query(ctx, q, lq.Search, likePattern(lq.Search), lq.Skip, lq.Limit)
	if err != nil {
		return nil, r.translate("list", err)
	}
	defer rows.Close()

	result := make([]domain.Customer, 0, lq.Limit)
	for rows.Next() {
		c, err := r.scanCustomer(rows)
		if err != nil {
			return nil, r.translate("list scan", err)
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, r.translate("list rows", err)
	}
	return result, nil
}

func (r *postgresRepo) Count(ctx context.Context, search string) (int64, error) {
	q := `SELECT count(*) FROM customers WHERE ` + searchFilter
	var n int64
	if err := r.pool.QueryRow(ctx, q, search, likePattern(search)).Scan(&n); err != nil {
		return 0, r.translate("count", err)
	}
	return n, nil
}

func (r *postgresRepo) Update(ctx context.Context, id string, f domain.CustomerFields) (*domain.Customer, error) {
	q := `
UPDATE customers
SET first_name = $2, last_name = $3, email = $4, phone = $5, updated_at = now()
WHERE id = $1
RETURNING ` + customerColumns
	c, err := r.scanCustomer(r.pool.QueryRow(ctx, q, id, f.FirstName, f.LastName, f.Email, f.Phone))
	if err != nil {
		return nil, r.translate("update", err)
	}
	return c, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return r.translate("delete", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("customer repo: deleted id=%s", id)
	return nil
}

func (r *postgresRepo) PushAddress(ctx context.Context, customerID string, a domain.Address) (*domain.Customer, error) {
	a.ID = uuid.NewString()
	addrJSON, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	q := `
UPDATE customers
SET addresses = addresses || jsonb_build_array($2::jsonb), updated_at = now()
WHERE id = $1
RETURNING ` + customerColumns
	c, err := r.scanCustomer(r.pool.QueryRow(ctx, q, customerID, string(addrJSON)))
	if err != nil {
		return nil, r.translate("push address", err)
	}
	r.logger.Printf("customer repo: added address id=%s customer_id=%s", a.ID, customerID)
	return c, nil
}

func (r *postgresRepo) PatchAddress(ctx context.Context, customerID, addressID string, p domain.AddressPatch) (*domain.Customer, error) {
	patchJSON, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	q := `
UPDATE customers c
SET addresses = (
        SELECT jsonb_agg(CASE WHEN t.elem->>'_id' = $2 THEN t.elem || $3::jsonb ELSE t.elem END ORDER BY t.ord)
        FROM jsonb_array_elements(c.addresses) WITH ORDINALITY AS t(elem, ord)
    ),
    updated_at = now()
WHERE c.id = $1 AND c.` + addressExists + `
RETURNING ` + customerColumns
	c, err := r.scanCustomer(r.pool.QueryRow(ctx, q, customerID, addressID, string(patchJSON)))
	if err != nil {
		return nil, r.addressMiss(ctx, "patch address", customerID, err)
	}
	return c, nil
}

func (r *postgresRepo) PullAddress(ctx context.Context, customerID, addressID string) (*domain.Customer, error) {
	q := `
UPDATE customers c
SET addresses = COALESCE((
        SELECT jsonb_agg(t.elem ORDER BY t.ord)
        FROM jsonb_array_elements(c.addresses) WITH ORDINALITY AS t(elem, ord)
        WHERE t.elem->>'_id' <> $2
    ), '[]'::jsonb),
    updated_at = now()
WHERE c.id = $1 AND c.` + addressExists + `
RETURNING ` + customerColumns
	c, err := r.scanCustomer(r.pool.QueryRow(ctx, q, customerID, addressID))
	if err != nil {
		return nil, r.addressMiss(ctx, "pull address", customerID, err)
	}
	r.logger.Printf("customer repo: removed address id=%s customer_id=%s", addressID, customerID)
	return c, nil
}

func (r *postgresRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// addressMiss tells a missing customer apart from a missing address after a
// guarded address update matched no row.
func (r *postgresRepo) addressMiss(ctx context.Context, op, customerID string, err error) error {
	err = r.translate(op, err)
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	var exists bool
	if qErr := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`, customerID).Scan(&exists); qErr != nil {
		return r.translate(op+" lookup", qErr)
	}
	if exists {
		return domain.ErrAddressNotFound
	}
	return domain.ErrNotFound
}

func (r *postgresRepo) translate(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return domain.ErrAlreadyExists
		case "22P02":
			// malformed uuid
			return domain.ErrNotFound
		}
	}
	r.logger.Printf("customer repo: %s error=%v", op, err)
	return err
}

func (r *postgresRepo) scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	var addrJSON []byte
	err := row.Scan(
		&c.ID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.Phone,
		&addrJSON,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Addresses = []domain.Address{}
	if len(addrJSON) > 0 {
		if err := json.Unmarshal(addrJSON, &c.Addresses); err != nil {
			r.logger.Printf("customer repo: decode addresses id=%s err=%v", c.ID, err)
			return nil, err
		}
	}
	return &c, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(search string) string {
	return "%" + likeEscaper.Replace(search) + "%"
}
