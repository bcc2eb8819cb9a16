package customer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"customerhub/internal/domain"
	custrepo "customerhub/internal/repository/customer"
)

// memoryRepo is a lightweight in-memory customer repository for tests.
type memoryRepo struct {
	order       []string
	byID        map[string]domain.Customer
	seq         int
	createCalls int
	listErr     error
	queries     []custrepo.ListQuery
	clock       time.Time
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		byID:  make(map[string]domain.Customer),
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick advances the fake clock so each write gets a distinct timestamp.
func (r *memoryRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func (r *memoryRepo) nextID(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s-%d", prefix, r.seq)
}

func (r *memoryRepo) Create(_ context.Context, c domain.Customer) (*domain.Customer, error) {
	r.createCalls++
	for _, existing := range r.byID {
		if existing.Email == c.Email {
			return nil, domain.ErrAlreadyExists
		}
	}
	c.ID = r.nextID("cust")
	c.CreatedAt = r.tick()
	c.UpdatedAt = c.CreatedAt
	if c.Addresses == nil {
		c.Addresses = []domain.Address{}
	}
	r.byID[c.ID] = c
	r.order = append(r.order, c.ID)
	return clone(c), nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(c), nil
}

func (r *memoryRepo) GetByEmail(_ context.Context, email string) (*domain.Customer, error) {
	for _, c := range r.byID {
		if c.Email == email {
			return clone(c), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) matching(search string) []domain.Customer {
	needle := strings.ToLower(search)
	var out []domain.Customer
	for _, id := range r.order {
		c, ok := r.byID[id]
		if !ok {
			continue
		}
		if needle == "" ||
			strings.Contains(strings.ToLower(c.FirstName), needle) ||
			strings.Contains(strings.ToLower(c.LastName), needle) ||
			strings.Contains(strings.ToLower(c.Email), needle) {
			out = append(out, c)
		}
	}
	return out
}

func (r *memoryRepo) List(_ context.Context, q custrepo.ListQuery) ([]domain.Customer, error) {
	r.queries = append(r.queries, q)
	if r.listErr != nil {
		return nil, r.listErr
	}
	all := r.matching(q.Search)
	if q.Skip >= int64(len(all)) {
		return nil, nil
	}
	end := q.Skip + q.Limit
	if end > int64(len(all)) {
		end = int64(len(all))
	}
	return all[q.Skip:end], nil
}

func (r *memoryRepo) Count(_ context.Context, search string) (int64, error) {
	return int64(len(r.matching(search))), nil
}

func (r *memoryRepo) Update(_ context.Context, id string, f domain.CustomerFields) (*domain.Customer, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	for otherID, other := range r.byID {
		if otherID != id && other.Email == f.Email {
			return nil, domain.ErrAlreadyExists
		}
	}
	c.FirstName, c.LastName, c.Email, c.Phone = f.FirstName, f.LastName, f.Email, f.Phone
	c.UpdatedAt = r.tick()
	r.byID[id] = c
	return clone(c), nil
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *memoryRepo) PushAddress(_ context.Context, customerID string, a domain.Address) (*domain.Customer, error) {
	c, ok := r.byID[customerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	a.ID = r.nextID("addr")
	c.Addresses = append(append([]domain.Address{}, c.Addresses...), a)
	c.UpdatedAt = r.tick()
	r.byID[customerID] = c
	return clone(c), nil
}

func (r *memoryRepo) PatchAddress(_ context.Context, customerID, addressID string, p domain.AddressPatch) (*domain.Customer, error) {
	c, ok := r.byID[customerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	current, ok := c.Address(addressID)
	if !ok {
		return nil, domain.ErrAddressNotFound
	}
	addresses := make([]domain.Address, 0, len(c.Addresses))
	for _, a := range c.Addresses {
		if a.ID == addressID {
			a = p.Apply(current)
		}
		addresses = append(addresses, a)
	}
	c.Addresses = addresses
	c.UpdatedAt = r.tick()
	r.byID[customerID] = c
	return clone(c), nil
}

func (r *memoryRepo) PullAddress(_ context.Context, customerID, addressID string) (*domain.Customer, error) {
	c, ok := r.byID[customerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	kept := make([]domain.Address, 0, len(c.Addresses))
	found := false
	for _, a := range c.Addresses {
		if a.ID == addressID {
			found = true
			continue
		}
		kept = append(kept, a)
	}
	if !found {
		return nil, domain.ErrAddressNotFound
	}
	c.Addresses = kept
	c.UpdatedAt = r.tick()
	r.byID[customerID] = c
	return clone(c), nil
}

func (r *memoryRepo) Ping(_ context.Context) error {
	return nil
}

func clone(c domain.Customer) *domain.Customer {
	c.Addresses = append([]domain.Address{}, c.Addresses...)
	return &c
}

type recordingNotifier struct {
	created []domain.Customer
}

func (n *recordingNotifier) CustomerCreated(_ context.Context, c domain.Customer) {
	n.created = append(n.created, c)
}

func adaInput() CustomerInput {
	return CustomerInput{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "1234567890"}
}

func TestCreate_RoundTripsThroughGet(t *testing.T) {
	repo := newMemoryRepo()
	notifier := &recordingNotifier{}
	svc := New(repo, notifier, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, adaInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || len(created.Addresses) != 0 {
		t.Fatalf("unexpected created customer %+v", created)
	}

	fetched, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetched.Email != created.Email || fetched.FirstName != "Ada" || fetched.Phone != "1234567890" {
		t.Fatalf("fetched %+v differs from created %+v", fetched, created)
	}
	if len(notifier.created) != 1 || notifier.created[0].ID != created.ID {
		t.Fatalf("expected one notification for %s, got %+v", created.ID, notifier.created)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo := newMemoryRepo()
	notifier := &recordingNotifier{}
	svc := New(repo, notifier, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, adaInput()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.Create(ctx, adaInput())
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	if repo.createCalls != 1 {
		t.Fatalf("expected a single insert, got %d", repo.createCalls)
	}
	if n, _ := repo.Count(ctx, ""); n != 1 {
		t.Fatalf("expected store count 1, got %d", n)
	}
	if len(notifier.created) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.created))
	}
}

func TestCreate_EmailMatchIsCaseSensitive(t *testing.T) {
	svc := New(newMemoryRepo(), nil, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, adaInput()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	in := adaInput()
	in.Email = "ADA@example.com"
	if _, err := svc.Create(ctx, in); err != nil {
		t.Fatalf("expected differently cased email to be accepted, got %v", err)
	}
}

func TestCreate_ValidationFailsWithoutInsert(t *testing.T) {
	repo := newMemoryRepo()
	svc := New(repo, nil, nil)

	in := adaInput()
	in.Phone = "123"
	_, err := svc.Create(context.Background(), in)
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "phone" {
		t.Fatalf("expected phone validation error, got %v", err)
	}
	if repo.createCalls != 0 {
		t.Fatalf("expected no insert, got %d", repo.createCalls)
	}
}

func TestList_PaginatesAndCountsPages(t *testing.T) {
	repo := newMemoryRepo()
	svc := New(repo, nil, nil)
	ctx := context.Background()

	for i := 0; i < 23; i++ {
		in := adaInput()
		in.Email = fmt.Sprintf("ada%d@example.com", i)
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	res, err := svc.List(ctx, ListInput{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(res.Customers) != 10 || res.TotalPages != 3 || res.CurrentPage != 1 || res.TotalCount != 23 {
		t.Fatalf("unexpected first page %+v", res)
	}

	last, err := svc.List(ctx, ListInput{Page: 3, Limit: 10})
	if err != nil {
		t.Fatalf("list page 3: %v", err)
	}
	if len(last.Customers) != 3 || last.Customers[0].Email != "ada20@example.com" {
		t.Fatalf("unexpected last page %+v", last.Customers)
	}

	beyond, err := svc.List(ctx, ListInput{Page: 9, Limit: 10})
	if err != nil {
		t.Fatalf("list beyond: %v", err)
	}
	if beyond.Customers == nil || len(beyond.Customers) != 0 {
		t.Fatalf("expected empty non-nil page, got %+v", beyond.Customers)
	}
}

func TestList_CapsLimit(t *testing.T) {
	svc := New(newMemoryRepo(), nil, nil)
	res, err := svc.List(context.Background(), ListInput{Limit: 5000})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.TotalPages != 0 {
		t.Fatalf("expected zero pages on empty store, got %d", res.TotalPages)
	}
}

func TestList_PageBeyondOffsetRange(t *testing.T) {
	repo := newMemoryRepo()
	svc := New(repo, nil, nil)
	ctx := context.Background()
	if _, err := svc.Create(ctx, adaInput()); err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := svc.List(ctx, ListInput{Page: math.MaxInt64 / 5, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, q := range repo.queries {
		if q.Skip < 0 {
			t.Fatalf("negative skip %d passed to store", q.Skip)
		}
	}
	if res.Customers == nil || len(res.Customers) != 0 {
		t.Fatalf("expected empty page, got %+v", res.Customers)
	}
	if res.TotalPages != 1 || res.TotalCount != 1 || res.CurrentPage != math.MaxInt64/5 {
		t.Fatalf("unexpected paging %+v", res)
	}

	// the largest page whose offset still fits reaches the store
	res, err = svc.List(ctx, ListInput{Page: math.MaxInt64/10 + 1, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	last := repo.queries[len(repo.queries)-1]
	if last.Skip != math.MaxInt64/10*10 || len(res.Customers) != 0 {
		t.Fatalf("unexpected query %+v result %+v", last, res)
	}
}

func TestList_SearchUsesOrSemantics(t *testing.T) {
	svc := New(newMemoryRepo(), nil, nil)
	ctx := context.Background()
	inputs := []CustomerInput{
		{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "1234567890"},
		{FirstName: "Grace", LastName: "Hopper", Email: "grace@navy.mil", Phone: "1234567890"},
		{FirstName: "Alan", LastName: "Turing", Email: "turing@example.com", Phone: "1234567890"},
	}
	for _, in := range inputs {
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatalf("create %s: %v", in.Email, err)
		}
	}

	cases := map[string]int{
		"":        3,
		"EXAMPLE": 2,
		"hop":     1,
		"a":       3,
		"zzz":     0,
	}
	for term, want := range cases {
		res, err := svc.List(ctx, ListInput{Search: term})
		if err != nil {
			t.Fatalf("list %q: %v", term, err)
		}
		if len(res.Customers) != want {
			t.Fatalf("search %q: expected %d results, got %d", term, want, len(res.Customers))
		}
	}
}

func TestList_PropagatesStoreError(t *testing.T) {
	repo := newMemoryRepo()
	repo.listErr = errors.New("boom")
	svc := New(repo, nil, nil)
	if _, err := svc.List(context.Background(), ListInput{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestUpdate_NotFoundMutatesNothing(t *testing.T) {
	repo := newMemoryRepo()
	svc := New(repo, nil, nil)
	ctx := context.Background()
	created, err := svc.Create(ctx, adaInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	in := adaInput()
	in.FirstName = "Changed"
	if _, err := svc.Update(ctx, "missing", in); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	fetched, _ := svc.Get(ctx, created.ID)
	if fetched.FirstName != "Ada" {
		t.Fatalf("customer was mutated: %+v", fetched)
	}
}

func TestUpdate_EmailCollisionIsValidationError(t *testing.T) {
	svc := New(newMemoryRepo(), nil, nil)
	ctx := context.Background()
	if _, err := svc.Create(ctx, adaInput()); err != nil {
		t.Fatalf("create ada: %v", err)
	}
	grace, err := svc.Create(ctx, CustomerInput{FirstName: "Grace", LastName: "Hopper", Email: "grace@navy.mil", Phone: "1234567890"})
	if err != nil {
		t.Fatalf("create grace: %v", err)
	}

	_, err = svc.Update(ctx, grace.ID, CustomerInput{FirstName: "Grace", LastName: "Hopper", Email: "ada@example.com", Phone: "1234567890"})
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "email" {
		t.Fatalf("expected email ValidationError, got %v", err)
	}
}

func TestWrites_RefreshUpdatedAtKeepCreatedAt(t *testing.T) {
	svc := New(newMemoryRepo(), nil, nil)
	ctx := context.Background()
	created, err := svc.Create(ctx, adaInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created.UpdatedAt.Equal(created.CreatedAt) {
		t.Fatalf("expected equal timestamps on create, got %+v", created)
	}

	in := adaInput()
	in.Phone = "0987654321"
	updated, err := svc.Update(ctx, created.ID, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	withAddr, err := svc.AddAddress(ctx, created.ID, AddressInput{Street: "1 Main St", City: "X", State: "Y", ZipCode: "00000", Country: "Z"})
	if err != nil {
		t.Fatalf("add address: %v", err)
	}
	removed, err := svc.RemoveAddress(ctx, created.ID, withAddr.Addresses[0].ID)
	if err != nil {
		t.Fatalf("remove address: %v", err)
	}

	prev := created.UpdatedAt
	for name, c := range map[string]*domain.Customer{"update": updated, "add": withAddr, "remove": removed} {
		if !c.CreatedAt.Equal(created.CreatedAt) {
			t.Fatalf("%s changed createdAt: %v -> %v", name, created.CreatedAt, c.CreatedAt)
		}
	}
	for _, c := range []*domain.Customer{updated, withAddr, removed} {
		if !c.UpdatedAt.After(prev) {
			t.Fatalf("expected updatedAt after %v, got %v", prev, c.UpdatedAt)
		}
		prev = c.UpdatedAt
	}
}

func TestAddressRoundTrip(t *testing.T) {
	svc := New(newMemoryRepo(), nil, nil)
	ctx := context.Background()
	created, err := svc.Create(ctx, adaInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	withAddr, err := svc.AddAddress(ctx, created.ID, AddressInput{Street: "1 Main St", City: "X", State: "Y", ZipCode: "00000", Country: "Z"})
	if err != nil {
		t.Fatalf("add address: %v", err)
	}
	if len(withAddr.Addresses) != 1 || withAddr.Addresses[0].IsPrimary {
		t.Fatalf("unexpected addresses %+v", withAddr.Addresses)
	}
	addrID := withAddr.Addresses[0].ID

	removed, err := svc.RemoveAddress(ctx, created.ID, addrID)
	if err != nil {
		t.Fatalf("remove address: %v", err)
	}
	if len(removed.Addresses) != 0 {
		t.Fatalf("expected empty addresses, got %+v", removed.Addresses)
	}

	if _, err := svc.RemoveAddress(ctx, created.ID, addrID); !errors.Is(err, domain.ErrAddressNotFound) {
		t.Fatalf("expected ErrAddressNotFound, got %v", err)
	}
	if _, err := svc.RemoveAddress(ctx, "missing", addrID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddAddress_AllowsMultiplePrimaries(t *testing.T) {
	svc := New(newMemoryRepo(), nil, nil)
	ctx := context.Background()
	created, _ := svc.Create(ctx, adaInput())
	primary := true
	in := AddressInput{Street: "1 Main St", City: "X", State: "Y", ZipCode: "00000", Country: "Z", IsPrimary: &primary}
	if _, err := svc.AddAddress(ctx, created.ID, in); err != nil {
		t.Fatalf("first primary: %v", err)
	}
	c, err := svc.AddAddress(ctx, created.ID, in)
	if err != nil {
		t.Fatalf("second primary: %v", err)
	}
	if !c.Addresses[0].IsPrimary || !c.Addresses[1].IsPrimary {
		t.Fatalf("expected both addresses primary, got %+v", c.Addresses)
	}
}

func TestAddAddress_Validation(t *testing.T) {
	svc := New(newMemoryRepo(), nil, nil)
	ctx := context.Background()
	created, _ := svc.Create(ctx, adaInput())

	_, err := svc.AddAddress(ctx, created.ID, AddressInput{Street: "1 Main St", City: "X"})
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "state" {
		t.Fatalf("expected state ValidationError, got %v", err)
	}
}

func TestUpdateAddress_MergesPartialFields(t *testing.T) {
	svc := New(newMemoryRepo(), nil, nil)
	ctx := context.Background()
	created, _ := svc.Create(ctx, adaInput())
	withAddr, _ := svc.AddAddress(ctx, created.ID, AddressInput{Street: "1 Main St", City: "X", State: "Y", ZipCode: "00000", Country: "Z"})
	addrID := withAddr.Addresses[0].ID

	city := "  Paris "
	updated, err := svc.UpdateAddress(ctx, created.ID, addrID, domain.AddressPatch{City: &city})
	if err != nil {
		t.Fatalf("update address: %v", err)
	}
	a := updated.Addresses[0]
	if a.City != "Paris" || a.Street != "1 Main St" || a.ZipCode != "00000" {
		t.Fatalf("unexpected merged address %+v", a)
	}

	if _, err := svc.UpdateAddress(ctx, created.ID, "nope", domain.AddressPatch{City: &city}); !errors.Is(err, domain.ErrAddressNotFound) {
		t.Fatalf("expected ErrAddressNotFound, got %v", err)
	}
	blank := ""
	if _, err := svc.UpdateAddress(ctx, created.ID, addrID, domain.AddressPatch{Street: &blank}); err == nil {
		t.Fatalf("expected blank street to be rejected")
	}
}

func TestDelete_RemovesFromListAndGet(t *testing.T) {
	svc := New(newMemoryRepo(), nil, nil)
	ctx := context.Background()
	created, _ := svc.Create(ctx, adaInput())
	if _, err := svc.AddAddress(ctx, created.ID, AddressInput{Street: "1 Main St", City: "X", State: "Y", ZipCode: "00000", Country: "Z"}); err != nil {
		t.Fatalf("add address: %v", err)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	res, _ := svc.List(ctx, ListInput{})
	if len(res.Customers) != 0 {
		t.Fatalf("expected empty list, got %+v", res.Customers)
	}
	if err := svc.Delete(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total int64
		limit int
		want  int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{23, 5, 5},
	}
	for _, tc := range cases {
		if got := totalPages(tc.total, tc.limit); got != tc.want {
			t.Fatalf("totalPages(%d, %d) = %d, want %d", tc.total, tc.limit, got, tc.want)
		}
	}
}
