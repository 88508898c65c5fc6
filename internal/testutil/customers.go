package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	customerserrors "spadesk/internal/customers/errors"
	"spadesk/internal/customers/repository"
	mongotx "spadesk/pkg/db/mongo"
	"spadesk/pkg/model"
)

type CustomerRepo struct {
	store *Store
}

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

func NewCustomerRepo(store *Store) *CustomerRepo {
	return &CustomerRepo{store: store}
}

// Seed stores c as is and returns its id.
func (r *CustomerRepo) Seed(c *model.Customer) string {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if c.ID == "" {
		c.ID = newID()
	}
	if c.MembershipLevel == "" {
		c.MembershipLevel = model.MembershipRegular
	}
	r.store.Customers[c.ID] = cloneCustomer(c)
	return c.ID
}

func (r *CustomerRepo) Create(_ context.Context, customer *model.Customer) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("customers.Create"); err != nil {
		return err
	}

	for _, c := range r.store.Customers {
		if c.Phone == customer.Phone {
			return customerserrors.ErrDuplicatePhone
		}
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	customer.ID = newID()
	customer.CreatedAt = now
	customer.UpdatedAt = now
	r.store.Customers[customer.ID] = cloneCustomer(customer)
	return nil
}

func (r *CustomerRepo) FindByID(_ context.Context, id string) (*model.Customer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("customers.FindByID"); err != nil {
		return nil, err
	}

	if !validID(id) {
		return nil, fmt.Errorf("%w: %s", customerserrors.ErrInvalidID, id)
	}
	c, ok := r.store.Customers[id]
	if !ok {
		return nil, customerserrors.ErrNotFound
	}
	return cloneCustomer(c), nil
}

func (r *CustomerRepo) FindByPhone(_ context.Context, phone string) (*model.Customer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, c := range r.store.Customers {
		if c.Phone == phone {
			return cloneCustomer(c), nil
		}
	}
	return nil, customerserrors.ErrNotFound
}

func (r *CustomerRepo) FindAll(_ context.Context, limit int, offset int64) ([]*model.Customer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	all := r.sorted(func(a, b *model.Customer) bool { return a.CreatedAt.After(b.CreatedAt) })
	return page(all, limit, offset), nil
}

func (r *CustomerRepo) Search(_ context.Context, term string, limit int) ([]*model.Customer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	term = strings.ToLower(term)
	var out []*model.Customer
	for _, c := range r.sorted(func(a, b *model.Customer) bool { return a.Name < b.Name }) {
		if strings.Contains(strings.ToLower(c.Name), term) ||
			strings.Contains(strings.ToLower(c.Phone), term) ||
			strings.Contains(strings.ToLower(c.Email), term) {
			out = append(out, c)
		}
	}
	return page(out, limit, 0), nil
}

func (r *CustomerRepo) ListIDs(_ context.Context) ([]string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	ids := make([]string, 0, len(r.store.Customers))
	for id := range r.store.Customers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *CustomerRepo) Count(_ context.Context) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.store.Customers)), nil
}

func (r *CustomerRepo) UpdateProfile(_ context.Context, id string, customer *model.Customer) error {
	return r.update(id, func(c *model.Customer) error {
		for otherID, other := range r.store.Customers {
			if otherID != id && other.Phone == customer.Phone {
				return customerserrors.ErrDuplicatePhone
			}
		}
		c.Name = customer.Name
		c.Phone = customer.Phone
		c.Email = customer.Email
		c.Notes = customer.Notes
		return nil
	})
}

func (r *CustomerRepo) SaveStats(_ context.Context, customer *model.Customer) error {
	if err := r.failOp("customers.SaveStats"); err != nil {
		return err
	}
	return r.update(customer.ID, func(c *model.Customer) error {
		c.TotalVisits = customer.TotalVisits
		c.TotalSpent = customer.TotalSpent
		c.LastVisitAt = customer.LastVisitAt
		c.CurrentYearStats = customer.CurrentYearStats
		c.RecentVisits = append([]model.RecentVisit(nil), customer.RecentVisits...)
		c.VIPEligible = customer.VIPEligible
		c.VIPEligibleAt = customer.VIPEligibleAt
		return nil
	})
}

func (r *CustomerRepo) SaveAppointments(_ context.Context, customer *model.Customer) error {
	if err := r.failOp("customers.SaveAppointments"); err != nil {
		return err
	}
	return r.update(customer.ID, func(c *model.Customer) error {
		c.RecentAppointments = append([]model.RecentAppointment(nil), customer.RecentAppointments...)
		return nil
	})
}

func (r *CustomerRepo) SetVIP(_ context.Context, id string, grant model.VIPGrant) error {
	return r.update(id, func(c *model.Customer) error {
		now := time.Now().UTC().Truncate(time.Millisecond)
		start, end := grant.StartDate, grant.EndDate
		c.MembershipLevel = model.MembershipVIP
		c.VIPApproved = true
		c.VIPApprovedAt = &now
		c.VIPApprovedBy = grant.ApprovedBy
		c.VIPStartDate = &start
		c.VIPEndDate = &end
		return nil
	})
}

func (r *CustomerRepo) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if !validID(id) {
		return fmt.Errorf("%w: %s", customerserrors.ErrInvalidID, id)
	}
	if _, ok := r.store.Customers[id]; !ok {
		return customerserrors.ErrNotFound
	}
	delete(r.store.Customers, id)
	return nil
}

func (r *CustomerRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.store.ExecuteTransaction(ctx, fn)
}

func (r *CustomerRepo) failOp(op string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.fail(op)
}

func (r *CustomerRepo) update(id string, apply func(*model.Customer) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if !validID(id) {
		return fmt.Errorf("%w: %s", customerserrors.ErrInvalidID, id)
	}
	c, ok := r.store.Customers[id]
	if !ok {
		return customerserrors.ErrNotFound
	}
	if err := apply(c); err != nil {
		return err
	}
	c.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	return nil
}

func (r *CustomerRepo) sorted(less func(a, b *model.Customer) bool) []*model.Customer {
	out := make([]*model.Customer, 0, len(r.store.Customers))
	for _, c := range r.store.Customers {
		out = append(out, cloneCustomer(c))
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func page[T any](items []T, limit int, offset int64) []T {
	if offset >= int64(len(items)) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
