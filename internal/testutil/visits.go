package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	visitserrors "spadesk/internal/visits/errors"
	"spadesk/internal/visits/repository"
	mongotx "spadesk/pkg/db/mongo"
	"spadesk/pkg/model"
)

type VisitRepo struct {
	store *Store
}

var _ repository.VisitRepository = (*VisitRepo)(nil)

func NewVisitRepo(store *Store) *VisitRepo {
	return &VisitRepo{store: store}
}

// Seed stores v as is and returns its id.
func (r *VisitRepo) Seed(v *model.Visit) string {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if v.ID == "" {
		v.ID = newID()
	}
	r.store.Visits[v.ID] = clonePtr(v)
	return v.ID
}

func (r *VisitRepo) Create(_ context.Context, visit *model.Visit) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("visits.Create"); err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	visit.ID = newID()
	visit.CreatedAt = now
	visit.UpdatedAt = now
	r.store.Visits[visit.ID] = clonePtr(visit)
	return nil
}

func (r *VisitRepo) FindByID(_ context.Context, id string) (*model.Visit, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if !validID(id) {
		return nil, fmt.Errorf("%w: %s", visitserrors.ErrInvalidID, id)
	}
	v, ok := r.store.Visits[id]
	if !ok {
		return nil, visitserrors.ErrNotFound
	}
	return clonePtr(v), nil
}

func (r *VisitRepo) FindAll(_ context.Context, limit int, offset int64) ([]*model.Visit, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return page(r.matching(func(*model.Visit) bool { return true }), limit, offset), nil
}

func (r *VisitRepo) FindByCustomer(_ context.Context, customerID string) ([]*model.Visit, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.matching(func(v *model.Visit) bool { return v.CustomerID == customerID }), nil
}

func (r *VisitRepo) Search(_ context.Context, filter repository.Filter) ([]*model.Visit, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	term := strings.ToLower(filter.Term)
	out := r.matching(func(v *model.Visit) bool {
		if !inRange(v.VisitDate, filter.Start, filter.End) {
			return false
		}
		if term == "" {
			return true
		}
		return strings.Contains(strings.ToLower(v.CustomerName), term) ||
			strings.Contains(strings.ToLower(v.ServiceName), term) ||
			strings.Contains(strings.ToLower(v.Notes), term)
	})
	return page(out, filter.Limit, 0), nil
}

func (r *VisitRepo) Count(_ context.Context) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.store.Visits)), nil
}

func (r *VisitRepo) CountByCustomer(_ context.Context, customerID string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var n int64
	for _, v := range r.store.Visits {
		if v.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

func (r *VisitRepo) Summarize(_ context.Context, start, end *time.Time) ([]model.PaymentSummary, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	byMethod := map[string]*model.PaymentSummary{}
	for _, v := range r.store.Visits {
		if !inRange(v.VisitDate, start, end) {
			continue
		}
		s, ok := byMethod[v.PaymentMethod]
		if !ok {
			s = &model.PaymentSummary{Method: v.PaymentMethod}
			byMethod[v.PaymentMethod] = s
		}
		s.Visits++
		s.Revenue += v.Charge()
	}

	out := make([]model.PaymentSummary, 0, len(byMethod))
	for _, s := range byMethod {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Method < out[j].Method })
	return out, nil
}

func (r *VisitRepo) Update(_ context.Context, visit *model.Visit) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("visits.Update"); err != nil {
		return err
	}

	if !validID(visit.ID) {
		return fmt.Errorf("%w: %s", visitserrors.ErrInvalidID, visit.ID)
	}
	v, ok := r.store.Visits[visit.ID]
	if !ok {
		return visitserrors.ErrNotFound
	}

	v.VisitDate = visit.VisitDate
	v.Duration = visit.Duration
	v.FinalPrice = visit.FinalPrice
	v.Discount = visit.Discount
	v.PaymentMethod = visit.PaymentMethod
	v.PaymentStatus = visit.PaymentStatus
	v.Notes = visit.Notes
	v.Operator = visit.Operator
	v.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	visit.UpdatedAt = v.UpdatedAt
	return nil
}

func (r *VisitRepo) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("visits.Delete"); err != nil {
		return err
	}

	if !validID(id) {
		return fmt.Errorf("%w: %s", visitserrors.ErrInvalidID, id)
	}
	if _, ok := r.store.Visits[id]; !ok {
		return visitserrors.ErrNotFound
	}
	delete(r.store.Visits, id)
	return nil
}

func (r *VisitRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.store.ExecuteTransaction(ctx, fn)
}

// matching returns copies of the visits accepted by keep, newest first.
func (r *VisitRepo) matching(keep func(*model.Visit) bool) []*model.Visit {
	var out []*model.Visit
	for _, v := range r.store.Visits {
		if keep(v) {
			out = append(out, clonePtr(v))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].VisitDate.After(out[j].VisitDate) })
	return out
}

func inRange(t time.Time, start, end *time.Time) bool {
	if start != nil && t.Before(*start) {
		return false
	}
	if end != nil && t.After(*end) {
		return false
	}
	return true
}
