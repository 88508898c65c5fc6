package testutil

import (
	"context"
	"sort"
	"time"

	"spadesk/internal/reports/repository"
	"spadesk/pkg/model"
)

// ReportRepo reads the store the way the Mongo report queries read their
// collections.
type ReportRepo struct {
	store *Store
}

var _ repository.ReportRepository = (*ReportRepo)(nil)

func NewReportRepo(store *Store) *ReportRepo {
	return &ReportRepo{store: store}
}

func (r *ReportRepo) VisitsBetween(_ context.Context, start, end time.Time) ([]*model.Visit, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("reports.Visits"); err != nil {
		return nil, err
	}

	var out []*model.Visit
	for _, v := range r.store.Visits {
		if inRange(v.VisitDate, &start, &end) {
			out = append(out, clonePtr(v))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].VisitDate.Before(out[j].VisitDate) })
	return out, nil
}

func (r *ReportRepo) BookingsBetween(_ context.Context, start, end time.Time) ([]*model.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*model.Booking
	for _, b := range r.store.Bookings {
		if inRange(b.BookingDate, &start, &end) {
			out = append(out, clonePtr(b))
		}
	}
	return out, nil
}

func (r *ReportRepo) Customers(_ context.Context) ([]*model.Customer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := make([]*model.Customer, 0, len(r.store.Customers))
	for _, c := range r.store.Customers {
		out = append(out, cloneCustomer(c))
	}
	return out, nil
}
