package testutil

import (
	"context"
	"fmt"
	"sort"
	"time"

	bookingserrors "spadesk/internal/bookings/errors"
	"spadesk/internal/bookings/repository"
	mongotx "spadesk/pkg/db/mongo"
	"spadesk/pkg/model"
)

type BookingRepo struct {
	store *Store
}

var _ repository.BookingRepository = (*BookingRepo)(nil)

func NewBookingRepo(store *Store) *BookingRepo {
	return &BookingRepo{store: store}
}

// Seed stores b as is and returns its id.
func (r *BookingRepo) Seed(b *model.Booking) string {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if b.ID == "" {
		b.ID = newID()
	}
	r.store.Bookings[b.ID] = clonePtr(b)
	return b.ID
}

func (r *BookingRepo) Create(_ context.Context, booking *model.Booking) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("bookings.Create"); err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.ID = newID()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	r.store.Bookings[booking.ID] = clonePtr(booking)
	return nil
}

func (r *BookingRepo) FindByID(_ context.Context, id string) (*model.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	b, err := r.get(id)
	if err != nil {
		return nil, err
	}
	return clonePtr(b), nil
}

func (r *BookingRepo) FindAll(_ context.Context, limit int, offset int64) ([]*model.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := r.matching(func(*model.Booking) bool { return true })
	sort.SliceStable(out, func(i, j int) bool { return out[i].BookingDate.After(out[j].BookingDate) })
	return page(out, limit, offset), nil
}

func (r *BookingRepo) FindByDateRange(_ context.Context, start, end time.Time) ([]*model.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := r.matching(func(b *model.Booking) bool { return inRange(b.BookingDate, &start, &end) })
	sort.SliceStable(out, func(i, j int) bool { return out[i].BookingDate.Before(out[j].BookingDate) })
	return out, nil
}

func (r *BookingRepo) Count(_ context.Context) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.store.Bookings)), nil
}

func (r *BookingRepo) UpdateUnpaid(_ context.Context, id string, booking *model.Booking) error {
	return r.conditional(id, func(b *model.Booking) error {
		if b.IsPaid() {
			return bookingserrors.ErrPaid
		}
		kept := *b
		*b = *booking
		b.ID = kept.ID
		b.CustomerID = kept.CustomerID
		b.Status = kept.Status
		b.PaymentStatus = kept.PaymentStatus
		b.PaymentMethod = kept.PaymentMethod
		b.PaidAt = kept.PaidAt
		b.VisitID = kept.VisitID
		b.CreatedBy = kept.CreatedBy
		b.CreatedAt = kept.CreatedAt
		return nil
	})
}

func (r *BookingRepo) UpdateStatus(_ context.Context, id string, from, to string) error {
	return r.conditional(id, func(b *model.Booking) error {
		if b.Status != from {
			return bookingserrors.ErrStatusChanged
		}
		b.Status = to
		return nil
	})
}

func (r *BookingRepo) MarkPaid(_ context.Context, id string, method string, at time.Time) error {
	return r.conditional(id, func(b *model.Booking) error {
		if b.IsPaid() {
			return bookingserrors.ErrPaid
		}
		b.PaymentStatus = model.PaymentStatusPaid
		b.PaymentMethod = method
		b.PaidAt = &at
		return nil
	})
}

func (r *BookingRepo) AttachVisit(_ context.Context, id string, visitID string) error {
	return r.conditional(id, func(b *model.Booking) error {
		if !b.IsPaid() || b.VisitID != "" {
			return bookingserrors.ErrVisitAlreadySpawned
		}
		b.VisitID = visitID
		return nil
	})
}

func (r *BookingRepo) DeleteUnpaid(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	b, err := r.get(id)
	if err != nil {
		return err
	}
	if b.IsPaid() {
		return bookingserrors.ErrPaid
	}
	delete(r.store.Bookings, id)
	return nil
}

func (r *BookingRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.store.ExecuteTransaction(ctx, fn)
}

func (r *BookingRepo) conditional(id string, apply func(*model.Booking) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	b, err := r.get(id)
	if err != nil {
		return err
	}
	if err := apply(b); err != nil {
		return err
	}
	b.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	return nil
}

// get must be called with the store lock held.
func (r *BookingRepo) get(id string) (*model.Booking, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}
	b, ok := r.store.Bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	return b, nil
}

func (r *BookingRepo) matching(keep func(*model.Booking) bool) []*model.Booking {
	var out []*model.Booking
	for _, b := range r.store.Bookings {
		if keep(b) {
			out = append(out, clonePtr(b))
		}
	}
	return out
}
