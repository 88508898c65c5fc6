package testutil

import (
	"context"
	"fmt"
	"sort"
	"time"

	ledgererrors "spadesk/internal/ledger/errors"
	"spadesk/internal/ledger/repository"
	mongotx "spadesk/pkg/db/mongo"
	"spadesk/pkg/model"
)

type LedgerRepo struct {
	store *Store
}

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

func NewLedgerRepo(store *Store) *LedgerRepo {
	return &LedgerRepo{store: store}
}

func (r *LedgerRepo) Deposit(_ context.Context, customerID string, amount int64) (int64, int64, error) {
	return r.adjust("ledger.Deposit", customerID, func(c *model.Customer) error {
		c.Balance += amount
		c.TotalDeposit += amount
		c.DepositCount++
		return nil
	})
}

func (r *LedgerRepo) Credit(_ context.Context, customerID string, amount int64) (int64, int64, error) {
	return r.adjust("ledger.Credit", customerID, func(c *model.Customer) error {
		c.Balance += amount
		return nil
	})
}

func (r *LedgerRepo) Debit(_ context.Context, customerID string, amount int64) (int64, int64, error) {
	return r.adjust("ledger.Debit", customerID, func(c *model.Customer) error {
		if c.Balance < amount {
			return &ledgererrors.InsufficientBalanceError{Current: c.Balance, Required: amount}
		}
		c.Balance -= amount
		return nil
	})
}

func (r *LedgerRepo) adjust(op, customerID string, apply func(*model.Customer) error) (int64, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail(op); err != nil {
		return 0, 0, err
	}

	if !validID(customerID) {
		return 0, 0, fmt.Errorf("%w: %s", ledgererrors.ErrInvalidID, customerID)
	}
	c, ok := r.store.Customers[customerID]
	if !ok {
		return 0, 0, ledgererrors.ErrCustomerNotFound
	}

	before := c.Balance
	if err := apply(c); err != nil {
		return 0, 0, err
	}
	c.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	return before, c.Balance, nil
}

func (r *LedgerRepo) Balance(_ context.Context, customerID string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	c, ok := r.store.Customers[customerID]
	if !ok {
		return 0, ledgererrors.ErrCustomerNotFound
	}
	return c.Balance, nil
}

func (r *LedgerRepo) InsertDeposit(_ context.Context, record *model.DepositRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("ledger.InsertDeposit"); err != nil {
		return err
	}

	record.ID = newID()
	r.store.Deposits[record.ID] = clonePtr(record)
	return nil
}

func (r *LedgerRepo) FindDepositByID(_ context.Context, id string) (*model.DepositRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if !validID(id) {
		return nil, fmt.Errorf("%w: %s", ledgererrors.ErrInvalidID, id)
	}
	d, ok := r.store.Deposits[id]
	if !ok {
		return nil, ledgererrors.ErrNotFound
	}
	return clonePtr(d), nil
}

func (r *LedgerRepo) VerifyDeposit(_ context.Context, id string, operator string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if !validID(id) {
		return fmt.Errorf("%w: %s", ledgererrors.ErrInvalidID, id)
	}
	d, ok := r.store.Deposits[id]
	if !ok {
		return ledgererrors.ErrNotFound
	}
	if d.SignatureVerified {
		return ledgererrors.ErrAlreadyVerified
	}
	d.SignatureVerified = true
	d.SignatureVerifiedAt = &at
	d.SignatureVerifiedBy = operator
	return nil
}

func (r *LedgerRepo) ListDeposits(_ context.Context, customerID string) ([]*model.DepositRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*model.DepositRecord
	for _, d := range r.store.Deposits {
		if d.CustomerID == customerID {
			out = append(out, clonePtr(d))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *LedgerRepo) InsertUsage(_ context.Context, record *model.BalanceUsageRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("ledger.InsertUsage"); err != nil {
		return err
	}

	record.ID = newID()
	record.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	r.store.Usage[record.ID] = clonePtr(record)
	return nil
}

func (r *LedgerRepo) ReverseUsage(_ context.Context, customerID, visitID string, at time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var n int64
	for _, u := range r.store.Usage {
		if u.CustomerID == customerID && u.VisitID == visitID && !u.Reversed {
			u.Reversed = true
			u.ReversedAt = &at
			n++
		}
	}
	return n, nil
}

func (r *LedgerRepo) ListUsage(_ context.Context, customerID string) ([]*model.BalanceUsageRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*model.BalanceUsageRecord
	for _, u := range r.store.Usage {
		if u.CustomerID == customerID {
			out = append(out, clonePtr(u))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *LedgerRepo) InsertVIPPurchase(_ context.Context, purchase *model.VIPPurchase) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("ledger.InsertVIPPurchase"); err != nil {
		return err
	}

	purchase.ID = newID()
	r.store.VIPPurchases[purchase.ID] = clonePtr(purchase)
	return nil
}

func (r *LedgerRepo) ListVIPPurchases(_ context.Context, customerID string) ([]*model.VIPPurchase, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*model.VIPPurchase
	for _, p := range r.store.VIPPurchases {
		if p.CustomerID == customerID {
			out = append(out, clonePtr(p))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *LedgerRepo) Totals(_ context.Context, customerID string) (*repository.Totals, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	totals := &repository.Totals{}
	for _, d := range r.store.Deposits {
		if d.CustomerID == customerID {
			totals.Credits += d.TotalAmount
		}
	}
	for _, u := range r.store.Usage {
		if u.CustomerID == customerID && !u.Reversed {
			totals.Debits += u.Amount
		}
	}
	for _, p := range r.store.VIPPurchases {
		if p.CustomerID == customerID && p.PaymentMethod == model.PaymentDeposit {
			totals.VIPDebits += p.Amount
		}
	}
	return totals, nil
}

func (r *LedgerRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.store.ExecuteTransaction(ctx, fn)
}
