// Package testutil provides in-memory repositories for service tests. They
// honour the same sentinels and conditional writes as the Mongo
// repositories, and ExecuteTransaction rolls back every write of a failed
// transaction.
package testutil

import (
	"context"
	"slices"
	"sync"

	mongotx "spadesk/pkg/db/mongo"
	"spadesk/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type txKey struct{}

// Store holds every collection. All fake repositories built from one Store
// share its data and its transaction.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex

	Customers    map[string]*model.Customer
	Services     map[string]*model.Service
	Visits       map[string]*model.Visit
	Bookings     map[string]*model.Booking
	Deposits     map[string]*model.DepositRecord
	Usage        map[string]*model.BalanceUsageRecord
	VIPPurchases map[string]*model.VIPPurchase

	failures map[string]error
	commits  int
	aborts   int
}

func NewStore() *Store {
	return &Store{
		Customers:    map[string]*model.Customer{},
		Services:     map[string]*model.Service{},
		Visits:       map[string]*model.Visit{},
		Bookings:     map[string]*model.Booking{},
		Deposits:     map[string]*model.DepositRecord{},
		Usage:        map[string]*model.BalanceUsageRecord{},
		VIPPurchases: map[string]*model.VIPPurchase{},
		failures:     map[string]error{},
	}
}

// FailNext makes the next call of op, such as "visits.Create", return err.
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// fail must be called with s.mu held.
func (s *Store) fail(op string) error {
	if err, ok := s.failures[op]; ok {
		delete(s.failures, op)
		return err
	}
	return nil
}

func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

func (s *Store) Aborts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aborts
}

// ExecuteTransaction serializes transactions and restores the snapshot taken
// at the start when fn fails. Nested calls join the outer transaction.
func (s *Store) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.snapshot()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.restore(snapshot)
		s.aborts++
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.commits++
	s.mu.Unlock()
	return nil
}

type snapshot struct {
	customers    map[string]*model.Customer
	services     map[string]*model.Service
	visits       map[string]*model.Visit
	bookings     map[string]*model.Booking
	deposits     map[string]*model.DepositRecord
	usage        map[string]*model.BalanceUsageRecord
	vipPurchases map[string]*model.VIPPurchase
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		customers:    cloneMap(s.Customers, cloneCustomer),
		services:     cloneMap(s.Services, clonePtr[model.Service]),
		visits:       cloneMap(s.Visits, clonePtr[model.Visit]),
		bookings:     cloneMap(s.Bookings, clonePtr[model.Booking]),
		deposits:     cloneMap(s.Deposits, clonePtr[model.DepositRecord]),
		usage:        cloneMap(s.Usage, clonePtr[model.BalanceUsageRecord]),
		vipPurchases: cloneMap(s.VIPPurchases, clonePtr[model.VIPPurchase]),
	}
}

func (s *Store) restore(snap snapshot) {
	s.Customers = snap.customers
	s.Services = snap.services
	s.Visits = snap.visits
	s.Bookings = snap.bookings
	s.Deposits = snap.deposits
	s.Usage = snap.usage
	s.VIPPurchases = snap.vipPurchases
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

func validID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}

func cloneMap[T any](in map[string]*T, clone func(*T) *T) map[string]*T {
	out := make(map[string]*T, len(in))
	for k, v := range in {
		out[k] = clone(v)
	}
	return out
}

// clonePtr copies a record whose pointer fields are never mutated in place.
func clonePtr[T any](v *T) *T {
	c := *v
	return &c
}

func cloneCustomer(c *model.Customer) *model.Customer {
	out := *c
	out.RecentVisits = slices.Clone(c.RecentVisits)
	out.RecentAppointments = slices.Clone(c.RecentAppointments)
	return &out
}
