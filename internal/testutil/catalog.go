package testutil

import (
	"context"
	"fmt"
	"sort"
	"time"

	catalogerrors "spadesk/internal/catalog/errors"
	"spadesk/internal/catalog/repository"
	mongotx "spadesk/pkg/db/mongo"
	"spadesk/pkg/model"
)

type ServiceRepo struct {
	store *Store
}

var _ repository.ServiceRepository = (*ServiceRepo)(nil)

func NewServiceRepo(store *Store) *ServiceRepo {
	return &ServiceRepo{store: store}
}

// Seed stores svc as is and returns its id.
func (r *ServiceRepo) Seed(svc *model.Service) string {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if svc.ID == "" {
		svc.ID = newID()
	}
	r.store.Services[svc.ID] = clonePtr(svc)
	return svc.ID
}

func (r *ServiceRepo) Create(_ context.Context, service *model.Service) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("services.Create"); err != nil {
		return err
	}

	for _, s := range r.store.Services {
		if s.Code == service.Code {
			return catalogerrors.ErrDuplicateCode
		}
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	service.ID = newID()
	service.CreatedAt = now
	service.UpdatedAt = now
	r.store.Services[service.ID] = clonePtr(service)
	return nil
}

func (r *ServiceRepo) FindByID(_ context.Context, id string) (*model.Service, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if !validID(id) {
		return nil, fmt.Errorf("%w: %s", catalogerrors.ErrInvalidID, id)
	}
	s, ok := r.store.Services[id]
	if !ok {
		return nil, catalogerrors.ErrNotFound
	}
	return clonePtr(s), nil
}

func (r *ServiceRepo) FindByCode(_ context.Context, code string) (*model.Service, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, s := range r.store.Services {
		if s.Code == code {
			return clonePtr(s), nil
		}
	}
	return nil, catalogerrors.ErrNotFound
}

func (r *ServiceRepo) FindAll(_ context.Context) ([]*model.Service, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := make([]*model.Service, 0, len(r.store.Services))
	for _, s := range r.store.Services {
		out = append(out, clonePtr(s))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

func (r *ServiceRepo) Replace(_ context.Context, id string, service *model.Service) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if !validID(id) {
		return fmt.Errorf("%w: %s", catalogerrors.ErrInvalidID, id)
	}
	existing, ok := r.store.Services[id]
	if !ok {
		return catalogerrors.ErrNotFound
	}

	replaced := clonePtr(service)
	replaced.ID = id
	replaced.CreatedAt = existing.CreatedAt
	replaced.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	r.store.Services[id] = replaced
	return nil
}

func (r *ServiceRepo) Count(_ context.Context) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.store.Services)), nil
}

func (r *ServiceRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.store.ExecuteTransaction(ctx, fn)
}
