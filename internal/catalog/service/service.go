package service

import (
	"context"
	"errors"
	catalogerrors "spadesk/internal/catalog/errors"
	"spadesk/internal/catalog/repository"
	"spadesk/internal/catalog/validator"
	"spadesk/pkg/config"
	apperrors "spadesk/pkg/errors"
	"spadesk/pkg/model"
	"spadesk/pkg/sanitizer"
	"spadesk/pkg/validation"
	"strings"
)

type CatalogService interface {
	GetByID(ctx context.Context, id string) (*model.Service, error)
	GetAll(ctx context.Context) ([]*model.Service, error)
	Import(ctx context.Context, services []*model.Service) (*ImportResult, error)
}

type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

type catalogService struct {
	repo      repository.ServiceRepository
	validator *validator.ServiceValidator
	cfg       *config.Config
}

func NewCatalogService(repo repository.ServiceRepository, validator *validator.ServiceValidator, cfg *config.Config) CatalogService {
	return &catalogService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *catalogService) GetByID(ctx context.Context, id string) (*model.Service, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Service ID cannot be empty")
	}

	service, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Service", id)
		}
		if errors.Is(err, catalogerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid service ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve service", err)
	}

	return service, nil
}

func (s *catalogService) GetAll(ctx context.Context) ([]*model.Service, error) {
	services, err := s.repo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list services", "error", err)
		return nil, apperrors.Internal("Failed to retrieve services", err)
	}
	return services, nil
}

// Import creates or replaces catalog entries keyed by code, all or nothing.
func (s *catalogService) Import(ctx context.Context, services []*model.Service) (*ImportResult, error) {
	seen := make(map[string]bool, len(services))
	for i, svc := range services {
		s.sanitize(svc)
		if err := s.validator.Validate(svc); err != nil {
			s.cfg.Log.Warn("Catalog entry validation failed", "index", i, "code", svc.Code, "error", err)
			return nil, validation.ToAppError("Catalog entry "+svc.Code+" is invalid", err)
		}
		if seen[svc.Code] {
			return nil, apperrors.InvalidInput("Duplicate service code in catalog: " + svc.Code)
		}
		seen[svc.Code] = true
	}

	result := &ImportResult{}
	err := s.repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
		*result = ImportResult{}
		for _, svc := range services {
			existing, err := s.repo.FindByCode(ctx, svc.Code)
			switch {
			case errors.Is(err, catalogerrors.ErrNotFound):
				if err := s.repo.Create(ctx, svc); err != nil {
					return apperrors.Internal("Failed to create service "+svc.Code, err)
				}
				result.Created++
			case err != nil:
				return apperrors.Internal("Failed to look up service "+svc.Code, err)
			default:
				svc.ID = existing.ID
				svc.CreatedAt = existing.CreatedAt
				if err := s.repo.Replace(ctx, existing.ID, svc); err != nil {
					return apperrors.Internal("Failed to update service "+svc.Code, err)
				}
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Catalog import failed", "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Catalog imported successfully", "created", result.Created, "updated", result.Updated)
	return result, nil
}

func (s *catalogService) sanitize(svc *model.Service) {
	svc.Code = strings.ToUpper(sanitizer.TrimAndNormalize(svc.Code))
	svc.Category = strings.ToLower(sanitizer.TrimAndNormalize(svc.Category))
	svc.Name = sanitizer.TrimAndNormalize(svc.Name)
	svc.NameEn = sanitizer.TrimAndNormalize(svc.NameEn)
	svc.NameJa = sanitizer.TrimAndNormalize(svc.NameJa)
	svc.Description = strings.TrimSpace(svc.Description)
	svc.Process = strings.TrimSpace(svc.Process)
}
