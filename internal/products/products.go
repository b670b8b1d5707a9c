package products

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	sl "tenant_service/internal/lib/logger/sl"
	"tenant_service/internal/models"
	"tenant_service/internal/storage"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage keeps Page*Size well inside int64 for the OFFSET clause.
	MaxPage         = 1000000
)

var (
	ErrNotFound     = errors.New("product not found or access denied")
	ErrDuplicateSKU = errors.New("sku already in use")
	ErrNoTenant     = errors.New("tenant id required")
)

type Repository interface {
	CreateProduct(ctx context.Context, p models.Product) (models.Product, error)
	ProductByID(ctx context.Context, tenantID string, id int64) (models.Product, error)
	ListProducts(ctx context.Context, tenantID string, req models.PageRequest) (models.Page[models.Product], error)
	UpdateProduct(ctx context.Context, p models.Product) (models.Product, error)
	DeleteProduct(ctx context.Context, tenantID string, id int64) error
}

// Cache is an optional read-through cache for single products.
type Cache interface {
	Product(ctx context.Context, tenantID string, id int64) (models.Product, error)
	SetProduct(ctx context.Context, p models.Product) error
	InvalidateProduct(ctx context.Context, tenantID string, id int64) error
}

// Service scopes every product operation to the tenant id it is given.
// Callers obtain that id from the authenticated request.
type Service struct {
	log   *slog.Logger
	repo  Repository
	cache Cache
}

func New(log *slog.Logger, repo Repository, cache Cache) *Service {
	return &Service{
		log:   log,
		repo:  repo,
		cache: cache,
	}
}

func (s *Service) List(ctx context.Context, tenantID string, req models.PageRequest) (models.Page[models.Product], error) {
	const op = "products.List"

	if tenantID == "" {
		return models.Page[models.Product]{}, ErrNoTenant
	}

	req = normalizePage(req)

	page, err := s.repo.ListProducts(ctx, tenantID, req)
	if err != nil {
		s.log.Error("failed to list products", slog.String("op", op), slog.String("tenant_id", tenantID), sl.Err(err))
		return models.Page[models.Product]{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("products listed",
		slog.String("op", op),
		slog.String("tenant_id", tenantID),
		slog.Int64("total", page.TotalElements),
	)

	return page, nil
}

func (s *Service) Create(ctx context.Context, tenantID string, p models.Product) (models.Product, error) {
	const op = "products.Create"

	if tenantID == "" {
		return models.Product{}, ErrNoTenant
	}

	p.TenantID = tenantID
	if p.Features == nil {
		p.Features = map[string]string{}
	}

	created, err := s.repo.CreateProduct(ctx, p)
	if err != nil {
		return models.Product{}, s.fail(op, tenantID, err)
	}

	s.log.Info("product created",
		slog.String("op", op),
		slog.String("tenant_id", tenantID),
		slog.Int64("product_id", created.ID),
	)

	return created, nil
}

func (s *Service) Get(ctx context.Context, tenantID string, id int64) (models.Product, error) {
	const op = "products.Get"

	if tenantID == "" {
		return models.Product{}, ErrNoTenant
	}

	if s.cache != nil {
		p, err := s.cache.Product(ctx, tenantID, id)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, storage.ErrCacheMiss) {
			s.log.Warn("product cache read failed", slog.String("op", op), sl.Err(err))
		}
	}

	p, err := s.repo.ProductByID(ctx, tenantID, id)
	if err != nil {
		return models.Product{}, s.fail(op, tenantID, err)
	}

	if s.cache != nil {
		if err := s.cache.SetProduct(ctx, p); err != nil {
			s.log.Warn("product cache write failed", slog.String("op", op), sl.Err(err))
		}
	}

	return p, nil
}

func (s *Service) Update(ctx context.Context, tenantID string, id int64, patch models.ProductPatch) (models.Product, error) {
	const op = "products.Update"

	if tenantID == "" {
		return models.Product{}, ErrNoTenant
	}

	existing, err := s.repo.ProductByID(ctx, tenantID, id)
	if err != nil {
		return models.Product{}, s.fail(op, tenantID, err)
	}

	applyPatch(&existing, patch)

	updated, err := s.repo.UpdateProduct(ctx, existing)
	if err != nil {
		return models.Product{}, s.fail(op, tenantID, err)
	}

	s.invalidate(ctx, op, tenantID, id)

	s.log.Info("product updated",
		slog.String("op", op),
		slog.String("tenant_id", tenantID),
		slog.Int64("product_id", id),
	)

	return updated, nil
}

func (s *Service) Delete(ctx context.Context, tenantID string, id int64) error {
	const op = "products.Delete"

	if tenantID == "" {
		return ErrNoTenant
	}

	if err := s.repo.DeleteProduct(ctx, tenantID, id); err != nil {
		return s.fail(op, tenantID, err)
	}

	s.invalidate(ctx, op, tenantID, id)

	s.log.Info("product deleted",
		slog.String("op", op),
		slog.String("tenant_id", tenantID),
		slog.Int64("product_id", id),
	)

	return nil
}

func (s *Service) invalidate(ctx context.Context, op, tenantID string, id int64) {
	if s.cache == nil {
		return
	}

	if err := s.cache.InvalidateProduct(ctx, tenantID, id); err != nil {
		s.log.Warn("product cache invalidation failed", slog.String("op", op), sl.Err(err))
	}
}

func (s *Service) fail(op, tenantID string, err error) error {
	switch {
	case errors.Is(err, storage.ErrProductNotFound):
		s.log.Warn("product not found", slog.String("op", op), slog.String("tenant_id", tenantID))
		return ErrNotFound
	case errors.Is(err, storage.ErrSKUExists):
		s.log.Warn("duplicate sku", slog.String("op", op), slog.String("tenant_id", tenantID))
		return ErrDuplicateSKU
	}

	s.log.Error("product operation failed", slog.String("op", op), slog.String("tenant_id", tenantID), sl.Err(err))

	return fmt.Errorf("%s: %w", op, err)
}

func applyPatch(p *models.Product, patch models.ProductPatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.SKU != nil {
		p.SKU = *patch.SKU
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Description != nil {
		p.Description = patch.Description
	}
	if patch.Features != nil {
		p.Features = patch.Features
	}
}

func normalizePage(req models.PageRequest) models.PageRequest {
	if req.Page < 0 {
		req.Page = 0
	}
	if req.Page > MaxPage {
		req.Page = MaxPage
	}
	if req.Size <= 0 {
		req.Size = DefaultPageSize
	}
	if req.Size > MaxPageSize {
		req.Size = MaxPageSize
	}
	if req.SortBy == "" {
		req.SortBy = "createdAt"
	}

	req.SortDir = strings.ToUpper(req.SortDir)
	if req.SortDir != "ASC" {
		req.SortDir = "DESC"
	}

	return req
}
