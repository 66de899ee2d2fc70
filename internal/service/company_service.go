package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/billing"
	"backoffice/internal/cache"
	"backoffice/internal/metrics"
	"backoffice/internal/model"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CompanyService manages the reseller's own settings and product catalogue.
type CompanyService interface {
	Get(ctx context.Context) (*model.CompanyInfo, error)
	Update(ctx context.Context, info *model.CompanyInfo, version time.Time) (*model.CompanyInfo, error)

	ListProducts(ctx context.Context) ([]model.Product, error)
	CreateProduct(ctx context.Context, p *model.Product) (*model.Product, error)
	UpdateProduct(ctx context.Context, p *model.Product, version time.Time) (*model.Product, error)
	DeactivateProduct(ctx context.Context, id string) error
}

type companyService struct {
	repo    repository.CompanyRepository
	cache   cache.SettingsCache
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewCompanyService creates a CompanyService. Settings are read through and
// invalidated on every write.
func NewCompanyService(repo repository.CompanyRepository, settingsCache cache.SettingsCache, m *metrics.Metrics, logger zerolog.Logger) CompanyService {
	return &companyService{
		repo:    repo,
		cache:   settingsCache,
		metrics: m,
		logger:  logger.With().Str("service", "CompanyService").Logger(),
	}
}

func (s *companyService) Get(ctx context.Context) (*model.CompanyInfo, error) {
	info, err := s.cache.Get(ctx)
	if err == nil {
		s.metrics.CacheLookup(true)
		return info, nil
	}
	s.metrics.CacheLookup(false)
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn().Err(err).Msg("Failed to read company settings from cache")
	}

	info, err = s.repo.Get(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load company settings")
		return nil, err
	}
	if err := s.cache.Set(ctx, info); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to cache company settings")
	}
	return info, nil
}

func (s *companyService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Failed to invalidate company settings cache")
	}
}

func (s *companyService) Update(ctx context.Context, info *model.CompanyInfo, version time.Time) (*model.CompanyInfo, error) {
	info.InvoicePrefix = strings.TrimSpace(info.InvoicePrefix)
	if info.InvoicePrefix == "" {
		info.InvoicePrefix = billing.DefaultInvoicePrefix
	}
	if info.PaymentTermDays <= 0 {
		info.PaymentTermDays = billing.DefaultPaymentTermDays
	}
	if info.DefaultTaxRate < 0 || info.DefaultTaxRate > 100 {
		return nil, fmt.Errorf("%w: tax rate %d out of range", ErrInvalidInput, info.DefaultTaxRate)
	}

	if err := s.repo.Update(ctx, info, version); err != nil {
		s.logger.Error().Err(err).Msg("Failed to update company settings")
		return nil, err
	}
	s.invalidate(ctx)
	return s.Get(ctx)
}

func (s *companyService) ListProducts(ctx context.Context) ([]model.Product, error) {
	info, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	return info.Products, nil
}

func validateProduct(p *model.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("%w: product name is required", ErrInvalidInput)
	}
	if p.UnitPrice < 0 {
		return fmt.Errorf("%w: unit price must not be negative", ErrInvalidInput)
	}
	if p.TaxRate < 0 || p.TaxRate > 100 {
		return fmt.Errorf("%w: tax rate %d out of range", ErrInvalidInput, p.TaxRate)
	}
	return nil
}

func (s *companyService) CreateProduct(ctx context.Context, p *model.Product) (*model.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	p.ID = uuid.NewString()
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		s.logger.Error().Err(err).Str("product", p.Name).Msg("Failed to create product")
		return nil, err
	}
	s.invalidate(ctx)
	return p, nil
}

func (s *companyService) UpdateProduct(ctx context.Context, p *model.Product, version time.Time) (*model.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetProduct(ctx, p.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", p.ID).Msg("Failed to get product")
		return nil, err
	}
	if existing == nil {
		return nil, ErrProductNotFound
	}
	if err := s.repo.UpdateProduct(ctx, p, version); err != nil {
		s.logger.Error().Err(err).Str("product_id", p.ID).Msg("Failed to update product")
		return nil, err
	}
	s.invalidate(ctx)
	p.CreatedAt = existing.CreatedAt
	return p, nil
}

func (s *companyService) DeactivateProduct(ctx context.Context, id string) error {
	if err := s.repo.DeactivateProduct(ctx, id); err != nil {
		if isNoRows(err) {
			return ErrProductNotFound
		}
		s.logger.Error().Err(err).Str("product_id", id).Msg("Failed to deactivate product")
		return err
	}
	s.invalidate(ctx)
	return nil
}
