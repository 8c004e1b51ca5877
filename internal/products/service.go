package products

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/DenysVerbitskyi/verba-store/pkg/db/models"
	pkgerrors "github.com/DenysVerbitskyi/verba-store/pkg/errors"
	"github.com/DenysVerbitskyi/verba-store/pkg/logger"
	"github.com/DenysVerbitskyi/verba-store/pkg/pagination"
)

// CategoryFinder checks category existence when attaching products.
type CategoryFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

// ImageRemover cleans up stored gallery files.
type ImageRemover interface {
	Remove(ctx context.Context, path string) error
}

// ServiceParams groups dependencies for the product service.
type ServiceParams struct {
	Repo       Repository
	Categories CategoryFinder
	Images     ImageRemover
	Logger     *logger.Logger
}

// Service manages the product catalog.
type Service struct {
	repo       Repository
	categories CategoryFinder
	images     ImageRemover
	logg       *logger.Logger
}

// NewService builds a product service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Categories == nil {
		return nil, errors.New("category finder is required")
	}
	return &Service{
		repo:       params.Repo,
		categories: params.Categories,
		images:     params.Images,
		logg:       params.Logger,
	}, nil
}

func (s *Service) ListProducts(ctx context.Context, params pagination.Params, filters ListFilters) (*ListResult, error) {
	rows, nextCursor, err := s.repo.List(ctx, params, filters)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	dtos := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, toDTO(&rows[i]))
	}
	return &ListResult{Products: dtos, NextCursor: nextCursor}, nil
}

func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toDTO(product)
	return &dto, nil
}

func (s *Service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if err := validatePrices(input.Price, input.Tier2Price, input.Tier3Price); err != nil {
		return nil, err
	}
	if input.CategoryID != nil {
		if err := s.ensureCategory(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
	}

	product := &models.Product{
		CategoryID:  input.CategoryID,
		Name:        name,
		Description: input.Description,
		Price:       input.Price,
		Tier2Price:  input.Tier2Price,
		Tier3Price:  input.Tier3Price,
		IsSale:      input.IsSale,
		Images:      input.Images,
	}
	if product.Images == nil {
		product.Images = []string{}
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	created, err := s.findProduct(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	dto := toDTO(created)
	return &dto, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.ClearTier2 {
		product.Tier2Price = nil
	} else if input.Tier2Price != nil {
		product.Tier2Price = input.Tier2Price
	}
	if input.ClearTier3 {
		product.Tier3Price = nil
	} else if input.Tier3Price != nil {
		product.Tier3Price = input.Tier3Price
	}
	if err := validatePrices(product.Price, product.Tier2Price, product.Tier3Price); err != nil {
		return nil, err
	}

	if input.ClearCategory {
		product.CategoryID = nil
		product.Category = nil
	} else if input.CategoryID != nil {
		if err := s.ensureCategory(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = input.CategoryID
	}
	if input.IsSale != nil {
		product.IsSale = *input.IsSale
	}
	if input.Images != nil {
		product.Images = input.Images
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}

	updated, err := s.findProduct(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	dto := toDTO(updated)
	return &dto, nil
}

// DeleteProduct removes the product row and best-effort cleans its
// stored images. Order line items keep their snapshot.
func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return err
	}

	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	if s.images != nil {
		for _, path := range product.Images {
			if err := s.images.Remove(ctx, path); err != nil && s.logg != nil {
				s.logg.Error(ctx, "remove product image", err)
			}
		}
	}
	return nil
}

func (s *Service) findProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *Service) ensureCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.categories.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	return nil
}

func validatePrices(price decimal.Decimal, tier2, tier3 *decimal.Decimal) error {
	if !price.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if tier2 != nil && !tier2.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "tier2 price must be positive")
	}
	if tier3 != nil && !tier3.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "tier3 price must be positive")
	}
	return nil
}
