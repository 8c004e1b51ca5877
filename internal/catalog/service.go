package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/DenysVerbitskyi/verba-store/pkg/db"
	"github.com/DenysVerbitskyi/verba-store/pkg/db/models"
	pkgerrors "github.com/DenysVerbitskyi/verba-store/pkg/errors"
)

// CategoryDTO is the API shape for a category.
type CategoryDTO struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	ProductCount int64     `json:"product_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	Repo Repository
}

// Service manages the category tree shown in storefront navigation.
type Service struct {
	repo Repository
}

// NewService builds a catalog service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	return &Service{repo: params.Repo}, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}

	dtos := make([]CategoryDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, CategoryDTO{
			ID:           row.ID,
			Name:         row.Name,
			ProductCount: row.ProductCount,
			CreatedAt:    row.CreatedAt,
		})
	}
	return dtos, nil
}

func (s *Service) GetCategory(ctx context.Context, id uuid.UUID) (*CategoryDTO, error) {
	category, err := s.findCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CategoryDTO{ID: category.ID, Name: category.Name, CreatedAt: category.CreatedAt}, nil
}

func (s *Service) CreateCategory(ctx context.Context, name string) (*CategoryDTO, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}

	category := &models.Category{Name: name}
	if err := s.repo.Create(ctx, category); err != nil {
		if db.IsUniqueViolation(err, "name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	return &CategoryDTO{ID: category.ID, Name: category.Name, CreatedAt: category.CreatedAt}, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id uuid.UUID, name string) (*CategoryDTO, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}

	category, err := s.findCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	category.Name = name
	if err := s.repo.Update(ctx, category); err != nil {
		if db.IsUniqueViolation(err, "name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update category")
	}
	return &CategoryDTO{ID: category.ID, Name: category.Name, CreatedAt: category.CreatedAt}, nil
}

// DeleteCategory removes the category. Products keep their rows and fall
// back to uncategorized through the FK's SET NULL.
func (s *Service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return nil
}

func (s *Service) findCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	return category, nil
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	return name, nil
}
