package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/DenysVerbitskyi/verba-store/pkg/db/models"
	pkgerrors "github.com/DenysVerbitskyi/verba-store/pkg/errors"
)

type stubRepo struct {
	categories map[uuid.UUID]*models.Category
	createErr  error
	listRows   []CategoryWithCount
}

func newStubRepo() *stubRepo {
	return &stubRepo{categories: map[uuid.UUID]*models.Category{}}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, category *models.Category) error {
	if s.createErr != nil {
		return s.createErr
	}
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	s.categories[category.ID] = category
	return nil
}

func (s *stubRepo) Update(ctx context.Context, category *models.Category) error {
	s.categories[category.ID] = category
	return nil
}

func (s *stubRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	if _, ok := s.categories[id]; !ok {
		return 0, nil
	}
	delete(s.categories, id)
	return 1, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	category, ok := s.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return category, nil
}

func (s *stubRepo) List(ctx context.Context) ([]CategoryWithCount, error) {
	return s.listRows, nil
}

func TestCreateCategoryTrimsName(t *testing.T) {
	repo := newStubRepo()
	svc, _ := NewService(ServiceParams{Repo: repo})

	dto, err := svc.CreateCategory(context.Background(), "  Vases  ")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if dto.Name != "Vases" {
		t.Fatalf("name = %q, want trimmed", dto.Name)
	}
}

func TestCreateCategoryRejectsEmptyName(t *testing.T) {
	svc, _ := NewService(ServiceParams{Repo: newStubRepo()})

	_, err := svc.CreateCategory(context.Background(), "   ")
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateCategoryNotFound(t *testing.T) {
	svc, _ := NewService(ServiceParams{Repo: newStubRepo()})

	_, err := svc.UpdateCategory(context.Background(), uuid.New(), "Renamed")
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestDeleteCategoryNotFound(t *testing.T) {
	svc, _ := NewService(ServiceParams{Repo: newStubRepo()})

	err := svc.DeleteCategory(context.Background(), uuid.New())
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestListCategoriesMapsCounts(t *testing.T) {
	repo := newStubRepo()
	repo.listRows = []CategoryWithCount{
		{Category: models.Category{ID: uuid.New(), Name: "Vases"}, ProductCount: 3},
		{Category: models.Category{ID: uuid.New(), Name: "Lamps"}, ProductCount: 0},
	}
	svc, _ := NewService(ServiceParams{Repo: repo})

	dtos, err := svc.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(dtos) != 2 {
		t.Fatalf("len = %d, want 2", len(dtos))
	}
	if dtos[0].ProductCount != 3 {
		t.Fatalf("product count = %d, want 3", dtos[0].ProductCount)
	}
}
