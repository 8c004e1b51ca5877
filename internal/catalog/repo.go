package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/DenysVerbitskyi/verba-store/pkg/db/models"
)

// CategoryWithCount is a list row joined with its product count.
type CategoryWithCount struct {
	models.Category
	ProductCount int64 `gorm:"column:product_count"`
}

// Repository handles category persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	List(ctx context.Context) ([]CategoryWithCount, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a category repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *repository) Update(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Category{})
	return res.RowsAffected, res.Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *repository) List(ctx context.Context) ([]CategoryWithCount, error) {
	var rows []CategoryWithCount
	err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Select("categories.*, COUNT(products.id) AS product_count").
		Joins("LEFT JOIN products ON products.category_id = categories.id").
		Group("categories.id").
		Order("categories.name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
