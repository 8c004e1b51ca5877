package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/DenysVerbitskyi/verba-store/pkg/db/models"
)

// ProductDTO is the API shape for a product, shared by the storefront and
// the admin panel.
type ProductDTO struct {
	ID           uuid.UUID        `json:"id"`
	CategoryID   *uuid.UUID       `json:"category_id,omitempty"`
	CategoryName *string          `json:"category_name,omitempty"`
	Name         string           `json:"name"`
	Description  *string          `json:"description,omitempty"`
	Price        decimal.Decimal  `json:"price"`
	Tier2Price   *decimal.Decimal `json:"wholesale_price_tier2,omitempty"`
	Tier3Price   *decimal.Decimal `json:"wholesale_price_tier3,omitempty"`
	IsSale       bool             `json:"is_sale"`
	Images       []string         `json:"images"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// CreateProductInput carries a new product submission.
type CreateProductInput struct {
	CategoryID  *uuid.UUID
	Name        string
	Description *string
	Price       decimal.Decimal
	Tier2Price  *decimal.Decimal
	Tier3Price  *decimal.Decimal
	IsSale      bool
	Images      []string
}

// UpdateProductInput carries a partial product edit. Nil fields are left
// unchanged; ClearCategory detaches the product from its category.
type UpdateProductInput struct {
	CategoryID    *uuid.UUID
	ClearCategory bool
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	Tier2Price    *decimal.Decimal
	ClearTier2    bool
	Tier3Price    *decimal.Decimal
	ClearTier3    bool
	IsSale        *bool
	Images        []string
}

// ListFilters narrows a product list query.
type ListFilters struct {
	CategoryID *uuid.UUID
	IsSale     *bool
	Query      string
}

// ListResult is one page of products plus the cursor for the next.
type ListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

func toDTO(product *models.Product) ProductDTO {
	dto := ProductDTO{
		ID:          product.ID,
		CategoryID:  product.CategoryID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Tier2Price:  product.Tier2Price,
		Tier3Price:  product.Tier3Price,
		IsSale:      product.IsSale,
		Images:      product.Images,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
	if dto.Images == nil {
		dto.Images = []string{}
	}
	if product.Category != nil {
		name := product.Category.Name
		dto.CategoryName = &name
	}
	return dto
}
