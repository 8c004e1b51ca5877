package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/DenysVerbitskyi/verba-store/pkg/types"
)

// Product represents a storefront listing. Tier prices are optional: a
// product with neither sells at the base price for any quantity.
type Product struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	CategoryID  *uuid.UUID       `gorm:"column:category_id;type:uuid"`
	Name        string           `gorm:"column:name;type:text;not null"`
	Description *string          `gorm:"column:description;type:text"`
	Price       decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	Tier2Price  *decimal.Decimal `gorm:"column:wholesale_price_tier2;type:numeric(12,2)"`
	Tier3Price  *decimal.Decimal `gorm:"column:wholesale_price_tier3;type:numeric(12,2)"`
	IsSale      bool             `gorm:"column:is_sale;not null;default:false"`
	Images      types.StringList `gorm:"column:images;type:text;not null;default:'[]'"`
	Category    *Category        `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ImagePath returns the primary gallery image when one exists.
func (p *Product) ImagePath() *string {
	if len(p.Images) == 0 {
		return nil
	}
	first := p.Images[0]
	return &first
}
