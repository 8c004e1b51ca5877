package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderLineItem snapshots each purchased item. UnitPrice is the retail price
// at purchase time; EffectiveUnitPrice is the wholesale-tier price actually
// billed, so totals and savings stay reproducible after catalog edits.
type OrderLineItem struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID            uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID          *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	Name               string          `gorm:"column:product_name;type:text;not null"`
	UnitPrice          decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	EffectiveUnitPrice decimal.Decimal `gorm:"column:effective_unit_price;type:numeric(12,2);not null"`
	Quantity           int             `gorm:"column:quantity;not null"`
	LineTotal          decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (OrderLineItem) TableName() string {
	return "order_items"
}

func (i *OrderLineItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Savings returns the discount versus full retail for this line.
func (i OrderLineItem) Savings() decimal.Decimal {
	diff := i.UnitPrice.Sub(i.EffectiveUnitPrice)
	if diff.IsNegative() {
		return decimal.Zero
	}
	return diff.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
