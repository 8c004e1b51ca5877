package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/DenysVerbitskyi/verba-store/pkg/enums"
)

// Order captures a placed checkout. Customer identity is a plain email;
// order history lookups are keyed on it after code verification.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	CustomerName    string            `gorm:"column:customer_name;type:text;not null"`
	CustomerPhone   *string           `gorm:"column:customer_phone;type:text"`
	CustomerEmail   string            `gorm:"column:customer_email;type:text;not null;index"`
	DeliveryAddress *string           `gorm:"column:delivery_address;type:text"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null;default:'new'"`
	Items           []OrderLineItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
