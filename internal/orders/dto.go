package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/DenysVerbitskyi/verba-store/pkg/db/models"
	"github.com/DenysVerbitskyi/verba-store/pkg/enums"
)

// CheckoutItem is one requested line at checkout.
type CheckoutItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// CheckoutInput carries a storefront order submission. No account is
// required; the email doubles as the key for later order lookup.
type CheckoutInput struct {
	CustomerName    string
	CustomerPhone   *string
	CustomerEmail   string
	DeliveryAddress *string
	Items           []CheckoutItem
}

// OrderItemDTO is one snapshotted line of a placed order.
type OrderItemDTO struct {
	ProductID          *uuid.UUID      `json:"product_id,omitempty"`
	Name               string          `json:"name"`
	Quantity           int             `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	EffectiveUnitPrice decimal.Decimal `json:"effective_unit_price"`
	LineTotal          decimal.Decimal `json:"line_total"`
	Savings            decimal.Decimal `json:"savings"`
}

// OrderDTO is the API shape for an order. Total and Savings are derived
// from the snapshotted lines, never from the live catalog.
type OrderDTO struct {
	ID              uuid.UUID         `json:"id"`
	CustomerName    string            `json:"customer_name"`
	CustomerPhone   *string           `json:"customer_phone,omitempty"`
	CustomerEmail   string            `json:"customer_email"`
	DeliveryAddress *string           `json:"delivery_address,omitempty"`
	Status          enums.OrderStatus `json:"status"`
	Items           []OrderItemDTO    `json:"items"`
	Total           decimal.Decimal   `json:"total"`
	Savings         decimal.Decimal   `json:"savings"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// ListFilters narrows an admin order list query.
type ListFilters struct {
	Status *enums.OrderStatus
	Email  string
}

// ListResult is one page of orders plus the cursor for the next.
type ListResult struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// HistoryResult is a customer's full order history with running totals.
type HistoryResult struct {
	Orders       []OrderDTO      `json:"orders"`
	OrderCount   int             `json:"order_count"`
	TotalSpent   decimal.Decimal `json:"total_spent"`
	TotalSavings decimal.Decimal `json:"total_savings"`
}

func toDTO(order *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:              order.ID,
		CustomerName:    order.CustomerName,
		CustomerPhone:   order.CustomerPhone,
		CustomerEmail:   order.CustomerEmail,
		DeliveryAddress: order.DeliveryAddress,
		Status:          order.Status,
		Items:           make([]OrderItemDTO, 0, len(order.Items)),
		Total:           decimal.Zero,
		Savings:         decimal.Zero,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	for _, item := range order.Items {
		savings := item.Savings()
		dto.Items = append(dto.Items, OrderItemDTO{
			ProductID:          item.ProductID,
			Name:               item.Name,
			Quantity:           item.Quantity,
			UnitPrice:          item.UnitPrice,
			EffectiveUnitPrice: item.EffectiveUnitPrice,
			LineTotal:          item.LineTotal,
			Savings:            savings,
		})
		dto.Total = dto.Total.Add(item.LineTotal)
		dto.Savings = dto.Savings.Add(savings)
	}
	return dto
}
