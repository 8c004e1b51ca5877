package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/DenysVerbitskyi/verba-store/internal/pricing"
	"github.com/DenysVerbitskyi/verba-store/pkg/db/models"
	pkgerrors "github.com/DenysVerbitskyi/verba-store/pkg/errors"
)

// ProductLoader fetches the products referenced by a quote request.
type ProductLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// QuoteItem is one requested line: a product and how many units.
type QuoteItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// QuoteInput is the stateless cart submitted by the storefront. The
// server never stores carts; every quote reprices from the catalog.
type QuoteInput struct {
	Items []QuoteItem `json:"items"`
}

// QuoteLineDTO is one priced line in the response.
type QuoteLineDTO struct {
	ProductID          uuid.UUID       `json:"product_id"`
	Name               string          `json:"name"`
	Quantity           int             `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	EffectiveUnitPrice decimal.Decimal `json:"effective_unit_price"`
	AppliedTier        string          `json:"applied_tier"`
	LineTotal          decimal.Decimal `json:"line_total"`
	Savings            decimal.Decimal `json:"savings"`
}

// QuoteDTO is the fully priced cart.
type QuoteDTO struct {
	Lines        []QuoteLineDTO  `json:"lines"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	TotalSavings decimal.Decimal `json:"total_savings"`
	ItemCount    int             `json:"item_count"`
}

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	Products ProductLoader
}

// Service prices carts on demand.
type Service struct {
	products ProductLoader
}

// NewService builds a cart service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Products == nil {
		return nil, errors.New("product loader is required")
	}
	return &Service{products: params.Products}, nil
}

// Quote reprices the submitted cart against the current catalog.
func (s *Service) Quote(ctx context.Context, input QuoteInput) (*QuoteDTO, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	merged, order, err := mergeItems(input.Items)
	if err != nil {
		return nil, err
	}

	byID, err := s.loadProducts(ctx, order)
	if err != nil {
		return nil, err
	}

	lines := make([]QuoteLineDTO, 0, len(order))
	quotes := make([]pricing.LineQuote, 0, len(order))
	for _, id := range order {
		product, ok := byID[id]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]string{"product_id": id.String()})
		}

		quote, err := pricing.QuoteLine(product, merged[id])
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, quote)
		lines = append(lines, QuoteLineDTO{
			ProductID:          product.ID,
			Name:               product.Name,
			Quantity:           quote.Quantity,
			UnitPrice:          quote.UnitPrice,
			EffectiveUnitPrice: quote.EffectiveUnitPrice,
			AppliedTier:        quote.AppliedTier.String(),
			LineTotal:          quote.LineTotal,
			Savings:            quote.Savings,
		})
	}

	summary := pricing.Summarize(quotes)
	return &QuoteDTO{
		Lines:        lines,
		Subtotal:     summary.Subtotal,
		TotalSavings: summary.TotalSavings,
		ItemCount:    summary.ItemCount,
	}, nil
}

// mergeItems folds duplicate product lines together so tier pricing sees
// the combined quantity, preserving first-seen order.
func mergeItems(items []QuoteItem) (map[uuid.UUID]int, []uuid.UUID, error) {
	merged := make(map[uuid.UUID]int, len(items))
	order := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if item.ProductID == uuid.Nil {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		}
		if item.Quantity <= 0 {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("quantity must be positive for product %s", item.ProductID))
		}
		if _, seen := merged[item.ProductID]; !seen {
			order = append(order, item.ProductID)
		}
		merged[item.ProductID] += item.Quantity
	}
	return merged, order, nil
}

func (s *Service) loadProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	rows, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	byID := make(map[uuid.UUID]*models.Product, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}
	return byID, nil
}
