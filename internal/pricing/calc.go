package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/DenysVerbitskyi/verba-store/pkg/db/models"
	pkgerrors "github.com/DenysVerbitskyi/verba-store/pkg/errors"
)

// Quantity breakpoints for wholesale tiers. Tier 1 is the base retail
// price and covers everything below Tier2MinQty.
const (
	Tier2MinQty = 4
	Tier3MinQty = 11
)

// Tier identifies which price band a quantity landed in.
type Tier int

const (
	TierBase Tier = iota + 1
	Tier2
	Tier3
)

func (t Tier) String() string {
	switch t {
	case Tier2:
		return "tier2"
	case Tier3:
		return "tier3"
	default:
		return "base"
	}
}

// LineQuote is the priced result for a single product/quantity pair.
type LineQuote struct {
	UnitPrice          decimal.Decimal
	EffectiveUnitPrice decimal.Decimal
	Quantity           int
	LineTotal          decimal.Decimal
	Savings            decimal.Decimal
	AppliedTier        Tier
}

// ResolveUnitPrice picks the effective per-unit price for qty.
//
// A product without tier prices sells at the base price for any quantity.
// A missing tier3 price falls through to tier2, then to base, so a partially
// configured product never quotes a zero price.
func ResolveUnitPrice(product *models.Product, qty int) (decimal.Decimal, Tier) {
	if qty >= Tier3MinQty {
		if product.Tier3Price != nil {
			return *product.Tier3Price, Tier3
		}
		if product.Tier2Price != nil {
			return *product.Tier2Price, Tier2
		}
		return product.Price, TierBase
	}

	if qty >= Tier2MinQty && product.Tier2Price != nil {
		return *product.Tier2Price, Tier2
	}

	return product.Price, TierBase
}

// QuoteLine prices qty units of product and reports the discount versus
// full retail. Savings never go negative even if a tier price is
// misconfigured above the base price.
func QuoteLine(product *models.Product, qty int) (LineQuote, error) {
	if product == nil {
		return LineQuote{}, pkgerrors.New(pkgerrors.CodeValidation, "product is required")
	}
	if qty <= 0 {
		return LineQuote{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be positive, got %d", qty))
	}

	effective, tier := ResolveUnitPrice(product, qty)
	qtyDec := decimal.NewFromInt(int64(qty))

	savingsPerUnit := product.Price.Sub(effective)
	if savingsPerUnit.IsNegative() {
		savingsPerUnit = decimal.Zero
	}

	return LineQuote{
		UnitPrice:          product.Price,
		EffectiveUnitPrice: effective,
		Quantity:           qty,
		LineTotal:          effective.Mul(qtyDec),
		Savings:            savingsPerUnit.Mul(qtyDec),
		AppliedTier:        tier,
	}, nil
}

// CartSummary aggregates priced lines into checkout totals.
type CartSummary struct {
	Subtotal     decimal.Decimal
	TotalSavings decimal.Decimal
	ItemCount    int
}

// Summarize folds line quotes into cart totals. ItemCount is the unit
// count across all lines, not the number of lines.
func Summarize(lines []LineQuote) CartSummary {
	summary := CartSummary{
		Subtotal:     decimal.Zero,
		TotalSavings: decimal.Zero,
	}
	for _, line := range lines {
		summary.Subtotal = summary.Subtotal.Add(line.LineTotal)
		summary.TotalSavings = summary.TotalSavings.Add(line.Savings)
		summary.ItemCount += line.Quantity
	}
	return summary
}
