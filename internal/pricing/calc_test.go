package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/DenysVerbitskyi/verba-store/pkg/db/models"
	pkgerrors "github.com/DenysVerbitskyi/verba-store/pkg/errors"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func decPtr(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d := dec(t, s)
	return &d
}

func TestResolveUnitPriceFallthrough(t *testing.T) {
	fullTiers := &models.Product{
		Price:      dec(t, "1000"),
		Tier2Price: decPtr(t, "970"),
		Tier3Price: decPtr(t, "940"),
	}
	tier2Only := &models.Product{
		Price:      dec(t, "1000"),
		Tier2Price: decPtr(t, "970"),
	}
	tier3Only := &models.Product{
		Price:      dec(t, "1000"),
		Tier3Price: decPtr(t, "940"),
	}
	baseOnly := &models.Product{Price: dec(t, "1000")}

	cases := []struct {
		name     string
		product  *models.Product
		qty      int
		want     string
		wantTier Tier
	}{
		{"full tiers qty 1", fullTiers, 1, "1000", TierBase},
		{"full tiers qty 3", fullTiers, 3, "1000", TierBase},
		{"full tiers qty 4", fullTiers, 4, "970", Tier2},
		{"full tiers qty 10", fullTiers, 10, "970", Tier2},
		{"full tiers qty 11", fullTiers, 11, "940", Tier3},
		{"full tiers qty 100", fullTiers, 100, "940", Tier3},
		{"tier2 only qty 11 falls to tier2", tier2Only, 11, "970", Tier2},
		{"tier2 only qty 3", tier2Only, 3, "1000", TierBase},
		{"tier3 only qty 11", tier3Only, 11, "940", Tier3},
		{"tier3 only qty 5 stays base", tier3Only, 5, "1000", TierBase},
		{"base only qty 50", baseOnly, 50, "1000", TierBase},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, tier := ResolveUnitPrice(tc.product, tc.qty)
			if !got.Equal(dec(t, tc.want)) {
				t.Fatalf("unit price = %s, want %s", got, tc.want)
			}
			if tier != tc.wantTier {
				t.Fatalf("tier = %s, want %s", tier, tc.wantTier)
			}
		})
	}
}

func TestQuoteLineTotalsAndSavings(t *testing.T) {
	product := &models.Product{
		Price:      dec(t, "1000"),
		Tier2Price: decPtr(t, "970"),
		Tier3Price: decPtr(t, "940"),
	}

	cases := []struct {
		name        string
		qty         int
		wantUnit    string
		wantTotal   string
		wantSavings string
	}{
		{"retail band", 2, "1000", "2000", "0"},
		{"tier2 band", 5, "970", "4850", "150"},
		{"tier3 band", 15, "940", "14100", "900"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			quote, err := QuoteLine(product, tc.qty)
			if err != nil {
				t.Fatalf("quote line: %v", err)
			}
			if !quote.EffectiveUnitPrice.Equal(dec(t, tc.wantUnit)) {
				t.Fatalf("effective unit price = %s, want %s", quote.EffectiveUnitPrice, tc.wantUnit)
			}
			if !quote.LineTotal.Equal(dec(t, tc.wantTotal)) {
				t.Fatalf("line total = %s, want %s", quote.LineTotal, tc.wantTotal)
			}
			if !quote.Savings.Equal(dec(t, tc.wantSavings)) {
				t.Fatalf("savings = %s, want %s", quote.Savings, tc.wantSavings)
			}
			if !quote.UnitPrice.Equal(product.Price) {
				t.Fatalf("retail unit price = %s, want %s", quote.UnitPrice, product.Price)
			}
		})
	}
}

func TestQuoteLineClampsNegativeSavings(t *testing.T) {
	product := &models.Product{
		Price:      dec(t, "100"),
		Tier2Price: decPtr(t, "120"),
	}

	quote, err := QuoteLine(product, 5)
	if err != nil {
		t.Fatalf("quote line: %v", err)
	}
	if !quote.EffectiveUnitPrice.Equal(dec(t, "120")) {
		t.Fatalf("effective unit price = %s, want 120", quote.EffectiveUnitPrice)
	}
	if !quote.Savings.IsZero() {
		t.Fatalf("savings = %s, want 0", quote.Savings)
	}
}

func TestQuoteLineRejectsBadInput(t *testing.T) {
	product := &models.Product{Price: dec(t, "100")}

	for _, qty := range []int{0, -3} {
		_, err := QuoteLine(product, qty)
		if err == nil {
			t.Fatalf("expected error for qty %d", qty)
		}
		appErr := pkgerrors.As(err)
		if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	}

	if _, err := QuoteLine(nil, 1); err == nil {
		t.Fatalf("expected error for nil product")
	}
}

func TestSummarize(t *testing.T) {
	full := &models.Product{
		Price:      dec(t, "1000"),
		Tier2Price: decPtr(t, "970"),
		Tier3Price: decPtr(t, "940"),
	}
	cheap := &models.Product{Price: dec(t, "50")}

	lineA, err := QuoteLine(full, 5)
	if err != nil {
		t.Fatalf("quote line a: %v", err)
	}
	lineB, err := QuoteLine(cheap, 2)
	if err != nil {
		t.Fatalf("quote line b: %v", err)
	}

	summary := Summarize([]LineQuote{lineA, lineB})

	if !summary.Subtotal.Equal(dec(t, "4950")) {
		t.Fatalf("subtotal = %s, want 4950", summary.Subtotal)
	}
	if !summary.TotalSavings.Equal(dec(t, "150")) {
		t.Fatalf("total savings = %s, want 150", summary.TotalSavings)
	}
	if summary.ItemCount != 7 {
		t.Fatalf("item count = %d, want 7", summary.ItemCount)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)
	if !summary.Subtotal.IsZero() || !summary.TotalSavings.IsZero() || summary.ItemCount != 0 {
		t.Fatalf("empty summary should be zero, got %+v", summary)
	}
}
