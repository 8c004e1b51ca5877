package controllers

import (
	"net/http"

	"github.com/DenysVerbitskyi/verba-store/api/responses"
	"github.com/DenysVerbitskyi/verba-store/api/validators"
	cartsvc "github.com/DenysVerbitskyi/verba-store/internal/cart"
	pkgerrors "github.com/DenysVerbitskyi/verba-store/pkg/errors"
	"github.com/DenysVerbitskyi/verba-store/pkg/logger"
)

type quoteCartRequest struct {
	Items []quoteCartItem `json:"items" validate:"required,min=1,dive"`
}

type quoteCartItem struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// QuoteCart prices a stateless cart against the live catalog.
func QuoteCart(svc *cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload quoteCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := cartsvc.QuoteInput{Items: make([]cartsvc.QuoteItem, 0, len(payload.Items))}
		for _, item := range payload.Items {
			id, err := validators.ParsePathUUID(item.ProductID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Items = append(input.Items, cartsvc.QuoteItem{ProductID: id, Quantity: item.Quantity})
		}

		quote, err := svc.Quote(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, quote)
	}
}
