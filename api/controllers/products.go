package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/DenysVerbitskyi/verba-store/api/responses"
	"github.com/DenysVerbitskyi/verba-store/api/validators"
	productsvc "github.com/DenysVerbitskyi/verba-store/internal/products"
	pkgerrors "github.com/DenysVerbitskyi/verba-store/pkg/errors"
	"github.com/DenysVerbitskyi/verba-store/pkg/logger"
	"github.com/DenysVerbitskyi/verba-store/pkg/pagination"
)

type createProductRequest struct {
	CategoryID  *string          `json:"category_id,omitempty"`
	Name        string           `json:"name" validate:"required"`
	Description *string          `json:"description,omitempty"`
	Price       decimal.Decimal  `json:"price"`
	Tier2Price  *decimal.Decimal `json:"wholesale_price_tier2,omitempty"`
	Tier3Price  *decimal.Decimal `json:"wholesale_price_tier3,omitempty"`
	IsSale      bool             `json:"is_sale"`
	Images      []string         `json:"images,omitempty"`
}

type updateProductRequest struct {
	CategoryID    *string          `json:"category_id,omitempty"`
	ClearCategory bool             `json:"clear_category,omitempty"`
	Name          *string          `json:"name,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	Tier2Price    *decimal.Decimal `json:"wholesale_price_tier2,omitempty"`
	ClearTier2    bool             `json:"clear_tier2,omitempty"`
	Tier3Price    *decimal.Decimal `json:"wholesale_price_tier3,omitempty"`
	ClearTier3    bool             `json:"clear_tier3,omitempty"`
	IsSale        *bool            `json:"is_sale,omitempty"`
	Images        []string         `json:"images,omitempty"`
}

func parseOptionalUUID(raw *string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category_id")
	}
	return &id, nil
}

func (r createProductRequest) toInput() (productsvc.CreateProductInput, error) {
	categoryID, err := parseOptionalUUID(r.CategoryID)
	if err != nil {
		return productsvc.CreateProductInput{}, err
	}
	return productsvc.CreateProductInput{
		CategoryID:  categoryID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Tier2Price:  r.Tier2Price,
		Tier3Price:  r.Tier3Price,
		IsSale:      r.IsSale,
		Images:      r.Images,
	}, nil
}

func (r updateProductRequest) toInput() (productsvc.UpdateProductInput, error) {
	categoryID, err := parseOptionalUUID(r.CategoryID)
	if err != nil {
		return productsvc.UpdateProductInput{}, err
	}
	return productsvc.UpdateProductInput{
		CategoryID:    categoryID,
		ClearCategory: r.ClearCategory,
		Name:          r.Name,
		Description:   r.Description,
		Price:         r.Price,
		Tier2Price:    r.Tier2Price,
		ClearTier2:    r.ClearTier2,
		Tier3Price:    r.Tier3Price,
		ClearTier3:    r.ClearTier3,
		IsSale:        r.IsSale,
		Images:        r.Images,
	}, nil
}

// ListProducts returns a catalog page. Supports category, sale and
// name-search filters plus cursor pagination.
func ListProducts(svc *productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		categoryID, err := validators.ParseQueryUUID(r, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		isSale, err := validators.ParseQueryBool(r, "is_sale")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		filters := productsvc.ListFilters{
			CategoryID: categoryID,
			IsSale:     isSale,
			Query:      strings.TrimSpace(r.URL.Query().Get("q")),
		}

		result, err := svc.ListProducts(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// GetProduct returns one product by id.
func GetProduct(svc *productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(strings.TrimSpace(chi.URLParam(r, "productId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// AdminCreateProduct adds a product with its tiered prices.
func AdminCreateProduct(svc *productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// AdminUpdateProduct applies a partial product edit.
func AdminUpdateProduct(svc *productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(strings.TrimSpace(chi.URLParam(r, "productId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// AdminDeleteProduct removes a product and cleans up its images.
func AdminDeleteProduct(svc *productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(strings.TrimSpace(chi.URLParam(r, "productId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
