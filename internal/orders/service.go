package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/DenysVerbitskyi/verba-store/internal/pricing"
	"github.com/DenysVerbitskyi/verba-store/pkg/db/models"
	"github.com/DenysVerbitskyi/verba-store/pkg/enums"
	pkgerrors "github.com/DenysVerbitskyi/verba-store/pkg/errors"
	"github.com/DenysVerbitskyi/verba-store/pkg/logger"
	"github.com/DenysVerbitskyi/verba-store/pkg/metrics"
	"github.com/DenysVerbitskyi/verba-store/pkg/pagination"
)

// ProductLoader fetches the products referenced at checkout.
type ProductLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Notifier tells the shop admin about a new order. Best effort only.
type Notifier interface {
	NotifyNewOrder(ctx context.Context, order OrderDTO) error
}

// Statuses an order may move to from its current one.
var validTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusNew:        {enums.OrderStatusProcessing, enums.OrderStatusCanceled},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped, enums.OrderStatusCanceled},
	enums.OrderStatusShipped:    {enums.OrderStatusCompleted, enums.OrderStatusCanceled},
}

// ServiceParams groups dependencies for the order service.
type ServiceParams struct {
	Repo     Repository
	Products ProductLoader
	Tx       TxRunner
	Notifier Notifier
	Metrics  *metrics.StoreMetrics
	Logger   *logger.Logger
}

// Service handles checkout and order management.
type Service struct {
	repo     Repository
	products ProductLoader
	tx       TxRunner
	notifier Notifier
	metrics  *metrics.StoreMetrics
	logg     *logger.Logger
}

// NewService builds an order service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Products == nil {
		return nil, errors.New("product loader is required")
	}
	if params.Tx == nil {
		return nil, errors.New("tx runner is required")
	}
	return &Service{
		repo:     params.Repo,
		products: params.Products,
		tx:       params.Tx,
		notifier: params.Notifier,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

// Checkout prices the submitted items and persists the order with its
// line snapshots in one transaction. Prices recorded on the lines are
// authoritative from then on; later catalog edits never change an order.
func (s *Service) Checkout(ctx context.Context, input CheckoutInput) (*OrderDTO, error) {
	name := strings.TrimSpace(input.CustomerName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	email := strings.ToLower(strings.TrimSpace(input.CustomerEmail))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no items")
	}

	merged, order, err := mergeCheckoutItems(input.Items)
	if err != nil {
		return nil, err
	}

	byID, err := s.loadProducts(ctx, order)
	if err != nil {
		return nil, err
	}

	items := make([]models.OrderLineItem, 0, len(order))
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
		productID := product.ID
		items = append(items, models.OrderLineItem{
			ProductID:          &productID,
			Name:               product.Name,
			UnitPrice:          quote.UnitPrice,
			EffectiveUnitPrice: quote.EffectiveUnitPrice,
			Quantity:           quote.Quantity,
			LineTotal:          quote.LineTotal,
		})
	}

	record := &models.Order{
		CustomerName:    name,
		CustomerPhone:   input.CustomerPhone,
		CustomerEmail:   email,
		DeliveryAddress: input.DeliveryAddress,
		Status:          enums.OrderStatusNew,
		Items:           items,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, record)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	s.metrics.IncOrderPlaced()

	dto := toDTO(record)
	if s.notifier != nil {
		if err := s.notifier.NotifyNewOrder(ctx, dto); err != nil {
			s.metrics.IncMailerFailure("order_notification")
			if s.logg != nil {
				s.logg.Error(ctx, "send order notification", err)
			}
		}
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithCustomerEmail(ctx, email), "order placed")
	}
	return &dto, nil
}

func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toDTO(order)
	return &dto, nil
}

func (s *Service) ListOrders(ctx context.Context, params pagination.Params, filters ListFilters) (*ListResult, error) {
	rows, nextCursor, err := s.repo.List(ctx, params, filters)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	dtos := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, toDTO(&rows[i]))
	}
	return &ListResult{Orders: dtos, NextCursor: nextCursor}, nil
}

// UpdateStatus advances an order along new → processing → shipped →
// completed, with canceled reachable from every non-terminal state.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown status %q", status))
	}

	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == status {
		dto := toDTO(order)
		return &dto, nil
	}
	if !transitionAllowed(order.Status, status) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, status))
	}

	affected, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	order.Status = status
	dto := toDTO(order)
	return &dto, nil
}

// DeleteOrder removes an order outright. Meant for admin cleanup of
// spam submissions; normal flow ends orders through canceled/completed.
func (s *Service) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return nil
}

// History returns every order placed with the verified email, newest
// first, plus lifetime spend and savings.
func (s *Service) History(ctx context.Context, email string) (*HistoryResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	rows, err := s.repo.ListByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders by email")
	}

	result := &HistoryResult{
		Orders:       make([]OrderDTO, 0, len(rows)),
		TotalSpent:   decimal.Zero,
		TotalSavings: decimal.Zero,
	}
	for i := range rows {
		dto := toDTO(&rows[i])
		result.Orders = append(result.Orders, dto)
		result.TotalSpent = result.TotalSpent.Add(dto.Total)
		result.TotalSavings = result.TotalSavings.Add(dto.Savings)
	}
	result.OrderCount = len(result.Orders)
	return result, nil
}

func (s *Service) findOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
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

func mergeCheckoutItems(items []CheckoutItem) (map[uuid.UUID]int, []uuid.UUID, error) {
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

func transitionAllowed(from, to enums.OrderStatus) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
