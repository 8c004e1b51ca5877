package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/DenysVerbitskyi/verba-store/pkg/db/models"
	"github.com/DenysVerbitskyi/verba-store/pkg/enums"
	pkgerrors "github.com/DenysVerbitskyi/verba-store/pkg/errors"
	"github.com/DenysVerbitskyi/verba-store/pkg/pagination"
)

type stubRepo struct {
	orders      map[uuid.UUID]*models.Order
	created     *models.Order
	byEmail     []models.Order
	inTxCreates int
}

func newStubRepo() *stubRepo {
	return &stubRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository {
	s.inTxCreates++
	return s
}

func (s *stubRepo) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	s.created = order
	s.orders[order.ID] = order
	return nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubRepo) List(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.Order, string, error) {
	var rows []models.Order
	for _, order := range s.orders {
		rows = append(rows, *order)
	}
	return rows, "", nil
}

func (s *stubRepo) ListByEmail(ctx context.Context, email string) ([]models.Order, error) {
	return s.byEmail, nil
}

func (s *stubRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (int64, error) {
	order, ok := s.orders[id]
	if !ok {
		return 0, nil
	}
	order.Status = status
	return 1, nil
}

func (s *stubRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	if _, ok := s.orders[id]; !ok {
		return 0, nil
	}
	delete(s.orders, id)
	return 1, nil
}

type stubLoader struct {
	products []models.Product
}

func (s *stubLoader) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	return s.products, nil
}

type stubTx struct {
	calls int
}

func (s *stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	s.calls++
	return fn(nil)
}

type stubNotifier struct {
	notified []OrderDTO
	fail     bool
}

func (s *stubNotifier) NotifyNewOrder(ctx context.Context, order OrderDTO) error {
	s.notified = append(s.notified, order)
	if s.fail {
		return context.DeadlineExceeded
	}
	return nil
}

func decPtrOf(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func newTestService(t *testing.T, repo *stubRepo, loader *stubLoader, notifier Notifier) (*Service, *stubTx) {
	t.Helper()
	tx := &stubTx{}
	svc, err := NewService(ServiceParams{
		Repo:     repo,
		Products: loader,
		Tx:       tx,
		Notifier: notifier,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, tx
}

func TestCheckoutSnapshotsTierPricing(t *testing.T) {
	vase := models.Product{
		ID:         uuid.New(),
		Name:       "Vase",
		Price:      decimal.NewFromInt(1000),
		Tier2Price: decPtrOf(970),
		Tier3Price: decPtrOf(940),
	}
	repo := newStubRepo()
	notifier := &stubNotifier{}
	svc, tx := newTestService(t, repo, &stubLoader{products: []models.Product{vase}}, notifier)

	dto, err := svc.Checkout(context.Background(), CheckoutInput{
		CustomerName:  "Olena",
		CustomerEmail: "Olena@Example.com",
		Items:         []CheckoutItem{{ProductID: vase.ID, Quantity: 15}},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if tx.calls != 1 {
		t.Fatalf("tx calls = %d, want 1", tx.calls)
	}
	if dto.CustomerEmail != "olena@example.com" {
		t.Fatalf("email = %q, want normalized", dto.CustomerEmail)
	}
	if dto.Status != enums.OrderStatusNew {
		t.Fatalf("status = %s, want new", dto.Status)
	}
	if len(dto.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(dto.Items))
	}
	item := dto.Items[0]
	if !item.EffectiveUnitPrice.Equal(decimal.NewFromInt(940)) {
		t.Fatalf("effective unit price = %s, want 940", item.EffectiveUnitPrice)
	}
	if !dto.Total.Equal(decimal.NewFromInt(14100)) {
		t.Fatalf("total = %s, want 14100", dto.Total)
	}
	if !dto.Savings.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("savings = %s, want 900", dto.Savings)
	}
	if len(notifier.notified) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifier.notified))
	}
}

func TestCheckoutMergesDuplicateLines(t *testing.T) {
	vase := models.Product{
		ID:         uuid.New(),
		Name:       "Vase",
		Price:      decimal.NewFromInt(1000),
		Tier2Price: decPtrOf(970),
	}
	repo := newStubRepo()
	svc, _ := newTestService(t, repo, &stubLoader{products: []models.Product{vase}}, nil)

	dto, err := svc.Checkout(context.Background(), CheckoutInput{
		CustomerName:  "Olena",
		CustomerEmail: "olena@example.com",
		Items: []CheckoutItem{
			{ProductID: vase.ID, Quantity: 2},
			{ProductID: vase.ID, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if len(dto.Items) != 1 || dto.Items[0].Quantity != 5 {
		t.Fatalf("expected one merged line of 5, got %+v", dto.Items)
	}
	if !dto.Items[0].EffectiveUnitPrice.Equal(decimal.NewFromInt(970)) {
		t.Fatalf("merged quantity should reach tier2, got %s", dto.Items[0].EffectiveUnitPrice)
	}
}

func TestCheckoutNotifierFailureDoesNotFailOrder(t *testing.T) {
	vase := models.Product{ID: uuid.New(), Name: "Vase", Price: decimal.NewFromInt(100)}
	repo := newStubRepo()
	svc, _ := newTestService(t, repo, &stubLoader{products: []models.Product{vase}}, &stubNotifier{fail: true})

	_, err := svc.Checkout(context.Background(), CheckoutInput{
		CustomerName:  "Olena",
		CustomerEmail: "olena@example.com",
		Items:         []CheckoutItem{{ProductID: vase.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("notification failure must not surface: %v", err)
	}
	if repo.created == nil {
		t.Fatal("order should be stored")
	}
}

func TestCheckoutUnknownProduct(t *testing.T) {
	svc, _ := newTestService(t, newStubRepo(), &stubLoader{}, nil)

	_, err := svc.Checkout(context.Background(), CheckoutInput{
		CustomerName:  "Olena",
		CustomerEmail: "olena@example.com",
		Items:         []CheckoutItem{{ProductID: uuid.New(), Quantity: 1}},
	})
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestCheckoutValidatesInput(t *testing.T) {
	svc, _ := newTestService(t, newStubRepo(), &stubLoader{}, nil)

	cases := []struct {
		name  string
		input CheckoutInput
	}{
		{"missing name", CheckoutInput{CustomerEmail: "a@b.c", Items: []CheckoutItem{{ProductID: uuid.New(), Quantity: 1}}}},
		{"missing email", CheckoutInput{CustomerName: "Olena", Items: []CheckoutItem{{ProductID: uuid.New(), Quantity: 1}}}},
		{"no items", CheckoutInput{CustomerName: "Olena", CustomerEmail: "a@b.c"}},
		{"zero quantity", CheckoutInput{CustomerName: "Olena", CustomerEmail: "a@b.c", Items: []CheckoutItem{{ProductID: uuid.New(), Quantity: 0}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Checkout(context.Background(), tc.input)
			if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	cases := []struct {
		name    string
		from    enums.OrderStatus
		to      enums.OrderStatus
		wantErr pkgerrors.Code
	}{
		{"new to processing", enums.OrderStatusNew, enums.OrderStatusProcessing, ""},
		{"new to canceled", enums.OrderStatusNew, enums.OrderStatusCanceled, ""},
		{"processing to shipped", enums.OrderStatusProcessing, enums.OrderStatusShipped, ""},
		{"shipped to completed", enums.OrderStatusShipped, enums.OrderStatusCompleted, ""},
		{"new to completed skips steps", enums.OrderStatusNew, enums.OrderStatusCompleted, pkgerrors.CodeConflict},
		{"completed is terminal", enums.OrderStatusCompleted, enums.OrderStatusProcessing, pkgerrors.CodeConflict},
		{"canceled is terminal", enums.OrderStatusCanceled, enums.OrderStatusNew, pkgerrors.CodeConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newStubRepo()
			order := &models.Order{ID: uuid.New(), CustomerName: "Olena", CustomerEmail: "a@b.c", Status: tc.from}
			repo.orders[order.ID] = order
			svc, _ := newTestService(t, repo, &stubLoader{}, nil)

			dto, err := svc.UpdateStatus(context.Background(), order.ID, tc.to)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("update status: %v", err)
				}
				if dto.Status != tc.to {
					t.Fatalf("status = %s, want %s", dto.Status, tc.to)
				}
				return
			}
			if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != tc.wantErr {
				t.Fatalf("expected %s error, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestUpdateStatusSameStatusIsNoop(t *testing.T) {
	repo := newStubRepo()
	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusNew}
	repo.orders[order.ID] = order
	svc, _ := newTestService(t, repo, &stubLoader{}, nil)

	dto, err := svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatusNew)
	if err != nil {
		t.Fatalf("same-status update: %v", err)
	}
	if dto.Status != enums.OrderStatusNew {
		t.Fatalf("status = %s", dto.Status)
	}
}

func TestHistoryAggregatesTotals(t *testing.T) {
	repo := newStubRepo()
	repo.byEmail = []models.Order{
		{
			ID: uuid.New(),
			Items: []models.OrderLineItem{
				{UnitPrice: decimal.NewFromInt(1000), EffectiveUnitPrice: decimal.NewFromInt(970), Quantity: 5, LineTotal: decimal.NewFromInt(4850)},
			},
		},
		{
			ID: uuid.New(),
			Items: []models.OrderLineItem{
				{UnitPrice: decimal.NewFromInt(50), EffectiveUnitPrice: decimal.NewFromInt(50), Quantity: 2, LineTotal: decimal.NewFromInt(100)},
			},
		},
	}
	svc, _ := newTestService(t, repo, &stubLoader{}, nil)

	history, err := svc.History(context.Background(), "Olena@Example.com")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if history.OrderCount != 2 {
		t.Fatalf("order count = %d, want 2", history.OrderCount)
	}
	if !history.TotalSpent.Equal(decimal.NewFromInt(4950)) {
		t.Fatalf("total spent = %s, want 4950", history.TotalSpent)
	}
	if !history.TotalSavings.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("total savings = %s, want 150", history.TotalSavings)
	}
}

func TestDeleteOrderNotFound(t *testing.T) {
	svc, _ := newTestService(t, newStubRepo(), &stubLoader{}, nil)

	err := svc.DeleteOrder(context.Background(), uuid.New())
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}
