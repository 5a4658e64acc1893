package orders

import (
	"context"
	"sync"
	"testing"

	"verlo/models"
	"verlo/ordernum"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCarts struct {
	mu      sync.Mutex
	cleared []string
}

func (f *fakeCarts) Clear(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, userID)
	return nil
}

type countingNotifier struct {
	mu    sync.Mutex
	count int
}

func (n *countingNotifier) OrderConfirmation(_ *models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.count++
}

func validRequest() CreateRequest {
	return CreateRequest{
		Items: []models.OrderItem{
			{ProductID: "p1", Name: "Linen Shirt", Size: "M", Quantity: 2, Price: 30},
		},
		ShippingAddress: models.Address{
			FullName:   "Ada Buyer",
			Line1:      "1 Main St",
			City:       "Springfield",
			PostalCode: "12345",
			Country:    "US",
		},
		Payment:      models.PaymentInfo{Method: "card", PaymentIntentID: "pi_test"},
		Shipping:     models.ShippingInfo{Method: "standard", Cost: 5},
		Subtotal:     60,
		Tax:          6,
		ShippingCost: 5,
		Total:        71,
	}
}

func newTestService(store Store) (*Service, *fakeCarts, *countingNotifier) {
	carts := &fakeCarts{}
	notifier := &countingNotifier{}
	alloc := ordernum.New("ORD", store)
	return NewService(store, alloc, carts, notifier), carts, notifier
}

func TestCreateValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CreateRequest)
		field  string
	}{
		{"empty items", func(r *CreateRequest) { r.Items = nil }, "items"},
		{"zero quantity", func(r *CreateRequest) { r.Items[0].Quantity = 0 }, "items"},
		{"missing product ref", func(r *CreateRequest) { r.Items[0].ProductID = "" }, "items"},
		{"missing shipping address", func(r *CreateRequest) { r.ShippingAddress = models.Address{} }, "shippingAddress"},
		{"missing total", func(r *CreateRequest) { r.Total = 0 }, "total"},
		{"totals mismatch", func(r *CreateRequest) { r.Total = 100 }, "total"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemStore()
			svc, carts, _ := newTestService(store)

			req := validRequest()
			tc.mutate(&req)

			_, err := svc.Create(context.Background(), "u1", req)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)

			// fail fast: nothing persisted, cart untouched
			assert.Empty(t, store.orders)
			assert.Empty(t, carts.cleared)
		})
	}
}

func TestCreateSuccess(t *testing.T) {
	store := newMemStore()
	svc, carts, notifier := newTestService(store)

	order, err := svc.Create(context.Background(), "u1", validRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Regexp(t, `^ORD-\d{8}-\d{6}$`, order.OrderNumber)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, models.PaymentPending, order.Payment.Status)

	// amount invariants
	assert.InDelta(t, order.Subtotal+order.Tax+order.ShippingCost, order.Total, 0.001)
	assert.InDelta(t, order.Total, order.Payment.Amount, 0.001)

	// billing defaults to shipping when omitted
	assert.Equal(t, order.ShippingAddress, order.BillingAddress)

	// cart cleared after persistence, confirmation fired
	assert.Equal(t, []string{"u1"}, carts.cleared)
	assert.Equal(t, 1, notifier.count)
}

func TestCreateKeepsExplicitBillingAddress(t *testing.T) {
	store := newMemStore()
	svc, _, _ := newTestService(store)

	req := validRequest()
	req.BillingAddress = &models.Address{
		FullName: "Billing Dept", Line1: "9 Invoice Rd", City: "Ledger",
		PostalCode: "99999", Country: "US",
	}

	order, err := svc.Create(context.Background(), "u1", req)
	require.NoError(t, err)
	assert.Equal(t, "9 Invoice Rd", order.BillingAddress.Line1)
	assert.NotEqual(t, order.ShippingAddress, order.BillingAddress)
}

func TestCreateRetriesAllocationOnDuplicate(t *testing.T) {
	store := newMemStore()
	store.failDup = 1
	svc, _, _ := newTestService(store)

	order, err := svc.Create(context.Background(), "u1", validRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, order.OrderNumber)
	assert.Len(t, store.orders, 1)
}

func TestCreateGivesUpAfterSecondDuplicate(t *testing.T) {
	store := newMemStore()
	store.failDup = 2
	svc, carts, _ := newTestService(store)

	_, err := svc.Create(context.Background(), "u1", validRequest())
	require.ErrorIs(t, err, ErrDuplicateNumber)
	assert.Empty(t, carts.cleared)
}

func TestConcurrentCreatesAllocateDistinctNumbers(t *testing.T) {
	store := newMemStore()
	svc, _, _ := newTestService(store)

	const n = 50
	numbers := make(chan string, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order, err := svc.Create(context.Background(), "u1", validRequest())
			if err != nil {
				t.Error(err)
				return
			}
			numbers <- order.OrderNumber
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool)
	for number := range numbers {
		assert.Falsef(t, seen[number], "order number %s allocated twice", number)
		seen[number] = true
	}
	assert.Len(t, seen, n)
}
