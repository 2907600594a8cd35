package reconcile

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Roxxy17/storefront-gateway/pkg/commerce"
	"github.com/Roxxy17/storefront-gateway/pkg/enums"
	"github.com/Roxxy17/storefront-gateway/pkg/logger"
	"github.com/Roxxy17/storefront-gateway/pkg/pagination"
	"github.com/Roxxy17/storefront-gateway/pkg/redis"
)

type stubFetcher struct {
	orders []commerce.Order
	calls  int
	err    error
}

func (s *stubFetcher) GetOrders(ctx context.Context, token string, params commerce.ListOrdersParams) (*commerce.OrderPage, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &commerce.OrderPage{Orders: s.orders}, nil
}

type stubCache struct {
	data map[string]string
}

func newStubCache() *stubCache {
	return &stubCache{data: make(map[string]string)}
}

func (s *stubCache) Get(ctx context.Context, key string) (string, error) {
	value, ok := s.data[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (s *stubCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	s.data[key] = value.(string)
	return nil
}

func (s *stubCache) OrderCacheKey(scope string) string {
	return "sg:order_cache:" + scope
}

func groupID(id string) *string { return &id }

func amount(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func sampleOrders() []commerce.Order {
	return []commerce.Order{
		{
			ID: "ord-1", Code: "TRX-001", OutletID: "out-1", OutletName: "Toko Kopi",
			OutletLatitude: "-7.79", OutletLongitude: "110.36",
			TotalAmount: amount(36000), PaymentMethod: "qris", PaymentGroupID: groupID("grp-1"),
			Status: "paid", PickupStatus: "process",
			CreatedAt: time.Date(2026, 8, 20, 9, 15, 0, 0, time.UTC),
			Items: []commerce.OrderItem{
				{Name: "Kopi Susu", Quantity: 2, Price: amount(18000)},
			},
		},
		{
			ID: "ord-2", Code: "TRX-002", OutletID: "out-2", OutletName: "Toko Roti",
			TotalAmount: amount(12000), PaymentMethod: "qris", PaymentGroupID: groupID("grp-1"),
			Status: "paid", PickupStatus: "ready",
			CreatedAt: time.Date(2026, 8, 20, 9, 15, 1, 0, time.UTC),
			Items: []commerce.OrderItem{
				{Name: "Roti Bakar", Quantity: 1, Price: amount(12000)},
			},
		},
		{
			ID: "ord-3", Code: "TRX-003", OutletID: "out-1", OutletName: "Toko Kopi",
			TotalAmount: amount(5000), PaymentMethod: "transfer", PaymentGroupID: nil,
			Status: "dikirim kurir", PickupStatus: "",
			CreatedAt: time.Date(2026, 8, 19, 18, 0, 0, 0, time.UTC),
			Items: []commerce.OrderItem{
				{Name: "Es Teh", Quantity: 1, Price: amount(5000)},
			},
		},
	}
}

func newTestService(t *testing.T, fetcher orderFetcher, cache orderCache) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "reconcile-test", Output: io.Discard})
	svc, err := NewService(fetcher, cache, logg, 15*time.Second)
	require.NoError(t, err)
	return svc
}

func TestSummarizeByGroupUnifiesSiblings(t *testing.T) {
	svc := newTestService(t, &stubFetcher{orders: sampleOrders()}, nil)

	summary, err := svc.Summarize(context.Background(), "buyer-token", "grp-1")
	require.NoError(t, err)

	require.Len(t, summary.Orders, 2)
	assert.Equal(t, enums.OrderStatusPaid, summary.Status, "unified status comes from the first sibling")
	assert.True(t, summary.TotalAmount.Equal(amount(48000)), "total must sum sibling totals, got %s", summary.TotalAmount)
	assert.Equal(t, 3, summary.ItemCount, "item count must sum quantities")
	assert.Equal(t, "qris", summary.PaymentMethod)
	assert.Equal(t, enums.PickupStatusReady, summary.Orders[1].PickupStatus, "pickup status stays per order")
}

func TestSummarizeByOrderIDFallsBack(t *testing.T) {
	svc := newTestService(t, &stubFetcher{orders: sampleOrders()}, nil)

	summary, err := svc.Summarize(context.Background(), "buyer-token", "ord-3")
	require.NoError(t, err)

	require.Len(t, summary.Orders, 1)
	assert.Equal(t, enums.OrderStatusUnknown, summary.Status, "unrecognized upstream status must degrade to unknown")
	assert.Equal(t, "Status Tidak Diketahui", summary.StatusLabel)
	assert.Equal(t, enums.PickupStatusUnknown, summary.Orders[0].PickupStatus, "blank pickup status must degrade to unknown")
}

func TestSummarizeEmptyMatchIsNotAnError(t *testing.T) {
	svc := newTestService(t, &stubFetcher{orders: sampleOrders()}, nil)

	summary, err := svc.Summarize(context.Background(), "buyer-token", "grp-nope")
	require.NoError(t, err)

	assert.Empty(t, summary.Orders)
	assert.Equal(t, enums.OrderStatusUnknown, summary.Status, "empty summary carries unknown status")
	assert.True(t, summary.TotalAmount.Equal(decimal.Zero), "empty summary total must be zero, got %s", summary.TotalAmount)
}

func TestMatchPrefersGroupOverOrderID(t *testing.T) {
	orders := sampleOrders()
	// An order whose id collides with a group id must lose to the group.
	orders = append(orders, commerce.Order{
		ID: "grp-1", Code: "TRX-099", OutletID: "out-9",
		TotalAmount: amount(1000), Status: "pending",
		CreatedAt: time.Date(2026, 8, 18, 8, 0, 0, 0, time.UTC),
	})
	svc := newTestService(t, &stubFetcher{orders: orders}, nil)

	matched, err := svc.Match(context.Background(), "buyer-token", "grp-1")
	require.NoError(t, err)
	assert.Len(t, matched, 2, "group match must win")
}

func TestFetchAllUsesCache(t *testing.T) {
	fetcher := &stubFetcher{orders: sampleOrders()}
	cache := newStubCache()
	svc := newTestService(t, fetcher, cache)

	_, err := svc.Summarize(context.Background(), "buyer-token", "grp-1")
	require.NoError(t, err)
	_, err = svc.Summarize(context.Background(), "buyer-token", "ord-3")
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.calls, "second lookup must hit the cache")
}

func TestListOrdersPaginates(t *testing.T) {
	svc := newTestService(t, &stubFetcher{orders: sampleOrders()}, nil)

	first, err := svc.ListOrders(context.Background(), "buyer-token", pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Orders, 2)
	assert.Equal(t, "ord-2", first.Orders[0].ID, "history must be newest first")
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.ListOrders(context.Background(), "buyer-token", pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Orders, 1)
	assert.Equal(t, "ord-3", second.Orders[0].ID)
	assert.Empty(t, second.NextCursor, "last page must not carry a cursor")
}
