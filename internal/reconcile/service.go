package reconcile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Roxxy17/storefront-gateway/pkg/commerce"
	"github.com/Roxxy17/storefront-gateway/pkg/enums"
	pkgerrors "github.com/Roxxy17/storefront-gateway/pkg/errors"
	"github.com/Roxxy17/storefront-gateway/pkg/logger"
	"github.com/Roxxy17/storefront-gateway/pkg/pagination"
	"github.com/Roxxy17/storefront-gateway/pkg/redis"
	"github.com/Roxxy17/storefront-gateway/pkg/types"
)

type orderFetcher interface {
	GetOrders(ctx context.Context, token string, params commerce.ListOrdersParams) (*commerce.OrderPage, error)
}

type orderCache interface {
	Get(context.Context, string) (string, error)
	Set(context.Context, string, any, time.Duration) error
	OrderCacheKey(scope string) string
}

// Item is a denormalized order line snapshot.
type Item struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
	ImageURL string
}

// Order is one per-outlet order after status normalization.
type Order struct {
	ID             string
	Code           string
	OutletID       string
	OutletName     string
	OutletPoint    types.GeoPoint
	Items          []Item
	TotalAmount    decimal.Decimal
	PaymentMethod  string
	PaymentGroupID *string
	Status         enums.OrderStatus
	StatusLabel    string
	PickupStatus   enums.PickupStatus
	CreatedAt      time.Time
}

// Summary unifies the sibling orders behind one transaction reference.
type Summary struct {
	Reference     string
	Orders        []Order
	Status        enums.OrderStatus
	StatusLabel   string
	PaymentMethod string
	TotalAmount   decimal.Decimal
	ItemCount     int
	TransactedAt  time.Time
}

// Page is one page of the buyer's order history.
type Page struct {
	Orders     []Order
	NextCursor string
}

// Service is the order reconciliation view.
type Service interface {
	// Summarize unifies the orders matching ref, which may be a
	// payment group id or a single order id. An empty match yields an
	// empty summary, not an error.
	Summarize(ctx context.Context, token, ref string) (*Summary, error)
	// Match returns the orders behind ref without summarizing them.
	Match(ctx context.Context, token, ref string) ([]Order, error)
	// ListOrders pages through the buyer's order history.
	ListOrders(ctx context.Context, token string, params pagination.Params) (*Page, error)
}

type service struct {
	commerce orderFetcher
	cache    orderCache
	log      *logger.Logger
	cacheTTL time.Duration
}

// NewService builds the reconciliation service.
func NewService(fetcher orderFetcher, cache orderCache, logg *logger.Logger, cacheTTL time.Duration) (Service, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("commerce client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cacheTTL <= 0 {
		cacheTTL = 15 * time.Second
	}
	return &service{
		commerce: fetcher,
		cache:    cache,
		log:      logg,
		cacheTTL: cacheTTL,
	}, nil
}

func (s *service) Summarize(ctx context.Context, token, ref string) (*Summary, error) {
	matched, err := s.Match(ctx, token, ref)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Reference: ref, Orders: matched, Status: enums.OrderStatusUnknown}
	summary.StatusLabel = summary.Status.Label()
	if len(matched) == 0 {
		return summary, nil
	}

	// The first sibling speaks for the group. Siblings share one
	// payment, so a divergence here means the upstream is mid-update;
	// the next refetch converges.
	first := matched[0]
	summary.Status = first.Status
	summary.StatusLabel = first.StatusLabel
	summary.PaymentMethod = first.PaymentMethod
	summary.TransactedAt = first.CreatedAt

	total := decimal.Zero
	count := 0
	for _, order := range matched {
		total = total.Add(order.TotalAmount)
		for _, item := range order.Items {
			count += item.Quantity
		}
	}
	summary.TotalAmount = total
	summary.ItemCount = count

	return summary, nil
}

func (s *service) Match(ctx context.Context, token, ref string) ([]Order, error) {
	if ref == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction reference required")
	}

	orders, err := s.fetchAll(ctx, token)
	if err != nil {
		return nil, err
	}

	byGroup := make([]Order, 0, len(orders))
	for _, order := range orders {
		if order.PaymentGroupID != nil && *order.PaymentGroupID == ref {
			byGroup = append(byGroup, order)
		}
	}
	if len(byGroup) > 0 {
		return byGroup, nil
	}

	for _, order := range orders {
		if order.ID == ref || order.Code == ref {
			return []Order{order}, nil
		}
	}

	return nil, nil
}

func (s *service) ListOrders(ctx context.Context, token string, params pagination.Params) (*Page, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	orders, err := s.fetchAll(ctx, token)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	start := 0
	if cursor != nil {
		for i, order := range orders {
			if order.ID == cursor.OrderID {
				start = i + 1
				break
			}
		}
	}

	limit := pagination.NormalizeLimit(params.Limit)
	page := &Page{}
	end := start + limit
	if end > len(orders) {
		end = len(orders)
	}
	page.Orders = orders[start:end]

	if end < len(orders) && len(page.Orders) > 0 {
		last := page.Orders[len(page.Orders)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			OrderID:   last.ID,
		})
	}

	return page, nil
}

// fetchAll drains the upstream order pages through a short-lived
// cache so sibling lookups inside one screen refresh reuse one fetch.
func (s *service) fetchAll(ctx context.Context, token string) ([]Order, error) {
	cacheKey := ""
	if s.cache != nil {
		cacheKey = s.cache.OrderCacheKey(cacheScope(token))
		if raw, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cached []Order
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		} else if err != redis.Nil {
			s.log.Warn(ctx, "order cache read failed")
		}
	}

	var all []Order
	cursor := ""
	for {
		page, err := s.commerce.GetOrders(ctx, token, commerce.ListOrdersParams{
			Cursor: cursor,
			Limit:  pagination.MaxLimit,
		})
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Orders {
			all = append(all, fromUpstream(raw))
		}
		if page.NextCursor == "" || len(page.Orders) == 0 {
			break
		}
		cursor = page.NextCursor
	}

	if s.cache != nil && cacheKey != "" {
		if payload, err := json.Marshal(all); err == nil {
			if err := s.cache.Set(ctx, cacheKey, string(payload), s.cacheTTL); err != nil {
				s.log.Warn(ctx, "order cache write failed")
			}
		}
	}

	return all, nil
}

func fromUpstream(raw commerce.Order) Order {
	items := make([]Item, 0, len(raw.Items))
	for _, item := range raw.Items {
		items = append(items, Item{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
			ImageURL: item.ImageURL,
		})
	}

	status := enums.ParseOrderStatus(raw.Status)
	return Order{
		ID:             raw.ID,
		Code:           raw.Code,
		OutletID:       raw.OutletID,
		OutletName:     raw.OutletName,
		OutletPoint:    types.ParseGeoPoint(raw.OutletLatitude, raw.OutletLongitude),
		Items:          items,
		TotalAmount:    raw.TotalAmount,
		PaymentMethod:  raw.PaymentMethod,
		PaymentGroupID: raw.PaymentGroupID,
		Status:         status,
		StatusLabel:    status.Label(),
		PickupStatus:   enums.ParsePickupStatus(raw.PickupStatus),
		CreatedAt:      raw.CreatedAt,
	}
}

// cacheScope keys the cache by a digest of the bearer token so two
// buyers never share an entry and the token itself never lands in
// redis.
func cacheScope(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}
