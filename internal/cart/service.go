package cart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Roxxy17/storefront-gateway/pkg/commerce"
	pkgerrors "github.com/Roxxy17/storefront-gateway/pkg/errors"
)

type cartFetcher interface {
	GetCartItems(ctx context.Context, token string) ([]commerce.CartItem, error)
}

// LineItem is one purchasable cart line with its derived total.
type LineItem struct {
	ID               string
	ProductVariantID string
	OutletID         string
	OutletName       string
	Name             string
	ImageURL         string
	Quantity         int
	Price            decimal.Decimal
	OriginalPrice    *decimal.Decimal
	Stock            int
	TotalPrice       decimal.Decimal
}

// OutletGroup keeps the lines belonging to one outlet, in the order
// the outlet was first seen in the cart.
type OutletGroup struct {
	OutletID   string
	OutletName string
	Items      []LineItem
}

// Cart is the buyer's cart with per-outlet grouping and totals.
type Cart struct {
	Items    []LineItem
	Groups   []OutletGroup
	Subtotal decimal.Decimal
}

// Service exposes the buyer's cart as the gateway sees it.
type Service interface {
	GetCart(ctx context.Context, token string) (*Cart, error)
}

type service struct {
	commerce cartFetcher
}

// NewService builds the cart service.
func NewService(fetcher cartFetcher) (Service, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("commerce client required")
	}
	return &service{commerce: fetcher}, nil
}

func (s *service) GetCart(ctx context.Context, token string) (*Cart, error) {
	upstream, err := s.commerce.GetCartItems(ctx, token)
	if err != nil {
		return nil, err
	}

	items := make([]LineItem, 0, len(upstream))
	subtotal := decimal.Zero
	for _, raw := range upstream {
		item := fromUpstream(raw)
		items = append(items, item)
		subtotal = subtotal.Add(item.TotalPrice)
	}

	return &Cart{
		Items:    items,
		Groups:   groupByOutlet(items),
		Subtotal: subtotal,
	}, nil
}

// Select filters items to the requested line ids, preserving cart
// order. An empty result is a conflict: the buyer's selection no
// longer exists in the cart.
func Select(items []LineItem, ids []string) ([]LineItem, error) {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	selected := make([]LineItem, 0, len(ids))
	for _, item := range items {
		if _, ok := wanted[item.ID]; ok {
			selected = append(selected, item)
		}
	}

	if len(selected) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeSelectionEmpty, "selected items are no longer in the cart")
	}
	return selected, nil
}

// WithQuantity returns a copy of the line at the new quantity, with
// the total recomputed. Quantity is clamped to [1, stock]; a zero
// stock ceiling means the upstream did not report one.
func (l LineItem) WithQuantity(quantity int) LineItem {
	if quantity < 1 {
		quantity = 1
	}
	if l.Stock > 0 && quantity > l.Stock {
		quantity = l.Stock
	}
	l.Quantity = quantity
	l.TotalPrice = l.Price.Mul(decimal.NewFromInt(int64(quantity)))
	return l
}

func fromUpstream(raw commerce.CartItem) LineItem {
	quantity := raw.Quantity
	if quantity < 1 {
		quantity = 1
	}
	return LineItem{
		ID:               raw.ID,
		ProductVariantID: raw.ProductVariantID,
		OutletID:         raw.OutletID,
		OutletName:       raw.OutletName,
		Name:             raw.Name,
		ImageURL:         raw.ImageURL,
		Quantity:         quantity,
		Price:            raw.Price,
		OriginalPrice:    raw.OriginalPrice,
		Stock:            raw.Stock,
		TotalPrice:       raw.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

func groupByOutlet(items []LineItem) []OutletGroup {
	index := make(map[string]int, len(items))
	groups := make([]OutletGroup, 0, len(items))
	for _, item := range items {
		pos, seen := index[item.OutletID]
		if !seen {
			pos = len(groups)
			index[item.OutletID] = pos
			groups = append(groups, OutletGroup{
				OutletID:   item.OutletID,
				OutletName: item.OutletName,
			})
		}
		groups[pos].Items = append(groups[pos].Items, item)
	}
	return groups
}
