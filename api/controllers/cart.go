package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Roxxy17/storefront-gateway/api/responses"
	"github.com/Roxxy17/storefront-gateway/api/validators"
	cartsvc "github.com/Roxxy17/storefront-gateway/internal/cart"
	pkgerrors "github.com/Roxxy17/storefront-gateway/pkg/errors"
	"github.com/Roxxy17/storefront-gateway/pkg/logger"
)

// Cart returns the buyer's cart grouped by outlet.
func Cart(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		token, err := validators.BearerToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.GetCart(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(cart))
	}
}

type cartResponse struct {
	Groups   []cartGroupResponse `json:"groups"`
	Subtotal decimal.Decimal     `json:"subtotal"`
}

type cartGroupResponse struct {
	OutletID   string             `json:"outlet_id"`
	OutletName string             `json:"outlet_name"`
	Items      []cartItemResponse `json:"items"`
}

type cartItemResponse struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	ImageURL      string           `json:"image_url,omitempty"`
	Quantity      int              `json:"quantity"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	Stock         int              `json:"stock"`
	TotalPrice    decimal.Decimal  `json:"total_price"`
}

func newCartResponse(cart *cartsvc.Cart) cartResponse {
	if cart == nil {
		return cartResponse{Groups: []cartGroupResponse{}, Subtotal: decimal.Zero}
	}

	groups := make([]cartGroupResponse, 0, len(cart.Groups))
	for _, group := range cart.Groups {
		items := make([]cartItemResponse, 0, len(group.Items))
		for _, item := range group.Items {
			items = append(items, cartItemResponse{
				ID:            item.ID,
				Name:          item.Name,
				ImageURL:      item.ImageURL,
				Quantity:      item.Quantity,
				Price:         item.Price,
				OriginalPrice: item.OriginalPrice,
				Stock:         item.Stock,
				TotalPrice:    item.TotalPrice,
			})
		}
		groups = append(groups, cartGroupResponse{
			OutletID:   group.OutletID,
			OutletName: group.OutletName,
			Items:      items,
		})
	}

	return cartResponse{Groups: groups, Subtotal: cart.Subtotal}
}
