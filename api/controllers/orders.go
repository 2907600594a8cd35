package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Roxxy17/storefront-gateway/api/responses"
	"github.com/Roxxy17/storefront-gateway/api/validators"
	"github.com/Roxxy17/storefront-gateway/internal/reconcile"
	pkgerrors "github.com/Roxxy17/storefront-gateway/pkg/errors"
	"github.com/Roxxy17/storefront-gateway/pkg/logger"
	"github.com/Roxxy17/storefront-gateway/pkg/pagination"
)

// Orders pages through the buyer's order history, newest first.
func Orders(svc reconcile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		token, err := validators.BearerToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListOrders(r.Context(), token, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderPageResponse(page))
	}
}

// Transaction returns the unified view of the orders behind one
// transaction reference (payment group id or order id).
func Transaction(svc reconcile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		token, err := validators.BearerToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Summarize(r.Context(), token, chi.URLParam(r, "ref"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newSummaryResponse(summary))
	}
}

type orderPageResponse struct {
	Orders     []orderResponse `json:"orders"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

type orderResponse struct {
	ID             string              `json:"id"`
	Code           string              `json:"code"`
	OutletID       string              `json:"outlet_id"`
	OutletName     string              `json:"outlet_name"`
	Items          []orderItemResponse `json:"items"`
	TotalAmount    decimal.Decimal     `json:"total_amount"`
	PaymentMethod  string              `json:"payment_method,omitempty"`
	PaymentGroupID *string             `json:"payment_group_id,omitempty"`
	Status         string              `json:"status"`
	StatusLabel    string              `json:"status_label"`
	PickupStatus   string              `json:"pickup_status"`
	PickupLabel    string              `json:"pickup_label"`
	CreatedAt      time.Time           `json:"created_at"`
}

type orderItemResponse struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"image_url,omitempty"`
}

type summaryResponse struct {
	Reference     string          `json:"reference"`
	Status        string          `json:"status"`
	StatusLabel   string          `json:"status_label"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	ItemCount     int             `json:"item_count"`
	TransactedAt  *time.Time      `json:"transacted_at,omitempty"`
	Orders        []orderResponse `json:"orders"`
}

func newOrderPageResponse(page *reconcile.Page) orderPageResponse {
	if page == nil {
		return orderPageResponse{Orders: []orderResponse{}}
	}
	orders := make([]orderResponse, 0, len(page.Orders))
	for _, order := range page.Orders {
		orders = append(orders, newOrderResponse(order))
	}
	return orderPageResponse{Orders: orders, NextCursor: page.NextCursor}
}

func newOrderResponse(order reconcile.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
			ImageURL: item.ImageURL,
		})
	}
	return orderResponse{
		ID:             order.ID,
		Code:           order.Code,
		OutletID:       order.OutletID,
		OutletName:     order.OutletName,
		Items:          items,
		TotalAmount:    order.TotalAmount,
		PaymentMethod:  order.PaymentMethod,
		PaymentGroupID: order.PaymentGroupID,
		Status:         order.Status.String(),
		StatusLabel:    order.StatusLabel,
		PickupStatus:   order.PickupStatus.String(),
		PickupLabel:    order.PickupStatus.Label(),
		CreatedAt:      order.CreatedAt,
	}
}

func newSummaryResponse(summary *reconcile.Summary) summaryResponse {
	if summary == nil {
		return summaryResponse{Orders: []orderResponse{}}
	}

	orders := make([]orderResponse, 0, len(summary.Orders))
	for _, order := range summary.Orders {
		orders = append(orders, newOrderResponse(order))
	}

	resp := summaryResponse{
		Reference:     summary.Reference,
		Status:        summary.Status.String(),
		StatusLabel:   summary.StatusLabel,
		PaymentMethod: summary.PaymentMethod,
		TotalAmount:   summary.TotalAmount,
		ItemCount:     summary.ItemCount,
		Orders:        orders,
	}
	if !summary.TransactedAt.IsZero() {
		transacted := summary.TransactedAt
		resp.TransactedAt = &transacted
	}
	return resp
}
