package controllers

import (
	"net/http"
	"strings"

	"github.com/Roxxy17/storefront-gateway/api/responses"
	"github.com/Roxxy17/storefront-gateway/api/validators"
	checkoutsvc "github.com/Roxxy17/storefront-gateway/internal/checkout"
	"github.com/Roxxy17/storefront-gateway/internal/payment"
	pkgerrors "github.com/Roxxy17/storefront-gateway/pkg/errors"
	"github.com/Roxxy17/storefront-gateway/pkg/logger"
)

// Checkout turns the buyer's selection into per-outlet orders and a
// hosted payment session.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		token, err := validators.BearerToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		idemKey := strings.TrimSpace(r.Header.Get("X-Idempotency-Key"))

		session, err := svc.Execute(r.Context(), token, payload.ItemIDs, idemKey)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newSessionResponse(session))
	}
}

type checkoutRequest struct {
	ItemIDs []string `json:"item_ids" validate:"required,min=1,dive,required"`
}

type sessionResponse struct {
	SessionID      string   `json:"session_id"`
	PaymentURL     string   `json:"payment_url"`
	PaymentGroupID string   `json:"payment_group_id"`
	OrderIDs       []string `json:"order_ids"`
	State          string   `json:"state"`
}

func newSessionResponse(session *payment.Session) sessionResponse {
	if session == nil {
		return sessionResponse{}
	}
	return sessionResponse{
		SessionID:      session.ID,
		PaymentURL:     session.PaymentURL,
		PaymentGroupID: session.PaymentGroupID,
		OrderIDs:       session.OrderIDs,
		State:          session.State.String(),
	}
}
