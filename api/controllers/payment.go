package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Roxxy17/storefront-gateway/api/responses"
	"github.com/Roxxy17/storefront-gateway/api/validators"
	"github.com/Roxxy17/storefront-gateway/internal/payment"
	pkgerrors "github.com/Roxxy17/storefront-gateway/pkg/errors"
	"github.com/Roxxy17/storefront-gateway/pkg/logger"
)

// PaymentNavigation reports one navigation observed inside the hosted
// payment surface and returns the verdict.
func PaymentNavigation(svc payment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		var payload navigationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcome, err := svc.HandleNavigation(r.Context(), chi.URLParam(r, "sessionID"), payload.URL)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOutcomeResponse(outcome))
	}
}

// PaymentDismiss reports a manual close of the payment surface.
func PaymentDismiss(svc payment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		outcome, err := svc.Dismiss(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOutcomeResponse(outcome))
	}
}

// PaymentSession returns the stored session snapshot.
func PaymentSession(svc payment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		session, err := svc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newSessionResponse(session))
	}
}

type navigationRequest struct {
	URL string `json:"url" validate:"required"`
}

type outcomeResponse struct {
	Action   string   `json:"action"`
	Kind     string   `json:"kind"`
	State    string   `json:"state"`
	OrderIDs []string `json:"order_ids"`
	Refetch  bool     `json:"refetch"`
}

func newOutcomeResponse(outcome *payment.Outcome) outcomeResponse {
	if outcome == nil {
		return outcomeResponse{}
	}
	return outcomeResponse{
		Action:   string(outcome.Action),
		Kind:     outcome.Kind.String(),
		State:    outcome.State.String(),
		OrderIDs: outcome.OrderIDs,
		Refetch:  outcome.Refetch,
	}
}
