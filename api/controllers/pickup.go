package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Roxxy17/storefront-gateway/api/responses"
	"github.com/Roxxy17/storefront-gateway/api/validators"
	"github.com/Roxxy17/storefront-gateway/internal/pickup"
	pkgerrors "github.com/Roxxy17/storefront-gateway/pkg/errors"
	"github.com/Roxxy17/storefront-gateway/pkg/logger"
	"github.com/Roxxy17/storefront-gateway/pkg/types"
)

// PickupRoute returns the pickup map payload for a transaction:
// markers always, road geometry when the route provider cooperates.
func PickupRoute(svc pickup.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pickup service unavailable"))
			return
		}

		token, err := validators.BearerToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		plan, err := svc.Route(r.Context(), token, chi.URLParam(r, "ref"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPlanResponse(plan))
	}
}

type planResponse struct {
	Buyer       types.GeoPoint `json:"buyer"`
	BuyerSource string         `json:"buyer_source"`
	Stops       []stopResponse `json:"stops"`
	Road        *roadResponse  `json:"road,omitempty"`
}

type stopResponse struct {
	OutletID   string         `json:"outlet_id"`
	OutletName string         `json:"outlet_name"`
	Point      types.GeoPoint `json:"point"`
}

type roadResponse struct {
	DistanceMeters  float64          `json:"distance_meters"`
	DurationSeconds float64          `json:"duration_seconds"`
	Polyline        []types.GeoPoint `json:"polyline"`
}

func newPlanResponse(plan *pickup.Plan) planResponse {
	if plan == nil {
		return planResponse{Stops: []stopResponse{}}
	}

	stops := make([]stopResponse, 0, len(plan.Stops))
	for _, stop := range plan.Stops {
		stops = append(stops, stopResponse{
			OutletID:   stop.OutletID,
			OutletName: stop.OutletName,
			Point:      stop.Point,
		})
	}

	resp := planResponse{
		Buyer:       plan.Buyer,
		BuyerSource: string(plan.BuyerSource),
		Stops:       stops,
	}
	if plan.Road != nil {
		resp.Road = &roadResponse{
			DistanceMeters:  plan.Road.DistanceMeters,
			DurationSeconds: plan.Road.DurationSeconds,
			Polyline:        plan.Road.Polyline,
		}
	}
	return resp
}
