package pickup

import (
	"context"
	"fmt"

	"github.com/Roxxy17/storefront-gateway/internal/reconcile"
	"github.com/Roxxy17/storefront-gateway/pkg/commerce"
	"github.com/Roxxy17/storefront-gateway/pkg/logger"
	"github.com/Roxxy17/storefront-gateway/pkg/metrics"
	"github.com/Roxxy17/storefront-gateway/pkg/routing"
	"github.com/Roxxy17/storefront-gateway/pkg/types"
)

type orderMatcher interface {
	Match(ctx context.Context, token, ref string) ([]reconcile.Order, error)
}

type addressFetcher interface {
	GetAddresses(ctx context.Context, token string) ([]commerce.Address, error)
}

type roadRouter interface {
	GetRoute(ctx context.Context, waypoints []types.GeoPoint) (*routing.Road, error)
}

// BuyerSource names where the buyer marker position came from.
type BuyerSource string

const (
	BuyerSourceDefaultAddress BuyerSource = "default_address"
	BuyerSourceFirstAddress   BuyerSource = "first_address"
	BuyerSourceFallback       BuyerSource = "fallback"
)

// Stop is one outlet the buyer must visit.
type Stop struct {
	OutletID   string
	OutletName string
	Point      types.GeoPoint
}

// Plan is the pickup map payload: markers always, road decoration when
// the route provider cooperates.
type Plan struct {
	Buyer       types.GeoPoint
	BuyerSource BuyerSource
	Stops       []Stop
	Road        *routing.Road
}

// Service is the pickup routing helper.
type Service interface {
	Route(ctx context.Context, token, ref string) (*Plan, error)
}

type service struct {
	orders    orderMatcher
	addresses addressFetcher
	router    roadRouter
	metrics   *metrics.PipelineMetrics
	log       *logger.Logger
	fallback  types.GeoPoint
}

// NewService builds the pickup routing helper. The fallback point is
// the configured city center used when the buyer has no usable saved
// address.
func NewService(orders orderMatcher, addresses addressFetcher, router roadRouter, pipeline *metrics.PipelineMetrics, logg *logger.Logger, fallback types.GeoPoint) (Service, error) {
	if orders == nil {
		return nil, fmt.Errorf("order matcher required")
	}
	if addresses == nil {
		return nil, fmt.Errorf("address fetcher required")
	}
	if router == nil {
		return nil, fmt.Errorf("road router required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if !fallback.Valid() {
		return nil, fmt.Errorf("fallback point must be valid coordinates")
	}
	return &service{
		orders:    orders,
		addresses: addresses,
		router:    router,
		metrics:   pipeline,
		log:       logg,
		fallback:  fallback,
	}, nil
}

func (s *service) Route(ctx context.Context, token, ref string) (*Plan, error) {
	matched, err := s.orders.Match(ctx, token, ref)
	if err != nil {
		return nil, err
	}

	buyer, source := s.buyerPoint(ctx, token)
	plan := &Plan{
		Buyer:       buyer,
		BuyerSource: source,
		Stops:       outletStops(matched),
	}

	if len(plan.Stops) == 0 {
		return plan, nil
	}

	waypoints := make([]types.GeoPoint, 0, len(plan.Stops)+1)
	waypoints = append(waypoints, buyer)
	for _, stop := range plan.Stops {
		waypoints = append(waypoints, stop.Point)
	}

	road, err := s.router.GetRoute(ctx, waypoints)
	if err != nil {
		// Markers carry the screen on their own; the road is
		// decoration.
		s.metrics.IncRoutingFailure()
		s.log.Warn(s.log.WithField(ctx, "ref", ref), "road route degraded to markers")
		return plan, nil
	}
	plan.Road = road

	return plan, nil
}

// buyerPoint picks the buyer marker: default saved address with valid
// coordinates, else the first valid one, else the configured
// city-center fallback. Address fetch failure also falls back; the
// map must still render.
func (s *service) buyerPoint(ctx context.Context, token string) (types.GeoPoint, BuyerSource) {
	addresses, err := s.addresses.GetAddresses(ctx, token)
	if err != nil {
		s.log.Warn(ctx, "address fetch failed, using fallback point")
		return s.fallback, BuyerSourceFallback
	}

	var firstValid *types.GeoPoint
	for _, addr := range addresses {
		point := types.ParseGeoPoint(addr.Latitude, addr.Longitude)
		if !point.Valid() {
			continue
		}
		if addr.IsDefault {
			return point, BuyerSourceDefaultAddress
		}
		if firstValid == nil {
			p := point
			firstValid = &p
		}
	}
	if firstValid != nil {
		return *firstValid, BuyerSourceFirstAddress
	}
	return s.fallback, BuyerSourceFallback
}

// outletStops collects the distinct outlets of the matched orders in
// discovery order, skipping outlets without usable coordinates.
func outletStops(orders []reconcile.Order) []Stop {
	seen := make(map[string]struct{}, len(orders))
	stops := make([]Stop, 0, len(orders))
	for _, order := range orders {
		if _, dup := seen[order.OutletID]; dup {
			continue
		}
		seen[order.OutletID] = struct{}{}
		if !order.OutletPoint.Valid() {
			continue
		}
		stops = append(stops, Stop{
			OutletID:   order.OutletID,
			OutletName: order.OutletName,
			Point:      order.OutletPoint,
		})
	}
	return stops
}
