package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/Roxxy17/storefront-gateway/internal/cart"
	"github.com/Roxxy17/storefront-gateway/internal/payment"
	"github.com/Roxxy17/storefront-gateway/pkg/commerce"
	pkgerrors "github.com/Roxxy17/storefront-gateway/pkg/errors"
	"github.com/Roxxy17/storefront-gateway/pkg/logger"
	"github.com/Roxxy17/storefront-gateway/pkg/metrics"
	"github.com/Roxxy17/storefront-gateway/pkg/redis"
)

// idempotencyTTL bounds how long a checkout replay window stays open.
const idempotencyTTL = 24 * time.Hour

type cartReader interface {
	GetCart(ctx context.Context, token string) (*cart.Cart, error)
}

type orderPlacer interface {
	Checkout(ctx context.Context, token string, legs []commerce.CheckoutOrderRequest) (*commerce.CheckoutResult, error)
}

type sessionCreator interface {
	CreateSession(ctx context.Context, paymentURL, token, groupID string, orderIDs []string) (*payment.Session, error)
}

type idempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
}

// Service executes checkout orchestration: one upstream order per
// outlet in the selection, all sharing a single payment group and a
// single hosted payment session. A repeated idempotency key replays
// the original session instead of placing new orders.
type Service interface {
	Execute(ctx context.Context, token string, itemIDs []string, idemKey string) (*payment.Session, error)
}

type service struct {
	carts    cartReader
	commerce orderPlacer
	sessions sessionCreator
	idem     idempotencyStore
	metrics  *metrics.PipelineMetrics
	log      *logger.Logger
	now      func() time.Time
}

// NewService builds the checkout orchestrator. The idempotency store
// may be nil, which disables checkout replay.
func NewService(carts cartReader, placer orderPlacer, sessions sessionCreator, idem idempotencyStore, pipeline *metrics.PipelineMetrics, logg *logger.Logger) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if placer == nil {
		return nil, fmt.Errorf("commerce client required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("payment session service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		carts:    carts,
		commerce: placer,
		sessions: sessions,
		idem:     idem,
		metrics:  pipeline,
		log:      logg,
		now:      time.Now,
	}, nil
}

func (s *service) Execute(ctx context.Context, token string, itemIDs []string, idemKey string) (*payment.Session, error) {
	if cached := s.replaySession(ctx, idemKey); cached != nil {
		return cached, nil
	}

	started := s.now()
	session, err := s.execute(ctx, token, itemIDs)
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	s.metrics.ObserveCheckout(outcome, s.now().Sub(started))

	if err == nil {
		s.rememberSession(ctx, idemKey, session)
	}
	return session, err
}

// replaySession returns the session stored under the idempotency key,
// or nil when there is none.
func (s *service) replaySession(ctx context.Context, idemKey string) *payment.Session {
	if s.idem == nil || idemKey == "" {
		return nil
	}

	raw, err := s.idem.Get(ctx, s.idem.IdempotencyKey("checkout", idemKey))
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn(ctx, "idempotency read failed")
		}
		return nil
	}

	var session payment.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil
	}

	logCtx := s.log.WithSessionID(ctx, session.ID)
	s.log.Info(logCtx, "checkout replayed from idempotency key")
	return &session
}

func (s *service) rememberSession(ctx context.Context, idemKey string, session *payment.Session) {
	if s.idem == nil || idemKey == "" || session == nil {
		return
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return
	}
	if _, err := s.idem.SetNX(ctx, s.idem.IdempotencyKey("checkout", idemKey), string(raw), idempotencyTTL); err != nil {
		s.log.Warn(ctx, "idempotency write failed")
	}
}

func (s *service) execute(ctx context.Context, token string, itemIDs []string) (*payment.Session, error) {
	if len(itemIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item ids required")
	}

	buyerCart, err := s.carts.GetCart(ctx, token)
	if err != nil {
		return nil, err
	}

	selected, err := cart.Select(buyerCart.Items, itemIDs)
	if err != nil {
		return nil, err
	}

	legs := partitionByOutlet(selected)

	result, err := s.commerce.Checkout(ctx, token, legs)
	if err != nil {
		return nil, orderCreationError(err)
	}
	if result.PaymentGroupID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "checkout response missing payment group id")
	}
	if len(result.Orders) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "checkout response missing orders")
	}

	orderIDs := make([]string, 0, len(result.Orders))
	for _, order := range result.Orders {
		orderIDs = append(orderIDs, order.ID)
	}

	session, err := s.sessions.CreateSession(ctx, result.PaymentURL, result.PaymentToken, result.PaymentGroupID, orderIDs)
	if err != nil {
		return nil, err
	}

	logCtx := s.log.WithPaymentGroupID(ctx, result.PaymentGroupID)
	logCtx = s.log.WithSessionID(logCtx, session.ID)
	logCtx = s.log.WithField(logCtx, "orders", len(orderIDs))
	s.log.Info(logCtx, "checkout completed")

	return session, nil
}

// partitionByOutlet splits the selection into one order leg per
// outlet, in the order outlets appear in the cart.
func partitionByOutlet(items []cart.LineItem) []commerce.CheckoutOrderRequest {
	index := make(map[string]int, len(items))
	legs := make([]commerce.CheckoutOrderRequest, 0, len(items))
	for _, item := range items {
		pos, seen := index[item.OutletID]
		if !seen {
			pos = len(legs)
			index[item.OutletID] = pos
			legs = append(legs, commerce.CheckoutOrderRequest{OutletID: item.OutletID})
		}
		legs[pos].ItemIDs = append(legs[pos].ItemIDs, item.ID)
	}
	return legs
}

// orderCreationError maps an upstream rejection onto the order
// creation failure code. The upstream message passes through
// verbatim; per-outlet leg failures are aggregated so the caller sees
// every reason at once. No session exists for a failed group.
func orderCreationError(err error) error {
	var rejection *commerce.CheckoutError
	if !errors.As(err, &rejection) {
		return err
	}

	combined := errors.New(rejection.Message)
	for _, leg := range rejection.Legs {
		combined = multierr.Append(combined, fmt.Errorf("outlet %s: %s", leg.OutletID, leg.Message))
	}

	failure := pkgerrors.Wrap(pkgerrors.CodeOrderCreation, combined, rejection.Message)
	if len(rejection.Legs) > 0 {
		details := make([]map[string]string, 0, len(rejection.Legs))
		for _, leg := range rejection.Legs {
			details = append(details, map[string]string{
				"outlet_id": leg.OutletID,
				"message":   leg.Message,
			})
		}
		failure = failure.WithDetails(details)
	}
	return failure
}
