package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Roxxy17/storefront-gateway/pkg/enums"
	pkgerrors "github.com/Roxxy17/storefront-gateway/pkg/errors"
	"github.com/Roxxy17/storefront-gateway/pkg/logger"
	"github.com/Roxxy17/storefront-gateway/pkg/metrics"
	"github.com/Roxxy17/storefront-gateway/pkg/redis"
)

const completionTTL = 24 * time.Hour

// Action tells the embedded payment surface what to do with a
// navigation it reported.
type Action string

const (
	// ActionAllow lets the surface load the URL.
	ActionAllow Action = "allow"
	// ActionSuppress blocks the URL; the flow has ended.
	ActionSuppress Action = "suppress"
	// ActionOpenExternal hands the URL to an external handler. When no
	// handler exists the surface falls back to trying it itself.
	ActionOpenExternal Action = "open_external"
)

// Session is one hosted-payment attempt. It lives in redis for the
// session TTL and is superseded by authoritative order state once the
// flow ends.
type Session struct {
	ID             string             `json:"id"`
	PaymentURL     string             `json:"payment_url"`
	Token          string             `json:"token"`
	PaymentGroupID string             `json:"payment_group_id"`
	OrderIDs       []string           `json:"order_ids"`
	State          enums.SessionState `json:"state"`
	CreatedAt      time.Time          `json:"created_at"`
}

// Outcome is the bridge's answer to a navigation or dismiss signal.
// Refetch tells the caller to reload authoritative order state; the
// bridge itself never knows whether the payment succeeded.
type Outcome struct {
	Action   Action
	Kind     enums.NavigationKind
	State    enums.SessionState
	OrderIDs []string
	Refetch  bool
}

// Service is the payment session bridge.
type Service interface {
	CreateSession(ctx context.Context, paymentURL, token, groupID string, orderIDs []string) (*Session, error)
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	HandleNavigation(ctx context.Context, sessionID, rawURL string) (*Outcome, error)
	Dismiss(ctx context.Context, sessionID string) (*Outcome, error)
}

type service struct {
	store      redis.SessionStore
	metrics    *metrics.PipelineMetrics
	log        *logger.Logger
	sessionTTL time.Duration
	now        func() time.Time
}

// NewService builds the payment session bridge.
func NewService(store redis.SessionStore, pipeline *metrics.PipelineMetrics, logg *logger.Logger, sessionTTL time.Duration) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if sessionTTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &service{
		store:      store,
		metrics:    pipeline,
		log:        logg,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}, nil
}

func (s *service) CreateSession(ctx context.Context, paymentURL, token, groupID string, orderIDs []string) (*Session, error) {
	if paymentURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment url required")
	}
	if groupID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment group id required")
	}
	if len(orderIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session requires at least one order")
	}

	session := &Session{
		ID:             uuid.NewString(),
		PaymentURL:     paymentURL,
		Token:          token,
		PaymentGroupID: groupID,
		OrderIDs:       append([]string(nil), orderIDs...),
		State:          enums.SessionStateLoading,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.persist(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *service) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	return s.load(ctx, sessionID)
}

func (s *service) HandleNavigation(ctx context.Context, sessionID, rawURL string) (*Outcome, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	verdict := Classify(rawURL)

	switch verdict.Kind {
	case enums.NavigationKindTerminal:
		return s.complete(ctx, session, enums.NavigationKindTerminal, "navigation")

	case enums.NavigationKindDeepLink:
		// External handoff does not end the flow; the surface stays
		// open behind the wallet app.
		if err := s.markEvaluating(ctx, session); err != nil {
			return nil, err
		}
		return &Outcome{
			Action:   ActionOpenExternal,
			Kind:     enums.NavigationKindDeepLink,
			State:    session.State,
			OrderIDs: session.OrderIDs,
		}, nil

	default:
		if err := s.markEvaluating(ctx, session); err != nil {
			return nil, err
		}
		return &Outcome{
			Action:   ActionAllow,
			Kind:     enums.NavigationKindOrdinary,
			State:    session.State,
			OrderIDs: session.OrderIDs,
		}, nil
	}
}

func (s *service) Dismiss(ctx context.Context, sessionID string) (*Outcome, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.complete(ctx, session, enums.NavigationKindOrdinary, "dismiss")
}

// complete transitions a session to its terminal state. The SetNX
// completion key makes the transition exactly-once across racing
// navigation and dismiss signals; losers observe the completed state
// and still get told to refetch.
func (s *service) complete(ctx context.Context, session *Session, kind enums.NavigationKind, trigger string) (*Outcome, error) {
	outcome := &Outcome{
		Action:   ActionSuppress,
		Kind:     kind,
		State:    enums.SessionStateCompleted,
		OrderIDs: session.OrderIDs,
		Refetch:  true,
	}

	if session.State == enums.SessionStateCompleted {
		return outcome, nil
	}

	won, err := s.store.SetNX(ctx, s.store.CompletionKey(session.ID), trigger, completionTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire completion guard")
	}
	if !won {
		return outcome, nil
	}

	session.State = enums.SessionStateCompleted
	if err := s.persist(ctx, session); err != nil {
		return nil, err
	}

	s.metrics.IncCompletion(trigger)
	logCtx := s.log.WithSessionID(ctx, session.ID)
	logCtx = s.log.WithPaymentGroupID(logCtx, session.PaymentGroupID)
	logCtx = s.log.WithField(logCtx, "trigger", trigger)
	s.log.Info(logCtx, "payment session completed")

	return outcome, nil
}

func (s *service) markEvaluating(ctx context.Context, session *Session) error {
	if session.State != enums.SessionStateLoading {
		return nil
	}
	session.State = enums.SessionStateEvaluating
	return s.persist(ctx, session)
}

func (s *service) persist(ctx context.Context, session *Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal session")
	}
	if err := s.store.Set(ctx, s.store.SessionKey(session.ID), string(payload), s.sessionTTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist session")
	}
	return nil
}

func (s *service) load(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}

	raw, err := s.store.Get(ctx, s.store.SessionKey(sessionID))
	if err != nil {
		if err == redis.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unmarshal session")
	}
	return &session, nil
}
