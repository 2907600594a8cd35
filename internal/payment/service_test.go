package payment

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/Roxxy17/storefront-gateway/pkg/enums"
	pkgerrors "github.com/Roxxy17/storefront-gateway/pkg/errors"
	"github.com/Roxxy17/storefront-gateway/pkg/logger"
	"github.com/Roxxy17/storefront-gateway/pkg/redis"
)

type stubStore struct {
	data       map[string]string
	setNXCalls int
}

func newStubStore() *stubStore {
	return &stubStore{data: make(map[string]string)}
}

func (s *stubStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := s.data[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (s *stubStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	s.data[key] = value.(string)
	return nil
}

func (s *stubStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.setNXCalls++
	if _, exists := s.data[key]; exists {
		return false, nil
	}
	s.data[key] = value.(string)
	return true, nil
}

func (s *stubStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

func (s *stubStore) SessionKey(id string) string    { return "sg:payment_session:" + id }
func (s *stubStore) CompletionKey(id string) string { return "sg:payment_completed:" + id }

func newTestService(t *testing.T, store redis.SessionStore) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "payment-test", Output: io.Discard})
	svc, err := NewService(store, nil, logg, 30*time.Minute)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func createSession(t *testing.T, svc Service) *Session {
	t.Helper()
	session, err := svc.CreateSession(context.Background(), "https://pay.test/redirect/abc", "tok-abc", "grp-1", []string{"ord-1", "ord-2"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return session
}

func TestCreateSessionStartsLoading(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)

	session := createSession(t, svc)
	if session.State != enums.SessionStateLoading {
		t.Fatalf("expected loading state, got %s", session.State)
	}
	if session.ID == "" {
		t.Fatalf("expected generated session id")
	}

	loaded, err := svc.GetSession(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if loaded.PaymentGroupID != "grp-1" || len(loaded.OrderIDs) != 2 {
		t.Fatalf("unexpected persisted session %+v", loaded)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	svc := newTestService(t, newStubStore())

	_, err := svc.GetSession(context.Background(), "missing")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestOrdinaryNavigationAllowsAndStartsEvaluating(t *testing.T) {
	svc := newTestService(t, newStubStore())
	session := createSession(t, svc)

	outcome, err := svc.HandleNavigation(context.Background(), session.ID, "https://pay.test/v2/vtweb/abc")
	if err != nil {
		t.Fatalf("handle navigation: %v", err)
	}
	if outcome.Action != ActionAllow {
		t.Fatalf("expected allow, got %s", outcome.Action)
	}
	if outcome.State != enums.SessionStateEvaluating {
		t.Fatalf("expected evaluating, got %s", outcome.State)
	}
	if outcome.Refetch {
		t.Fatalf("ordinary navigation must not trigger a refetch")
	}
}

func TestDeepLinkNavigationHandsOffExternally(t *testing.T) {
	svc := newTestService(t, newStubStore())
	session := createSession(t, svc)

	outcome, err := svc.HandleNavigation(context.Background(), session.ID, "gojek://gopay/merchanttransfer?tref=abc")
	if err != nil {
		t.Fatalf("handle navigation: %v", err)
	}
	if outcome.Action != ActionOpenExternal {
		t.Fatalf("expected external handoff, got %s", outcome.Action)
	}
	if outcome.Kind != enums.NavigationKindDeepLink {
		t.Fatalf("expected deep link kind, got %s", outcome.Kind)
	}
	if outcome.State == enums.SessionStateCompleted {
		t.Fatalf("deep link must not end the session")
	}
}

func TestTerminalNavigationCompletesExactlyOnce(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)
	session := createSession(t, svc)

	first, err := svc.HandleNavigation(context.Background(), session.ID, "https://pay.test/finish?order_id=ord-1&transaction_status=settlement")
	if err != nil {
		t.Fatalf("first terminal navigation: %v", err)
	}
	if first.Action != ActionSuppress || !first.Refetch {
		t.Fatalf("terminal navigation must suppress and refetch, got %+v", first)
	}
	if first.State != enums.SessionStateCompleted {
		t.Fatalf("expected completed state, got %s", first.State)
	}

	// A racing duplicate observes the completed session and no-ops.
	second, err := svc.HandleNavigation(context.Background(), session.ID, "https://pay.test/finish")
	if err != nil {
		t.Fatalf("second terminal navigation: %v", err)
	}
	if second.Action != ActionSuppress || !second.Refetch {
		t.Fatalf("duplicate must still suppress and refetch, got %+v", second)
	}
	if store.setNXCalls != 1 {
		t.Fatalf("completed session must short-circuit the guard, got %d SetNX calls", store.setNXCalls)
	}

	if len(second.OrderIDs) != 2 {
		t.Fatalf("stored order ids stay authoritative, got %+v", second.OrderIDs)
	}
}

func TestCompletionGuardBreaksTies(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)
	session := createSession(t, svc)

	// Simulate another instance winning the guard before this one.
	if _, err := store.SetNX(context.Background(), store.CompletionKey(session.ID), "navigation", time.Hour); err != nil {
		t.Fatalf("seed guard: %v", err)
	}

	outcome, err := svc.Dismiss(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	if outcome.Action != ActionSuppress || !outcome.Refetch {
		t.Fatalf("loser must still report the terminal outcome, got %+v", outcome)
	}
}

func TestDismissCompletesSession(t *testing.T) {
	svc := newTestService(t, newStubStore())
	session := createSession(t, svc)

	outcome, err := svc.Dismiss(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	if outcome.State != enums.SessionStateCompleted || !outcome.Refetch {
		t.Fatalf("dismiss must end the flow, got %+v", outcome)
	}

	loaded, err := svc.GetSession(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if loaded.State != enums.SessionStateCompleted {
		t.Fatalf("completed state must persist, got %s", loaded.State)
	}
}
