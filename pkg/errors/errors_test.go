package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeSelectionEmpty, status: http.StatusConflict, publicMsg: "selected items are no longer in the cart", detailsOK: true},
		{code: CodeOrderCreation, status: http.StatusUnprocessableEntity, publicMsg: "order creation failed", retryable: true, detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing item ids")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing item ids" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "item_ids"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "create orders")
	if wrapped.Unwrap() != cause {
		t.Fatalf("expected cause preserved")
	}
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("errors.Is should see the cause")
	}
	if Wrap(CodeConflict, nil, "no cause").Unwrap() != nil {
		t.Fatalf("wrapping nil should produce no cause")
	}
}

func TestAsFindsTypedError(t *testing.T) {
	inner := New(CodeSelectionEmpty, "nothing matched")
	outer := Wrap(CodeDependency, inner, "checkout")
	typed := As(outer)
	if typed == nil {
		t.Fatalf("expected typed error")
	}
	if typed.Code() != CodeDependency {
		t.Fatalf("expected outermost code, got %s", typed.Code())
	}
	if As(stdErrors.New("plain")) != nil {
		t.Fatalf("plain errors should not convert")
	}
}

func TestDumpCollectsUpstreamDetail(t *testing.T) {
	upstream := &UpstreamError{Status: http.StatusUnprocessableEntity, Message: "stock habis"}
	err := Wrap(CodeOrderCreation, upstream, "create orders")

	dump := Dump(err)
	if dump.Code != CodeOrderCreation {
		t.Fatalf("unexpected code %s", dump.Code)
	}
	if dump.UpstreamStatus != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected upstream status %d", dump.UpstreamStatus)
	}
	if dump.UpstreamMessage != "stock habis" {
		t.Fatalf("unexpected upstream message %q", dump.UpstreamMessage)
	}
	if len(dump.Chain) < 2 {
		t.Fatalf("expected chain with cause, got %v", dump.Chain)
	}
}
