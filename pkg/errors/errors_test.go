package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	cases := []struct {
		code      Code
		status    int
		retryable bool
	}{
		{CodeInsufficientCredits, http.StatusPaymentRequired, false},
		{CodeInvalidSignature, http.StatusBadRequest, false},
		{CodePaymentNotCaptured, http.StatusBadRequest, false},
		{CodeAccountMismatch, http.StatusForbidden, false},
		{CodeDependency, http.StatusServiceUnavailable, true},
		{CodeInternal, http.StatusInternalServerError, true},
	}
	for _, tc := range cases {
		meta := MetadataFor(tc.code)
		if meta.HTTPStatus != tc.status {
			t.Fatalf("%s: expected status %d, got %d", tc.code, tc.status, meta.HTTPStatus)
		}
		if meta.Retryable != tc.retryable {
			t.Fatalf("%s: expected retryable=%v", tc.code, tc.retryable)
		}
	}
}

func TestMetadataForUnknownFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(CodeDependency, cause, "gateway call")
	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be discoverable via errors.Is")
	}
	if As(err).Code() != CodeDependency {
		t.Fatalf("unexpected code %s", As(err).Code())
	}
}

func TestAsFindsTypedErrorThroughWrapping(t *testing.T) {
	inner := New(CodeInsufficientCredits, "balance too low")
	outer := fmt.Errorf("debit: %w", inner)
	typed := As(outer)
	if typed == nil || typed.Code() != CodeInsufficientCredits {
		t.Fatalf("expected typed error through fmt wrapping, got %v", typed)
	}
}

func TestNilErrorAccessors(t *testing.T) {
	var e *Error
	if e.Code() != CodeInternal {
		t.Fatal("nil error should report internal code")
	}
	if e.Error() != "" || e.Message() != "" || e.Details() != nil {
		t.Fatal("nil error accessors should be zero values")
	}
}
