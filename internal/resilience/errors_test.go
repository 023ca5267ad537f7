package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestIsTransient_ErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"network", &NetworkError{Op: "fetch", Err: errors.New("refused")}, true},
		{"parse", &DataParsingError{Op: "decode", Err: errors.New("bad json")}, false},
		{"store retryable", &DatabaseError{Op: "write", Err: errors.New("timeout"), Retryable: true}, true},
		{"store permanent", &DatabaseError{Op: "write", Err: errors.New("constraint"), Retryable: false}, false},
		{"circuit open", &CircuitOpenError{Service: "provider"}, true},
		{"plain", errors.New("boom"), false},
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped network", fmt.Errorf("outer: %w", &NetworkError{Op: "fetch", Err: errors.New("reset")}), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTransient(tc.err); got != tc.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestAPIError_TransientStatuses(t *testing.T) {
	transient := []int{408, 429, 500, 502, 503, 504}
	for _, status := range transient {
		err := &APIError{Op: "fetch", Status: status}
		if !IsTransient(err) {
			t.Errorf("status %d should be transient", status)
		}
	}

	permanent := []int{400, 401, 403, 404, 422}
	for _, status := range permanent {
		err := &APIError{Op: "fetch", Status: status}
		if IsTransient(err) {
			t.Errorf("status %d should not be transient", status)
		}
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(&APIError{Op: "fetch", Status: 404}) {
		t.Error("404 should report not found")
	}
	if IsNotFound(&APIError{Op: "fetch", Status: 500}) {
		t.Error("500 should not report not found")
	}
	if IsNotFound(errors.New("missing")) {
		t.Error("plain error should not report not found")
	}
	if !IsNotFound(fmt.Errorf("wrapped: %w", &APIError{Op: "fetch", Status: 404})) {
		t.Error("wrapped 404 should report not found")
	}
}

func TestIsCircuitOpen(t *testing.T) {
	if !IsCircuitOpen(&CircuitOpenError{Service: "provider"}) {
		t.Error("CircuitOpenError should be detected")
	}
	if IsCircuitOpen(&NetworkError{Op: "fetch", Err: errors.New("reset")}) {
		t.Error("network error is not a circuit trip")
	}
}
