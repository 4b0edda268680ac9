package shared

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestIsValidID(t *testing.T) {
	tc := []struct {
		name string
		id   string
		want bool
	}{
		{name: "generated", id: GenerateID(), want: true},
		{name: "canonical", id: "3f2504e0-4f89-41d3-9a0c-0305e82c3301", want: true},
		{name: "empty", id: "", want: false},
		{name: "object id", id: "507f1f77bcf86cd799439011", want: false},
		{name: "no dashes", id: "3f2504e04f8941d39a0c0305e82c3301", want: false},
		{name: "urn form", id: "urn:uuid:3f2504e0-4f89-41d3-9a0c-0305e82c3301", want: false},
		{name: "garbage", id: "not-a-valid-identifier-at-all-000000", want: false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidID(tt.id); got != tt.want {
				t.Errorf("IsValidID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestTimestamps(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		in := time.Date(2025, 3, 1, 12, 30, 0, 500, time.FixedZone("X", 3600))
		out, err := ParseTimestamp(FormatTimestamp(in))
		if err != nil {
			t.Fatalf("ParseTimestamp() error = %v", err)
		}
		if !out.Equal(in) {
			t.Errorf("round trip = %v, want %v", out, in)
		}
	})

	t.Run("fixed width sorts lexically", func(t *testing.T) {
		a := FormatTimestamp(time.Date(2025, 1, 1, 0, 0, 5, 500000000, time.UTC))
		b := FormatTimestamp(time.Date(2025, 1, 1, 0, 0, 5, 123000000, time.UTC))
		if !(b < a) {
			t.Errorf("expected %s < %s", b, a)
		}
	})

	t.Run("naive is UTC", func(t *testing.T) {
		got, err := ParseTimestamp("2025-01-01T10:00:00")
		if err != nil {
			t.Fatalf("ParseTimestamp() error = %v", err)
		}
		if !got.Equal(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)) {
			t.Errorf("got %v", got)
		}
	})

	t.Run("date only is UTC midnight", func(t *testing.T) {
		got, err := ParseTimestamp("2030-01-01")
		if err != nil {
			t.Fatalf("ParseTimestamp() error = %v", err)
		}
		if !got.Equal(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("got %v", got)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := ParseTimestamp("yesterday"); !errors.Is(err, ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}

func TestUpstreamError(t *testing.T) {
	authErr := &UpstreamError{Kind: KindAuth, Status: http.StatusBadRequest, Body: []byte(`{"error":"invalid_grant"}`)}
	if !errors.Is(authErr, ErrUpstreamAuth) {
		t.Error("auth kind should unwrap to ErrUpstreamAuth")
	}

	apiErr := &UpstreamError{Kind: KindAPI, Status: http.StatusTooManyRequests}
	if !errors.Is(apiErr, ErrUpstreamAPI) {
		t.Error("api kind should unwrap to ErrUpstreamAPI")
	}

	wrapped := errors.Join(errors.New("context"), authErr)
	ue, ok := AsUpstream(wrapped)
	if !ok || ue.Status != http.StatusBadRequest {
		t.Errorf("AsUpstream() = %v, %v", ue, ok)
	}
}
