package models

import (
	"testing"

	"github.com/dtsgroup/bizreg_backend/config"
)

// The REST endpoints pass the limit through as an optional query param,
// so an absent or garbage value reaches the paginators as nil. That must
// fall back to the search default, never dereference.
func TestPageLimitDefaultsWhenAbsent(t *testing.T) {
	if got := pageLimit(nil); got != config.SearchLimit {
		t.Fatalf("nil limit: got %d, want %d", got, config.SearchLimit)
	}

	zero := 0
	if got := pageLimit(&zero); got != config.SearchLimit {
		t.Fatalf("zero limit: got %d, want %d", got, config.SearchLimit)
	}

	negative := -5
	if got := pageLimit(&negative); got != config.SearchLimit {
		t.Fatalf("negative limit: got %d, want %d", got, config.SearchLimit)
	}

	twentyFive := 25
	if got := pageLimit(&twentyFive); got != 25 {
		t.Fatalf("explicit limit: got %d, want 25", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	encoded := EncodeCursor("Pho House 2")
	decoded, err := DecodeCursor(&encoded)
	if err != nil {
		t.Fatalf("DecodeCursor: %v", err)
	}
	if decoded != "Pho House 2" {
		t.Fatalf("got %q", decoded)
	}

	if decoded, err := DecodeCursor(nil); err != nil || decoded != "" {
		t.Fatalf("nil cursor: got %q, %v", decoded, err)
	}

	bad := "not base64!"
	if _, err := DecodeCursor(&bad); err == nil {
		t.Fatalf("expected invalid cursor to be rejected")
	}
}
