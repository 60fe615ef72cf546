package repository

import (
	"errors"
	"testing"
)

func TestNormalizeInterval(t *testing.T) {
	if NormalizeInterval("") != Interval1m {
		t.Fatalf("expected default interval")
	}
	if NormalizeInterval("5min") != Interval5m {
		t.Fatalf("expected 5min")
	}
	if NormalizeInterval("2h") != Interval1m {
		t.Fatalf("expected fallback for unknown interval")
	}
}

func TestFetchErrorUnwrap(t *testing.T) {
	err := error(NewFetchError("yahoo", "ZZZZ", ErrNotFound))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound in chain")
	}
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Provider != "yahoo" {
		t.Fatalf("expected FetchError")
	}
}
