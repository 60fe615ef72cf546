package http

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
)

type tickerRequest struct {
	Symbol string `param:"symbol" validate:"required,ticker"`
}

func TestNewValidatorRegistersTicker(t *testing.T) {
	v, err := newValidator()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}
	for _, sym := range []string{"AAPL", "BRK-B", "^GSPC", "EURUSD=X", "0700.HK"} {
		if err := v.Struct(tickerRequest{Symbol: sym}); err != nil {
			t.Fatalf("%q rejected: %v", sym, err)
		}
	}

	err = v.Struct(tickerRequest{Symbol: "AA PL"})
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) != 1 {
		t.Fatalf("expected one validation error, got %v", err)
	}
	if verrs[0].Tag() != "ticker" || verrs[0].Field() != "symbol" {
		t.Fatalf("unexpected failure %s on %s", verrs[0].Tag(), verrs[0].Field())
	}
	if msg := getErrorMessage(verrs[0]); msg != "symbol is not a valid ticker symbol" {
		t.Fatalf("message %q", msg)
	}
}

func TestPackageValidatorKnowsTicker(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("ticker tag not registered: %v", r)
		}
	}()
	if err := validate.Struct(tickerRequest{Symbol: "MSFT"}); err != nil {
		t.Fatalf("validate: %v", err)
	}
}
