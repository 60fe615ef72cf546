package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a symbol the provider does not know.
var ErrNotFound = errors.New("symbol not found")

// FetchError wraps any failure of an upstream data provider.
type FetchError struct {
	Provider string
	Symbol   string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch %s: %v", e.Provider, e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NewFetchError wraps err for provider and symbol.
func NewFetchError(provider, symbol string, err error) *FetchError {
	return &FetchError{Provider: provider, Symbol: symbol, Err: err}
}
