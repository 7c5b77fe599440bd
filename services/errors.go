package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a market data failure for API consumers
type ErrorKind string

const (
	KindUpstreamFetch    ErrorKind = "upstream_fetch"
	KindInsufficientData ErrorKind = "insufficient_data"
	KindInvalidSymbol    ErrorKind = "invalid_symbol"
)

// MarketError is a classified market data failure carrying the symbol it
// concerns and the underlying cause
type MarketError struct {
	Kind   ErrorKind
	Symbol string
	Err    error
}

func (e *MarketError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.Kind, e.Symbol, e.Err)
	}
	return fmt.Sprintf("%s (%s)", e.Kind, e.Symbol)
}

func (e *MarketError) Unwrap() error {
	return e.Err
}

func upstreamError(symbol string, err error) *MarketError {
	return &MarketError{Kind: KindUpstreamFetch, Symbol: symbol, Err: err}
}

func insufficientDataError(symbol string, err error) *MarketError {
	return &MarketError{Kind: KindInsufficientData, Symbol: symbol, Err: err}
}

func invalidSymbolError(symbol string) *MarketError {
	return &MarketError{Kind: KindInvalidSymbol, Symbol: symbol}
}

// KindOf extracts the error kind, defaulting to upstream_fetch for
// unclassified failures
func KindOf(err error) ErrorKind {
	var me *MarketError
	if errors.As(err, &me) {
		return me.Kind
	}
	return KindUpstreamFetch
}
