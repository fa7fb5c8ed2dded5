package mapping

import (
	"errors"
	"fmt"
)

// ErrUnavailable signals that a provider cannot provide right now. If no
// other non-partial provider succeeds in the same recompute, the mapping is
// marked REMOVED.
var ErrUnavailable = errors.New("mapping: provider unavailable")

// ErrClosedService is returned by any Service/Dispatcher operation attempted
// after Shutdown.
var ErrClosedService = errors.New("mapping: service closed")

// MappingError is a recoverable failure inside Provider.Provide. It is
// cached on the resolver and surfaced from Resolve until supplanted by a
// successful non-partial provider.
type MappingError struct {
	Provider string
	Cause    error
}

// NewMappingError wraps cause as a MappingError attributed to provider.
func NewMappingError(provider string, cause error) *MappingError {
	return &MappingError{Provider: provider, Cause: cause}
}

func (e *MappingError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("mapping: provide failed: %v", e.Cause)
	}
	return fmt.Sprintf("mapping: provide failed (provider %s): %v", e.Provider, e.Cause)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *MappingError) Unwrap() error {
	return e.Cause
}

// UnexpectedProviderError wraps any panic or non-sentinel error raised by a
// provider's Provide call. Per spec §7 it is treated exactly like a
// MappingError by the resolver.
type UnexpectedProviderError struct {
	Provider string
	Cause    error
}

func (e *UnexpectedProviderError) Error() string {
	return fmt.Sprintf("mapping: unexpected error from provider %s: %v", e.Provider, e.Cause)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *UnexpectedProviderError) Unwrap() error {
	return e.Cause
}

// AsMappingError normalizes any error returned by a provider's Provide call
// into the two recoverable-failure cases the resolver understands: true
// alongside the resulting *MappingError, or false if err signals
// ErrUnavailable (not a cached failure at all).
func AsMappingError(providerName string, err error) (*MappingError, bool) {
	if err == nil {
		return nil, false
	}
	if errors.Is(err, ErrUnavailable) {
		return nil, false
	}

	var me *MappingError
	if errors.As(err, &me) {
		return me, true
	}
	return NewMappingError(providerName, &UnexpectedProviderError{Provider: providerName, Cause: err}), true
}
