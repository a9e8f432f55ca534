package llm

import "fmt"

// ProviderError wraps a failed model round trip.
type ProviderError struct {
	Provider string
	Err      error
}

func (e ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e ProviderError) Unwrap() error {
	return e.Err
}
