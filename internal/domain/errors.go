package domain

import (
	"errors"
	"fmt"
)

var (
	ErrItemNotFound      = errors.New("item not found")
	ErrEmptyComment      = errors.New("comment text is empty")
	ErrCatalogDisabled   = errors.New("catalog store not configured")
	ErrAttachmentTooLong = errors.New("attachment exceeds upload limit")
)

// InternalErrorMessage is the only text surfaced to callers for unexpected failures.
const InternalErrorMessage = "internal server error"

// ProviderConfigError reports a missing provider credential.
type ProviderConfigError struct {
	Variable string
}

func (e *ProviderConfigError) Error() string {
	return e.Variable + " not configured"
}

// ProviderResponseError reports a call the remote provider explicitly rejected.
type ProviderResponseError struct {
	Provider string
	Message  string
	Status   int
}

func (e *ProviderResponseError) Error() string {
	return e.Message
}

// Prefixed returns the message labelled with the provider that produced it.
func (e *ProviderResponseError) Prefixed() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// PublicMessage returns the text safe to surface to a client for err.
// Provider errors pass through verbatim, everything else collapses to InternalErrorMessage.
func PublicMessage(err error) string {
	var cfgErr *ProviderConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr.Error()
	}
	var respErr *ProviderResponseError
	if errors.As(err, &respErr) {
		return respErr.Error()
	}
	return InternalErrorMessage
}

// IsProviderError reports whether err belongs to the provider taxonomy.
func IsProviderError(err error) bool {
	var cfgErr *ProviderConfigError
	var respErr *ProviderResponseError
	return errors.As(err, &cfgErr) || errors.As(err, &respErr)
}
