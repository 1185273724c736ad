package core

import "errors"

var (
	// ErrCatalogStatus is returned when the model catalog answers with a non-200 status.
	ErrCatalogStatus = errors.New("model catalog returned unexpected status")
	// ErrMalformedCatalog is returned when the catalog body is not a recognised model list.
	ErrMalformedCatalog = errors.New("malformed model catalog response")
	// ErrCatalogNotConfigured is returned when no catalog URL is set.
	ErrCatalogNotConfigured = errors.New("model catalog URL not configured")
	// ErrFallbackNotAllowed is returned when the fallback model is missing from the allow-list.
	ErrFallbackNotAllowed = errors.New("fallback model is not in the allow-list")
)
