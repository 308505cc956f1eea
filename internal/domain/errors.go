package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidType indicates an unsupported observation type was supplied.
	ErrInvalidType = errors.New("invalid metric type")
	// ErrInvalidKey is returned for metric keys outside the 2..4 component range.
	ErrInvalidKey = errors.New("invalid metric key")
	// ErrInvalidValue is returned for missing, non-finite or negative observation values.
	ErrInvalidValue = errors.New("invalid metric value")
	// ErrUnknownMetric is returned when a key was never configured in the store.
	ErrUnknownMetric = errors.New("unknown metric")
)
