package domain

import "errors"

// Buffer pipeline errors.
var (
	ErrInvalidInputKind            = errors.New("too few coordinates")
	ErrUnsupportedInputType        = errors.New("unsupported input type")
	ErrBoundaryIntersectionMissing = errors.New("probe line does not cross the buffer boundary")
	ErrBoundaryIndexNotFound       = errors.New("boundary point not found on flat ring")
	ErrUnknownBufferMode           = errors.New("unknown buffer mode")
	ErrMissingBufferMode           = errors.New("buffer mode is required")
	ErrInvalidDistance             = errors.New("buffer distance must be a positive number")
)

// Layer store errors.
var (
	ErrLayerNotFound   = errors.New("layer not found")
	ErrLayerExists     = errors.New("layer already exists")
	ErrFeatureNotFound = errors.New("feature not found")
	ErrInvalidLayer    = errors.New("invalid layer")
	ErrInvalidFeature  = errors.New("invalid feature")
)

// ErrCacheMiss is returned by cache adapters when a key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")
