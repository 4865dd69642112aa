package port

import "errors"

// Sentinel errors used across ports.
var (
	// ErrNoCredential means neither the request header nor the environment
	// provided an API credential; no remote call is attempted.
	ErrNoCredential = errors.New("no API credential configured")

	// ErrDimensionMismatch means a query vector does not match the
	// dimensionality the index was built with, so similarity scores would
	// be meaningless.
	ErrDimensionMismatch = errors.New("embedding dimension does not match index")
)
