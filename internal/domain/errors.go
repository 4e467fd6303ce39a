// Package domain holds sentinel errors shared across the service layers.
package domain

import "errors"

var (
	// ErrNotFound signals a requested SBOM is not cataloged.
	ErrNotFound = errors.New("sbom not found")

	// ErrAlreadyExists signals an upload colliding with a cataloged filename.
	ErrAlreadyExists = errors.New("sbom already exists")

	// ErrInvalidInput signals a request that failed validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedDocument signals a stored file that is not valid JSON.
	ErrMalformedDocument = errors.New("malformed sbom document")

	// ErrGeneratorFailed signals that the external SBOM generator subprocess
	// failed or produced unusable output.
	ErrGeneratorFailed = errors.New("sbom generation failed")
)
