package update

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedFilename is returned when a catalog entry cannot be decoded into a Candidate.
	ErrMalformedFilename = errors.New("malformed filename")
	// ErrMalformedRequest is returned when a required request parameter is missing.
	ErrMalformedRequest = errors.New("malformed request")
	// ErrAmbiguousCatalog is returned when more than one artifact matches an image and device pair.
	ErrAmbiguousCatalog = errors.New("more than one matching update image")
	// ErrInvalidLayout is returned when a filename field layout cannot be used.
	ErrInvalidLayout = errors.New("invalid filename field layout")
)

// AmbiguousCatalogError describes a provisioning mistake in the artifact directory.
type AmbiguousCatalogError struct {
	// Image is the requested image identifier.
	Image string
	// Device is the requested device type.
	Device string
	// ArtifactNames lists the conflicting filenames in lexical order.
	ArtifactNames []string
}

// Error implements the error interface.
func (e *AmbiguousCatalogError) Error() string {
	return fmt.Sprintf("%s for image %q and device %q: %s",
		ErrAmbiguousCatalog, e.Image, e.Device, strings.Join(e.ArtifactNames, ", "))
}

// Unwrap lets errors.Is match ErrAmbiguousCatalog.
func (e *AmbiguousCatalogError) Unwrap() error {
	return ErrAmbiguousCatalog
}
