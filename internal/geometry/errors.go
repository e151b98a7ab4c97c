package geometry

import "errors"

// Domain-specific errors for geometry lookups and validation.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnknownGeometry is returned when a geometry name is not in the table.
	ErrUnknownGeometry = errors.New("geometry: unknown geometry")

	// ErrRealOrder is returned when a record's real axes do not match the
	// geometry's canonical order.
	ErrRealOrder = errors.New("geometry: real axes do not match canonical order")

	// ErrInvalidRadius is returned when a tangent arm radius is zero or negative.
	ErrInvalidRadius = errors.New("geometry: tangent arm radius must be positive")

	// ErrTravelRange is returned when a screw travel position falls outside
	// the tangent arm's limits.
	ErrTravelRange = errors.New("geometry: screw travel outside limits")
)
