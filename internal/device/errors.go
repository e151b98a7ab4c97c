package device

import "errors"

// Domain-specific errors for device records and the catalog.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotFound is returned when a device does not exist in the catalog.
	ErrNotFound = errors.New("device: not found")

	// ErrDuplicateName is returned when adding a device whose name is
	// already present in the catalog.
	ErrDuplicateName = errors.New("device: duplicate name")

	// ErrInvalidName is returned when a record name is empty or not a
	// valid identifier.
	ErrInvalidName = errors.New("device: invalid name")

	// ErrInvalidPV is returned when a PV prefix or suffix contains
	// characters outside the EPICS naming rules.
	ErrInvalidPV = errors.New("device: invalid PV name")

	// ErrMissingPrefix is returned when a non-simulated record has no PV
	// prefix.
	ErrMissingPrefix = errors.New("device: prefix required for non-simulated record")

	// ErrDuplicateAxis is returned when an axis map contains the same key
	// twice.
	ErrDuplicateAxis = errors.New("device: duplicate axis key")

	// ErrInvalidLabel is returned when a grouping label is empty or
	// malformed.
	ErrInvalidLabel = errors.New("device: invalid label")

	// ErrDuplicateTag is returned when the devices file repeats a factory tag.
	ErrDuplicateTag = errors.New("device: duplicate factory tag")
)
