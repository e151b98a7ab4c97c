package factory

import "errors"

// Domain-specific errors for factory dispatch and record creation.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnknownTag is returned when the devices file uses a factory tag
	// with no registered creator.
	ErrUnknownTag = errors.New("factory: unknown factory tag")

	// ErrTagRegistered is returned when registering a creator under a tag
	// that already has one.
	ErrTagRegistered = errors.New("factory: tag already registered")

	// ErrMissingAxes is returned when a record omits the axis or channel
	// map its factory requires.
	ErrMissingAxes = errors.New("factory: record has no axes")

	// ErrMissingGeometry is returned when a diffractometer record has no
	// geometry name.
	ErrMissingGeometry = errors.New("factory: diffractometer record requires a geometry")

	// ErrMissingPV is returned when a signal record has no pv suffix.
	ErrMissingPV = errors.New("factory: signal record requires a pv")

	// ErrVirtualAxis is returned when a virtual axis declaration is
	// inconsistent with the record's axes.
	ErrVirtualAxis = errors.New("factory: invalid virtual axis")

	// ErrConflictingAxes is returned when a record declares an axis map
	// its factory does not accept. Only diffractometer records combine
	// reals with motors.
	ErrConflictingAxes = errors.New("factory: conflicting axis maps")
)
