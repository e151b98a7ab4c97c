package geometry

import (
	"fmt"
	"math"
)

// Tangent arm defaults.
const (
	// DefaultArmRadius is the arm radius in the same engineering units as
	// the screw translation.
	DefaultArmRadius = 10_000.0

	// DefaultScrewLow and DefaultScrewHigh bound the screw travel.
	DefaultScrewLow  = -10.0
	DefaultScrewHigh = 250.0

	degreesPerRadian = 180.0 / math.Pi
)

// TangentArm converts between the linear travel of a screw and the angle of
// the detector arm it drives. The arm pivots at a fixed radius, so the angle
// is the arctangent of travel over radius.
type TangentArm struct {
	// Radius is the arm length from pivot to screw attachment.
	Radius float64

	// Low and High bound the screw travel. Both zero selects the
	// default limits.
	Low  float64
	High float64
}

// NewTangentArm returns a TangentArm with the given radius and the
// default travel limits. A zero or negative radius returns
// ErrInvalidRadius.
func NewTangentArm(radius float64) (TangentArm, error) {
	if radius <= 0 {
		return TangentArm{}, fmt.Errorf("%w: %v", ErrInvalidRadius, radius)
	}
	return TangentArm{Radius: radius, Low: DefaultScrewLow, High: DefaultScrewHigh}, nil
}

// Limits returns the effective screw travel bounds.
func (t TangentArm) Limits() (low, high float64) {
	if t.Low == 0 && t.High == 0 {
		return DefaultScrewLow, DefaultScrewHigh
	}
	return t.Low, t.High
}

// CheckTravel reports whether a screw travel position is within the arm's
// limits. Returns ErrTravelRange when it is not.
func (t TangentArm) CheckTravel(travel float64) error {
	low, high := t.Limits()
	if travel < low || travel > high {
		return fmt.Errorf("%w: %v outside [%v, %v]", ErrTravelRange, travel, low, high)
	}
	return nil
}

// Angle returns the arm angle in degrees for a screw travel position.
func (t TangentArm) Angle(travel float64) float64 {
	return math.Atan2(travel, t.Radius) * degreesPerRadian
}

// Travel returns the screw travel position for an arm angle in degrees.
func (t TangentArm) Travel(angle float64) float64 {
	return t.Radius * math.Tan(angle/degreesPerRadian)
}
