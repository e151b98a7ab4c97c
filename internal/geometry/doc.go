// Package geometry defines the diffractometer geometry table used when
// building diffractometer devices from configuration records.
//
// Each geometry names a kinematic scheme: the backend solver that computes
// it, the canonical ordering of its real motor axes, its pseudo axes, and
// the operating modes the solver supports. The canonical real-axis order is
// load-bearing: configuration records must list their real axes in exactly
// this order so that positions map onto the correct physical motors.
//
// The package also provides TangentArm, the forward/inverse transform for a
// detector arm whose angle is driven by a linear screw translation rather
// than a rotary stage.
package geometry
