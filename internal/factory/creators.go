package factory

import (
	"fmt"

	"github.com/aps28id/id28-core/internal/device"
	"github.com/aps28id/id28-core/internal/geometry"
)

// CreateMotors builds a motor device from a motor_factory record.
// A record with one motors entry becomes a single motor; more entries
// become a motor bundle whose axes keep the record's order.
func CreateMotors(rec device.Record) ([]*device.Device, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	if rec.Motors.Len() == 0 {
		return nil, fmt.Errorf("%w: motor record %q needs a motors map", ErrMissingAxes, rec.Name)
	}
	if rec.Reals.Len() != 0 {
		return nil, fmt.Errorf("%w: motor record %q must not declare reals", ErrConflictingAxes, rec.Name)
	}

	kind := device.KindMotor
	if rec.Motors.Len() > 1 {
		kind = device.KindMotorBundle
	}

	dev := &device.Device{
		Name:      rec.Name,
		Kind:      kind,
		Labels:    rec.Labels,
		Simulated: rec.Simulated,
		Axes:      rec.Motors.Keys(),
		PVs:       resolveAxes(rec, rec.Motors),
	}
	return []*device.Device{dev}, nil
}

// CreateDiffractometer builds a diffractometer device. The record's reals
// must match the geometry's canonical axis order exactly; an empty suffix
// marks a soft axis. Auxiliary drive motors (e.g. a detector arm screw) go
// in the motors map and virtual axes bind them to computed reals.
func CreateDiffractometer(rec device.Record) ([]*device.Device, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	if rec.Geometry == "" {
		return nil, fmt.Errorf("%w: record %q", ErrMissingGeometry, rec.Name)
	}

	geom, err := geometry.Lookup(rec.Geometry)
	if err != nil {
		return nil, err
	}
	if err := geom.ValidateRealOrder(rec.Reals.Keys()); err != nil {
		return nil, err
	}

	solver := rec.Solver
	if solver == "" {
		solver = geom.Solver
	}

	pvs := resolveAxes(rec, rec.Reals)
	for axis, pv := range resolveAxes(rec, rec.Motors) {
		pvs[axis] = pv
	}

	axes := rec.Reals.Keys()
	axes = append(axes, rec.Motors.Keys()...)

	virtual, err := normaliseVirtualAxes(rec)
	if err != nil {
		return nil, err
	}

	dev := &device.Device{
		Name:      rec.Name,
		Kind:      device.KindDiffractometer,
		Labels:    rec.Labels,
		Geometry:  geom.Name,
		Solver:    solver,
		Simulated: rec.Simulated,
		Axes:      axes,
		PVs:       pvs,
		Virtual:   virtual,
	}
	return []*device.Device{dev}, nil
}

// normaliseVirtualAxes validates virtual axis declarations against the
// record and fills in the default tangent arm radius and travel limits.
func normaliseVirtualAxes(rec device.Record) ([]device.VirtualAxis, error) {
	if len(rec.Virtual) == 0 {
		return nil, nil
	}

	out := make([]device.VirtualAxis, 0, len(rec.Virtual))
	for _, v := range rec.Virtual {
		if !rec.Reals.Has(v.Axis) {
			return nil, fmt.Errorf("%w: %q is not a real axis of %q", ErrVirtualAxis, v.Axis, rec.Name)
		}
		if suffix, ok := rec.Reals.Get(v.Axis); ok && suffix != "" {
			return nil, fmt.Errorf("%w: %q on %q has both a motor suffix and a drive", ErrVirtualAxis, v.Axis, rec.Name)
		}
		if !rec.Motors.Has(v.Drive) {
			return nil, fmt.Errorf("%w: drive %q is not a motor of %q", ErrVirtualAxis, v.Drive, rec.Name)
		}

		radius := v.Radius
		if radius == 0 {
			radius = geometry.DefaultArmRadius
		}
		arm, err := geometry.NewTangentArm(radius)
		if err != nil {
			return nil, fmt.Errorf("virtual axis %q on %q: %w", v.Axis, rec.Name, err)
		}

		if v.Low != 0 || v.High != 0 {
			if v.Low >= v.High {
				return nil, fmt.Errorf("%w: %q on %q travel limits [%v, %v]",
					ErrVirtualAxis, v.Axis, rec.Name, v.Low, v.High)
			}
			arm.Low, arm.High = v.Low, v.High
		}
		low, high := arm.Limits()

		out = append(out, device.VirtualAxis{
			Axis: v.Axis, Drive: v.Drive, Radius: radius, Low: low, High: high,
		})
	}
	return out, nil
}

// CreateScaler builds a scaler device from its channel map.
func CreateScaler(rec device.Record) ([]*device.Device, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	if rec.Channels.Len() == 0 {
		return nil, fmt.Errorf("%w: scaler record %q needs a channels map", ErrMissingAxes, rec.Name)
	}

	dev := &device.Device{
		Name:      rec.Name,
		Kind:      device.KindScaler,
		Labels:    rec.Labels,
		Simulated: rec.Simulated,
		Axes:      rec.Channels.Keys(),
		PVs:       resolveAxes(rec, rec.Channels),
	}
	return []*device.Device{dev}, nil
}

// CreateAreaDetector builds an area detector device. The channels map names
// the IOC plugins (cam, image, HDF1, ...); a detector with no plugins
// listed is just the prefix.
func CreateAreaDetector(rec device.Record) ([]*device.Device, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	dev := &device.Device{
		Name:      rec.Name,
		Kind:      device.KindAreaDetector,
		Labels:    rec.Labels,
		Simulated: rec.Simulated,
		Axes:      rec.Channels.Keys(),
		PVs:       resolveAxes(rec, rec.Channels),
	}
	return []*device.Device{dev}, nil
}

// CreateSignal builds a single-PV signal device.
func CreateSignal(rec device.Record) ([]*device.Device, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	if rec.PV == "" {
		return nil, fmt.Errorf("%w: record %q", ErrMissingPV, rec.Name)
	}

	dev := &device.Device{
		Name:      rec.Name,
		Kind:      device.KindSignal,
		Labels:    rec.Labels,
		Simulated: rec.Simulated,
		Axes:      []string{"value"},
		PVs:       map[string]string{"value": rec.ResolvePV(rec.PV)},
	}
	return []*device.Device{dev}, nil
}

// resolveAxes builds the axis-to-PV map for connected axes.
// Axes with an empty suffix are soft and get no entry.
func resolveAxes(rec device.Record, axes device.AxisMap) map[string]string {
	pvs := make(map[string]string, axes.Len())
	for _, p := range axes.Pairs() {
		if p.Value == "" {
			continue
		}
		pvs[p.Key] = rec.ResolvePV(p.Value)
	}
	return pvs
}
