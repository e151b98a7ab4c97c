package device

// Kind classifies a built device.
type Kind string

// Device kinds produced by the builtin factories.
const (
	KindMotor          Kind = "motor"
	KindMotorBundle    Kind = "motor_bundle"
	KindDiffractometer Kind = "diffractometer"
	KindScaler         Kind = "scaler"
	KindAreaDetector   Kind = "area_detector"
	KindSignal         Kind = "signal"
)

// Record is one entry in the devices file. Which fields are meaningful
// depends on the factory tag the record appears under: motor records use
// Motors, diffractometer records use Reals (and optionally Motors for
// auxiliary drives), scalers and area detectors use Channels, signals use
// PV.
type Record struct {
	// Name is the unique in-memory handle for the built device.
	Name string `yaml:"name"`

	// Prefix is the EPICS PV prefix shared by the device's channels,
	// typically ending in ":" (e.g. "28idc:"). May be empty only for
	// simulated records.
	Prefix string `yaml:"prefix"`

	// Motors maps logical axis names to PV suffixes for motor devices,
	// and carries auxiliary drive axes for diffractometers.
	Motors AxisMap `yaml:"motors"`

	// Reals maps real axis names to PV suffixes for diffractometers.
	// Keys must appear in the geometry's canonical order. An empty suffix
	// marks a soft (unconnected) axis.
	Reals AxisMap `yaml:"reals"`

	// Geometry names the diffractometer geometry (see internal/geometry).
	Geometry string `yaml:"geometry"`

	// Solver overrides the geometry's default solver. Rarely needed.
	Solver string `yaml:"solver"`

	// Channels maps signal names to PV suffixes for scalers and area
	// detector plugins.
	Channels AxisMap `yaml:"channels"`

	// PV is the suffix for single-signal records.
	PV string `yaml:"pv"`

	// Virtual declares computed axes driven by another axis through a
	// tangent-arm transform.
	Virtual []VirtualAxis `yaml:"virtual"`

	// Labels group devices for later filtering by client tooling.
	Labels []string `yaml:"labels"`

	// Simulated marks a record with no hardware behind it. Simulated
	// records may omit the prefix and leave axis suffixes empty.
	Simulated bool `yaml:"simulated"`
}

// VirtualAxis declares a real axis whose position is computed from a drive
// axis through a tangent-arm transform rather than read from its own motor.
type VirtualAxis struct {
	// Axis is the real axis being computed (e.g. "gamma").
	Axis string `yaml:"axis" json:"axis"`

	// Drive is the motor axis that physically moves (e.g. "gamscrew").
	// It must appear in the record's Motors map.
	Drive string `yaml:"drive" json:"drive"`

	// Radius is the tangent arm radius. Zero selects the default.
	Radius float64 `yaml:"radius" json:"radius"`

	// Low and High bound the drive screw travel. Both zero selects the
	// default limits.
	Low  float64 `yaml:"low" json:"low,omitempty"`
	High float64 `yaml:"high" json:"high,omitempty"`
}

// Device is the resolved blueprint built from a Record by a factory.
// All PV names are fully qualified and axis ordering is canonical.
type Device struct {
	Name      string        `json:"name"`
	Kind      Kind          `json:"kind"`
	Labels    []string      `json:"labels,omitempty"`
	Geometry  string        `json:"geometry,omitempty"`
	Solver    string        `json:"solver,omitempty"`
	Simulated bool          `json:"simulated,omitempty"`
	Virtual   []VirtualAxis `json:"virtual,omitempty"`

	// Axes lists the device's logical axes or channels in canonical order.
	Axes []string `json:"axes,omitempty"`

	// PVs maps each connected axis or channel to its full PV name.
	// Soft axes have no entry.
	PVs map[string]string `json:"pvs,omitempty"`
}

// PV returns the full PV name for an axis or channel, and whether the axis
// is connected to hardware.
func (d *Device) PV(axis string) (string, bool) {
	pv, ok := d.PVs[axis]
	return pv, ok
}

// HasLabel reports whether the device carries the given label.
func (d *Device) HasLabel(label string) bool {
	for _, l := range d.Labels {
		if l == label {
			return true
		}
	}
	return false
}
