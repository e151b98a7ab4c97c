package factory

import (
	"errors"
	"testing"

	"github.com/aps28id/id28-core/internal/device"
)

const buildInput = `
motor_factory:
- name: sample_x
  prefix: "28idc:"
  motors:
    value: m7
  labels: [motors]

diffractometer:
- name: sixcidc
  prefix: "28idc:"
  geometry: APS POLAR
  reals:
    mu: m5
    theta: m2
    chi: m3
    phi: m4
    gamma: ""
    delta: m1
  motors:
    gamscrew: m6
  virtual:
  - axis: gamma
    drive: gamscrew
    radius: 500.0

signal:
- name: ring_current
  prefix: "S:"
  pv: SRcurrentAI
`

func TestRegistry_BuiltinTags(t *testing.T) {
	r := NewRegistry()

	for _, tag := range []string{"motor_factory", "diffractometer", "scaler", "area_detector", "signal"} {
		if _, ok := r.Creator(tag); !ok {
			t.Errorf("Creator(%q) not registered", tag)
		}
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	custom := func(rec device.Record) ([]*device.Device, error) {
		return []*device.Device{{Name: rec.Name, Kind: device.KindSignal}}, nil
	}

	if err := r.Register("undulator", custom); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if _, ok := r.Creator("undulator"); !ok {
		t.Error("Creator(undulator) not found after Register")
	}

	if err := r.Register("undulator", custom); !errors.Is(err, ErrTagRegistered) {
		t.Errorf("second Register() error = %v, want ErrTagRegistered", err)
	}
	if err := r.Register("motor_factory", custom); !errors.Is(err, ErrTagRegistered) {
		t.Errorf("Register(builtin tag) error = %v, want ErrTagRegistered", err)
	}
}

func TestRegistry_Build(t *testing.T) {
	f, err := device.Parse([]byte(buildInput))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	catalog, err := NewRegistry().Build(f)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if catalog.Len() != 3 {
		t.Fatalf("catalog Len() = %d, want 3", catalog.Len())
	}

	// Insertion order follows file order.
	names := catalog.Names()
	want := []string{"sample_x", "sixcidc", "ring_current"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	sixc, err := catalog.Get("sixcidc")
	if err != nil {
		t.Fatalf("Get(sixcidc) error: %v", err)
	}
	if sixc.Geometry != "APS POLAR" {
		t.Errorf("Geometry = %q, want APS POLAR", sixc.Geometry)
	}
}

func TestRegistry_Build_UnknownTag(t *testing.T) {
	f, err := device.Parse([]byte("mystery_factory:\n- name: x\n  prefix: \"p:\"\n"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	_, err = NewRegistry().Build(f)
	if !errors.Is(err, ErrUnknownTag) {
		t.Fatalf("Build() error = %v, want ErrUnknownTag", err)
	}
}

func TestRegistry_Build_DuplicateNameAcrossTags(t *testing.T) {
	input := `
motor_factory:
- name: twin
  prefix: "28idc:"
  motors:
    value: m1

signal:
- name: twin
  prefix: "28idc:"
  pv: sig1
`
	f, err := device.Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	_, err = NewRegistry().Build(f)
	if !errors.Is(err, device.ErrDuplicateName) {
		t.Fatalf("Build() error = %v, want ErrDuplicateName", err)
	}
}

func TestRegistry_Build_RecordErrorNamesRecord(t *testing.T) {
	input := `
diffractometer:
- name: broken
  prefix: "28idc:"
`
	f, err := device.Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	_, err = NewRegistry().Build(f)
	if !errors.Is(err, ErrMissingGeometry) {
		t.Fatalf("Build() error = %v, want ErrMissingGeometry", err)
	}
}
