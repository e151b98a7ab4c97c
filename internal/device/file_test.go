package device

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleDevices = `
motor_factory:
- name: sample_x
  prefix: "28idc:"
  motors:
    value: m7
  labels: [motors, sample]
- name: sample_stage
  prefix: "28idc:"
  motors:
    x: m7
    y: m8
  labels: [motors, sample]

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
  labels: [diffractometer]

signal:
- name: ring_current
  prefix: "S:"
  pv: SRcurrentAI
  labels: [baseline]
`

func writeDevicesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "devices.yml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing devices file: %v", err)
	}
	return path
}

func TestLoad_SampleFile(t *testing.T) {
	path := writeDevicesFile(t, sampleDevices)

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	wantTags := []string{"motor_factory", "diffractometer", "signal"}
	got := f.Tags()
	if len(got) != len(wantTags) {
		t.Fatalf("Tags() = %v, want %v", got, wantTags)
	}
	for i := range wantTags {
		if got[i] != wantTags[i] {
			t.Errorf("Tags()[%d] = %q, want %q", i, got[i], wantTags[i])
		}
	}

	if len(f.Records()) != 4 {
		t.Errorf("Records() len = %d, want 4", len(f.Records()))
	}
}

func TestLoad_DiffractometerRecord(t *testing.T) {
	path := writeDevicesFile(t, sampleDevices)

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	var rec Record
	found := false
	for _, g := range f.Groups {
		if g.Tag != "diffractometer" {
			continue
		}
		rec = g.Records[0]
		found = true
	}
	if !found {
		t.Fatal("diffractometer group not found")
	}

	if rec.Name != "sixcidc" {
		t.Errorf("Name = %q, want sixcidc", rec.Name)
	}
	if rec.Geometry != "APS POLAR" {
		t.Errorf("Geometry = %q, want APS POLAR", rec.Geometry)
	}

	wantReals := []string{"mu", "theta", "chi", "phi", "gamma", "delta"}
	keys := rec.Reals.Keys()
	for i := range wantReals {
		if keys[i] != wantReals[i] {
			t.Errorf("Reals key %d = %q, want %q", i, keys[i], wantReals[i])
		}
	}

	if len(rec.Virtual) != 1 {
		t.Fatalf("Virtual len = %d, want 1", len(rec.Virtual))
	}
	v := rec.Virtual[0]
	if v.Axis != "gamma" || v.Drive != "gamscrew" || v.Radius != 500.0 {
		t.Errorf("Virtual = %+v, want {gamma gamscrew 500}", v)
	}
}

func TestParse_DuplicateTag(t *testing.T) {
	input := `
motor_factory:
- name: a
  prefix: "p:"
motor_factory:
- name: b
  prefix: "p:"
`
	_, err := Parse([]byte(input))
	if !errors.Is(err, ErrDuplicateTag) {
		t.Fatalf("Parse() error = %v, want ErrDuplicateTag", err)
	}
}

func TestParse_DuplicateAxisInRecord(t *testing.T) {
	input := `
motor_factory:
- name: bad
  prefix: "p:"
  motors:
    x: m1
    x: m2
`
	_, err := Parse([]byte(input))
	if !errors.Is(err, ErrDuplicateAxis) {
		t.Fatalf("Parse() error = %v, want ErrDuplicateAxis", err)
	}
}

func TestParse_NonMappingRoot(t *testing.T) {
	if _, err := Parse([]byte("- just\n- a list\n")); err == nil {
		t.Fatal("Parse() of sequence root expected error, got nil")
	}
}

func TestParse_EmptyFile(t *testing.T) {
	f, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(empty) error: %v", err)
	}
	if len(f.Groups) != 0 {
		t.Errorf("Groups len = %d, want 0", len(f.Groups))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Fatal("Load() of missing file expected error, got nil")
	}
}
