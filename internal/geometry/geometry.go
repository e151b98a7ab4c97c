package geometry

import (
	"fmt"
	"sort"
	"strings"
)

// Geometry describes one diffractometer kinematic scheme.
type Geometry struct {
	// Name is the geometry identifier as used in configuration records
	// (e.g. "E4CV", "APS POLAR").
	Name string

	// Solver is the backend that computes this geometry's kinematics.
	Solver string

	// Reals is the canonical ordering of the real motor axes.
	// Configuration records must list their reals in exactly this order.
	Reals []string

	// Pseudos are the reciprocal-space axes produced by the solver.
	Pseudos []string

	// Modes are the operating modes the solver supports for this geometry.
	Modes []string
}

// builtin is the table of supported geometries.
//
// APS POLAR is the P09 EH2 six-circle scheme extended with the two
// psi-constant modes; both share the same real-axis order.
var builtin = map[string]Geometry{
	"E4CV": {
		Name:    "E4CV",
		Solver:  "hkl_soleil",
		Reals:   []string{"omega", "chi", "phi", "tth"},
		Pseudos: []string{"h", "k", "l"},
		Modes:   []string{"bissector", "constant_omega", "constant_chi", "constant_phi"},
	},
	"E6C": {
		Name:    "E6C",
		Solver:  "hkl_soleil",
		Reals:   []string{"mu", "omega", "chi", "phi", "gamma", "delta"},
		Pseudos: []string{"h", "k", "l"},
		Modes:   []string{"bissector_vertical", "constant_mu_vertical", "lifting_detector_mu"},
	},
	"K4CV": {
		Name:    "K4CV",
		Solver:  "hkl_soleil",
		Reals:   []string{"komega", "kappa", "kphi", "tth"},
		Pseudos: []string{"h", "k", "l"},
		Modes:   []string{"bissector", "constant_omega", "constant_chi", "constant_phi"},
	},
	"PETRA3 P09 EH2": {
		Name:    "PETRA3 P09 EH2",
		Solver:  "hkl_soleil",
		Reals:   []string{"mu", "theta", "chi", "phi", "gamma", "delta"},
		Pseudos: []string{"h", "k", "l"},
		Modes:   []string{"zaxis + alpha-fixed", "zaxis + beta-fixed", "4-circles bissecting horizontal"},
	},
	"APS POLAR": {
		Name:    "APS POLAR",
		Solver:  "hkl_soleil",
		Reals:   []string{"mu", "theta", "chi", "phi", "gamma", "delta"},
		Pseudos: []string{"h", "k", "l"},
		Modes: []string{
			"zaxis + alpha-fixed", "zaxis + beta-fixed",
			"4-circles bissecting horizontal",
			"psi constant horizontal", "psi constant vertical",
		},
	},
}

// Lookup returns the geometry with the given name.
// Returns ErrUnknownGeometry if the name is not in the table.
func Lookup(name string) (Geometry, error) {
	g, ok := builtin[name]
	if !ok {
		return Geometry{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownGeometry, name, strings.Join(Names(), ", "))
	}
	return g, nil
}

// Names returns the sorted names of all supported geometries.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateRealOrder checks that names matches the geometry's canonical
// real-axis order exactly: same axes, same sequence, nothing missing or
// extra. Returns ErrRealOrder describing the first mismatch.
func (g Geometry) ValidateRealOrder(names []string) error {
	if len(names) != len(g.Reals) {
		return fmt.Errorf("%w: %s expects %d reals (%s), got %d",
			ErrRealOrder, g.Name, len(g.Reals), strings.Join(g.Reals, " "), len(names))
	}
	for i, want := range g.Reals {
		if names[i] != want {
			return fmt.Errorf("%w: %s real %d must be %q, got %q",
				ErrRealOrder, g.Name, i, want, names[i])
		}
	}
	return nil
}
