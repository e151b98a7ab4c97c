package geometry

import (
	"errors"
	"strings"
	"testing"
)

func TestLookup_KnownGeometries(t *testing.T) {
	tests := []struct {
		name      string
		wantReals string
	}{
		{"E4CV", "omega chi phi tth"},
		{"E6C", "mu omega chi phi gamma delta"},
		{"K4CV", "komega kappa kphi tth"},
		{"PETRA3 P09 EH2", "mu theta chi phi gamma delta"},
		{"APS POLAR", "mu theta chi phi gamma delta"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Lookup(tt.name)
			if err != nil {
				t.Fatalf("Lookup(%q) error: %v", tt.name, err)
			}
			if g.Solver != "hkl_soleil" {
				t.Errorf("Solver = %q, want %q", g.Solver, "hkl_soleil")
			}
			got := strings.Join(g.Reals, " ")
			if got != tt.wantReals {
				t.Errorf("Reals = %q, want %q", got, tt.wantReals)
			}
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("Z9X")
	if !errors.Is(err, ErrUnknownGeometry) {
		t.Fatalf("Lookup(unknown) error = %v, want ErrUnknownGeometry", err)
	}
}

func TestAPSPolar_PsiConstantModes(t *testing.T) {
	g, err := Lookup("APS POLAR")
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}

	want := map[string]bool{
		"psi constant horizontal": false,
		"psi constant vertical":   false,
	}
	for _, mode := range g.Modes {
		if _, ok := want[mode]; ok {
			want[mode] = true
		}
	}
	for mode, found := range want {
		if !found {
			t.Errorf("APS POLAR missing mode %q", mode)
		}
	}
}

func TestValidateRealOrder(t *testing.T) {
	g, err := Lookup("APS POLAR")
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}

	tests := []struct {
		name    string
		reals   []string
		wantErr bool
	}{
		{
			name:  "canonical order",
			reals: []string{"mu", "theta", "chi", "phi", "gamma", "delta"},
		},
		{
			name:    "swapped axes",
			reals:   []string{"theta", "mu", "chi", "phi", "gamma", "delta"},
			wantErr: true,
		},
		{
			name:    "missing axis",
			reals:   []string{"mu", "theta", "chi", "phi", "gamma"},
			wantErr: true,
		},
		{
			name:    "extra axis",
			reals:   []string{"mu", "theta", "chi", "phi", "gamma", "delta", "nu"},
			wantErr: true,
		},
		{
			name:    "wrong axis name",
			reals:   []string{"mu", "omega", "chi", "phi", "gamma", "delta"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.ValidateRealOrder(tt.reals)
			if tt.wantErr {
				if !errors.Is(err, ErrRealOrder) {
					t.Errorf("ValidateRealOrder() error = %v, want ErrRealOrder", err)
				}
			} else if err != nil {
				t.Errorf("ValidateRealOrder() error = %v, want nil", err)
			}
		})
	}
}

func TestNames_Sorted(t *testing.T) {
	names := Names()
	if len(names) != 5 {
		t.Fatalf("Names() returned %d geometries, want 5", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("Names() not sorted: %q before %q", names[i-1], names[i])
		}
	}
}
