package device

import (
	"fmt"
	"regexp"

	"github.com/aps28id/id28-core/internal/geometry"
)

// Naming rules.
//
// Device names become in-memory handles in the acquisition framework, so
// they must be plain identifiers. PV names follow the EPICS character set:
// alphanumerics plus : . _ - [ ] < > ;
var (
	namePattern  = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	pvPattern    = regexp.MustCompile(`^[a-zA-Z0-9:._\-\[\]<>;{}]+$`)
	labelPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

// maxPVLength bounds full PV names. EPICS records are limited to 60
// characters; keep headroom for field suffixes appended by the framework.
const maxPVLength = 60

// ValidateName checks that a record name is a valid identifier.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q must be an identifier (letters, digits, underscore)", ErrInvalidName, name)
	}
	return nil
}

// ValidatePVPrefix checks a PV prefix. An empty prefix is accepted here;
// Record.Validate rejects it for non-simulated records.
func ValidatePVPrefix(prefix string) error {
	if prefix == "" {
		return nil
	}
	if !pvPattern.MatchString(prefix) {
		return fmt.Errorf("%w: prefix %q", ErrInvalidPV, prefix)
	}
	if len(prefix) >= maxPVLength {
		return fmt.Errorf("%w: prefix %q exceeds %d characters", ErrInvalidPV, prefix, maxPVLength)
	}
	return nil
}

// ValidatePVSuffix checks a PV suffix. Empty suffixes are accepted: they
// mark soft axes on simulated or partially connected records.
func ValidatePVSuffix(suffix string) error {
	if suffix == "" {
		return nil
	}
	if !pvPattern.MatchString(suffix) {
		return fmt.Errorf("%w: suffix %q", ErrInvalidPV, suffix)
	}
	return nil
}

// ValidateLabel checks a grouping label.
func ValidateLabel(label string) error {
	if !labelPattern.MatchString(label) {
		return fmt.Errorf("%w: %q must be lowercase (letters, digits, underscore)", ErrInvalidLabel, label)
	}
	return nil
}

// Validate checks the record fields that are common to every factory tag:
// name, prefix, geometry name, axis suffixes, and labels. Factory creators
// layer their own per-kind checks (reals ordering, required maps) on top.
func (r Record) Validate() error {
	if err := ValidateName(r.Name); err != nil {
		return err
	}

	if r.Prefix == "" && !r.Simulated {
		return fmt.Errorf("%w: %q", ErrMissingPrefix, r.Name)
	}
	if err := ValidatePVPrefix(r.Prefix); err != nil {
		return fmt.Errorf("record %q: %w", r.Name, err)
	}

	if r.Geometry != "" {
		if _, err := geometry.Lookup(r.Geometry); err != nil {
			return fmt.Errorf("record %q: %w", r.Name, err)
		}
	}

	for _, m := range []AxisMap{r.Motors, r.Reals, r.Channels} {
		for _, p := range m.Pairs() {
			if err := ValidatePVSuffix(p.Value); err != nil {
				return fmt.Errorf("record %q axis %q: %w", r.Name, p.Key, err)
			}
		}
	}
	if err := ValidatePVSuffix(r.PV); err != nil {
		return fmt.Errorf("record %q: %w", r.Name, err)
	}

	for _, label := range r.Labels {
		if err := ValidateLabel(label); err != nil {
			return fmt.Errorf("record %q: %w", r.Name, err)
		}
	}

	return nil
}

// ResolvePV joins the record prefix with a suffix to form a full PV name.
func (r Record) ResolvePV(suffix string) string {
	return r.Prefix + suffix
}
