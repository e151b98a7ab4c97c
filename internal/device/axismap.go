package device

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// AxisMap is an insertion-ordered map from logical axis names to PV
// suffixes. Go maps do not preserve order and YAML mappings do, so the map
// is stored as a pair slice and decoded directly from the YAML node.
//
// Duplicate keys are a decode error: a record that names the same axis
// twice is ambiguous about which motor the axis means.
type AxisMap struct {
	pairs []AxisPair
}

// AxisPair is one axis-to-suffix entry.
type AxisPair struct {
	Key   string
	Value string
}

// NewAxisMap builds an AxisMap from pairs, preserving their order.
// Returns ErrDuplicateAxis if a key repeats.
func NewAxisMap(pairs ...AxisPair) (AxisMap, error) {
	m := AxisMap{}
	for _, p := range pairs {
		if m.Has(p.Key) {
			return AxisMap{}, fmt.Errorf("%w: %q", ErrDuplicateAxis, p.Key)
		}
		m.pairs = append(m.pairs, p)
	}
	return m, nil
}

// UnmarshalYAML decodes a YAML mapping node, preserving key order and
// rejecting duplicate keys.
func (m *AxisMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("device: axis map must be a mapping, got %s at line %d", nodeKind(node), node.Line)
	}

	// Mapping node content alternates key, value.
	pairs := make([]AxisPair, 0, len(node.Content)/2)
	seen := make(map[string]bool, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]

		var key, val string
		if err := keyNode.Decode(&key); err != nil {
			return fmt.Errorf("device: axis map key at line %d: %w", keyNode.Line, err)
		}
		if err := valNode.Decode(&val); err != nil {
			return fmt.Errorf("device: axis map value for %q at line %d: %w", key, valNode.Line, err)
		}

		if seen[key] {
			return fmt.Errorf("%w: %q at line %d", ErrDuplicateAxis, key, keyNode.Line)
		}
		seen[key] = true
		pairs = append(pairs, AxisPair{Key: key, Value: val})
	}

	m.pairs = pairs
	return nil
}

// MarshalYAML encodes the map back to a YAML mapping in insertion order.
func (m AxisMap) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, p := range m.pairs {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: p.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Value: p.Value},
		)
	}
	return node, nil
}

// Len returns the number of entries.
func (m AxisMap) Len() int {
	return len(m.pairs)
}

// Keys returns the axis names in insertion order.
func (m AxisMap) Keys() []string {
	keys := make([]string, len(m.pairs))
	for i, p := range m.pairs {
		keys[i] = p.Key
	}
	return keys
}

// Pairs returns a copy of the entries in insertion order.
func (m AxisMap) Pairs() []AxisPair {
	out := make([]AxisPair, len(m.pairs))
	copy(out, m.pairs)
	return out
}

// Get returns the suffix for an axis and whether the axis exists.
func (m AxisMap) Get(key string) (string, bool) {
	for _, p := range m.pairs {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Has reports whether the axis exists in the map.
func (m AxisMap) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// nodeKind returns a readable name for a YAML node kind in error messages.
func nodeKind(node *yaml.Node) string {
	switch node.Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
