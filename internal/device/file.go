package device

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is a parsed devices file: an ordered list of record groups, one per
// factory tag. Tag order is preserved so catalog builds are deterministic.
type File struct {
	// Path is where the file was loaded from, for error messages.
	Path string

	// Groups holds the record lists in file order.
	Groups []Group
}

// Group is the list of records under one factory tag.
type Group struct {
	// Tag is the factory tag (e.g. "motor_factory", "diffractometer").
	Tag string

	// Records are the entries in file order.
	Records []Record
}

// Load reads and parses a devices file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading devices file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing devices file %s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// Parse decodes devices YAML. The document must be a mapping from factory
// tag to a sequence of records; tag order is preserved and repeated tags
// are rejected.
func Parse(data []byte) (*File, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding YAML: %w", err)
	}

	// Empty file: no devices configured.
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return &File{}, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("devices file must be a mapping of factory tags, got %s", nodeKind(root))
	}

	f := &File{}
	seen := make(map[string]bool)
	for i := 0; i+1 < len(root.Content); i += 2 {
		tagNode, listNode := root.Content[i], root.Content[i+1]

		var tag string
		if err := tagNode.Decode(&tag); err != nil {
			return nil, fmt.Errorf("factory tag at line %d: %w", tagNode.Line, err)
		}
		if seen[tag] {
			return nil, fmt.Errorf("%w: %q at line %d", ErrDuplicateTag, tag, tagNode.Line)
		}
		seen[tag] = true

		if listNode.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("records under %q must be a sequence, got %s at line %d",
				tag, nodeKind(listNode), listNode.Line)
		}

		group := Group{Tag: tag}
		for _, item := range listNode.Content {
			var rec Record
			if err := item.Decode(&rec); err != nil {
				return nil, fmt.Errorf("record under %q at line %d: %w", tag, item.Line, err)
			}
			group.Records = append(group.Records, rec)
		}
		f.Groups = append(f.Groups, group)
	}

	return f, nil
}

// Records returns all records across groups in file order.
func (f *File) Records() []Record {
	var out []Record
	for _, g := range f.Groups {
		out = append(out, g.Records...)
	}
	return out
}

// Tags returns the factory tags in file order.
func (f *File) Tags() []string {
	tags := make([]string, len(f.Groups))
	for i, g := range f.Groups {
		tags[i] = g.Tag
	}
	return tags
}
