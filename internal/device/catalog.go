package device

import (
	"fmt"
	"sync"
)

// Logger defines the logging interface for the catalog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Catalog is the name-indexed set of built devices. Names are unique across
// the whole catalog regardless of which factory produced the device.
type Catalog struct {
	mu     sync.RWMutex
	byName map[string]*Device
	order  []string
	logger Logger
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		byName: make(map[string]*Device),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the catalog.
func (c *Catalog) SetLogger(logger Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = logger
}

// Add inserts a device. Returns ErrDuplicateName if a device with the same
// name is already present.
func (c *Catalog) Add(dev *Device) error {
	if err := ValidateName(dev.Name); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byName[dev.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, dev.Name)
	}

	c.byName[dev.Name] = dev
	c.order = append(c.order, dev.Name)

	c.logger.Debug("device added to catalog",
		"name", dev.Name,
		"kind", string(dev.Kind),
		"axes", len(dev.Axes),
	)
	return nil
}

// Get returns the device with the given name.
// Returns ErrNotFound if no such device exists.
func (c *Catalog) Get(name string) (*Device, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dev, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return dev, nil
}

// Names returns device names in insertion order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, len(c.order))
	copy(names, c.order)
	return names
}

// List returns all devices in insertion order.
func (c *Catalog) List() []*Device {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Device, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byName[name])
	}
	return out
}

// ByKind returns all devices of the given kind, in insertion order.
func (c *Catalog) ByKind(kind Kind) []*Device {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*Device
	for _, name := range c.order {
		if dev := c.byName[name]; dev.Kind == kind {
			out = append(out, dev)
		}
	}
	return out
}

// ByLabel returns all devices carrying the given label, in insertion order.
func (c *Catalog) ByLabel(label string) []*Device {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*Device
	for _, name := range c.order {
		if dev := c.byName[name]; dev.HasLabel(label) {
			out = append(out, dev)
		}
	}
	return out
}

// Len returns the number of devices in the catalog.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byName)
}

// Stats summarises the catalog contents.
type Stats struct {
	Total     int            `json:"total"`
	ByKind    map[string]int `json:"by_kind"`
	ByLabel   map[string]int `json:"by_label"`
	Simulated int            `json:"simulated"`
}

// Stats returns counts by kind and label.
func (c *Catalog) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{
		Total:   len(c.byName),
		ByKind:  make(map[string]int),
		ByLabel: make(map[string]int),
	}
	for _, dev := range c.byName {
		stats.ByKind[string(dev.Kind)]++
		for _, label := range dev.Labels {
			stats.ByLabel[label]++
		}
		if dev.Simulated {
			stats.Simulated++
		}
	}
	return stats
}
