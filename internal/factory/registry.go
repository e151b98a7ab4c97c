package factory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aps28id/id28-core/internal/device"
)

// Creator builds zero or more devices from a single record.
type Creator func(rec device.Record) ([]*device.Device, error)

// Logger defines the logging interface for the registry.
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

// Registry maps factory tags to creator functions.
type Registry struct {
	mu       sync.RWMutex
	creators map[string]Creator
	logger   Logger
}

// NewRegistry creates a registry with the builtin creators registered:
// motor_factory, diffractometer, scaler, area_detector, signal.
func NewRegistry() *Registry {
	r := &Registry{
		creators: make(map[string]Creator),
		logger:   noopLogger{},
	}
	r.creators["motor_factory"] = CreateMotors
	r.creators["diffractometer"] = CreateDiffractometer
	r.creators["scaler"] = CreateScaler
	r.creators["area_detector"] = CreateAreaDetector
	r.creators["signal"] = CreateSignal
	return r
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Register binds a creator to a factory tag.
// Returns ErrTagRegistered if the tag already has a creator.
func (r *Registry) Register(tag string, fn Creator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.creators[tag]; exists {
		return fmt.Errorf("%w: %q", ErrTagRegistered, tag)
	}
	r.creators[tag] = fn
	return nil
}

// Creator returns the creator for a tag and whether it exists.
func (r *Registry) Creator(tag string) (Creator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.creators[tag]
	return fn, ok
}

// Tags returns the registered factory tags, sorted.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]string, 0, len(r.creators))
	for tag := range r.creators {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Build walks the devices file in tag order, dispatches each record to its
// creator, and collects the results into a catalog. The first failure stops
// the build: a partially valid devices file is a configuration error.
func (r *Registry) Build(f *device.File) (*device.Catalog, error) {
	catalog := device.NewCatalog()

	r.mu.RLock()
	logger := r.logger
	r.mu.RUnlock()

	for _, group := range f.Groups {
		fn, ok := r.Creator(group.Tag)
		if !ok {
			return nil, fmt.Errorf("%w: %q (registered: %v)", ErrUnknownTag, group.Tag, r.Tags())
		}

		for _, rec := range group.Records {
			devices, err := fn(rec)
			if err != nil {
				return nil, fmt.Errorf("building %q record %q: %w", group.Tag, rec.Name, err)
			}
			for _, dev := range devices {
				if err := catalog.Add(dev); err != nil {
					return nil, fmt.Errorf("building %q record %q: %w", group.Tag, rec.Name, err)
				}
			}
		}

		logger.Debug("factory group built",
			"tag", group.Tag,
			"records", len(group.Records),
		)
	}

	stats := catalog.Stats()
	logger.Info("device catalog built",
		"devices", stats.Total,
		"simulated", stats.Simulated,
	)
	return catalog, nil
}
