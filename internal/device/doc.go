// Package device defines the beamline device configuration model: typed
// records loaded from the devices YAML file, and the in-memory catalog of
// devices built from them.
//
// # Records and devices
//
// A Record is one entry in the devices file: a name, an EPICS PV prefix,
// axis or channel maps, and grouping labels. Records are declarative - they
// describe what to build, not live connections. A Device is the resolved
// blueprint produced from a record by a factory: fully qualified PV names,
// canonical axis ordering, and labels, ready for the acquisition framework
// to instantiate.
//
// # Ordering
//
// Axis maps preserve YAML insertion order. For diffractometer reals the
// order is significant: it must match the geometry's canonical real-axis
// order, and AxisMap keeps it intact through decode.
//
// # Thread safety
//
// Catalog is safe for concurrent use. Records and Devices are treated as
// immutable after construction.
package device
