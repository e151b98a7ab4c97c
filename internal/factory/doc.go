// Package factory turns device records into catalog entries.
//
// Each factory tag in the devices file is bound to a Creator function. The
// registry walks the file in order, dispatches every record to the creator
// registered for its tag, and inserts the resulting devices into a catalog.
// Unknown tags fail the build by name, so a typo in the devices file is
// caught at startup rather than silently skipped.
//
// The builtin creators cover the standard record shapes: motors and motor
// bundles, diffractometers (including tangent-arm virtual axes), scalers,
// area detectors, and single signals. Additional creators can be registered
// for site-specific device types.
package factory
