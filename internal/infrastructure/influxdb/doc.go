// Package influxdb records queue-server host metrics in InfluxDB.
//
// Writes are non-blocking and batched by the v2 client's WriteAPI;
// async write failures surface through an error callback. The
// integration is optional and gated by the influxdb.enabled config key.
package influxdb
