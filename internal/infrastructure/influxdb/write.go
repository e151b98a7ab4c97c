package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteHostMetric writes a single queue-server host measurement.
//
// This is the primary method for recording supervision telemetry. The
// write is non-blocking; data is batched and sent asynchronously.
//
// Example:
//
//	client.WriteHostMetric("qs-host-id28", "uptime_seconds", 3600)
//	client.WriteHostMetric("qs-host-id28", "restart_count", 2)
func (c *Client) WriteHostMetric(instance string, metric string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"qserver_host",
		map[string]string{
			"instance": instance,
			"metric":   metric,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteLifecycleEvent records a host lifecycle transition as a point.
//
// Events are written with value 1 so dashboards can count transitions
// per interval.
func (c *Client) WriteLifecycleEvent(instance string, action string, pid int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"qserver_lifecycle",
		map[string]string{
			"instance": instance,
			"action":   action,
		},
		map[string]interface{}{
			"value": 1,
			"pid":   pid,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Example:
//
//	client.WritePoint("catalog",
//	    map[string]string{"instrument": "28id"},
//	    map[string]interface{}{"devices": 12, "simulated": 3})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., replayed data).
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
