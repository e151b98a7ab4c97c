package mqtt

import "fmt"

// Topic prefixes for the ID28 status bus.
//
// All topics live under the flat scheme: id28/{category}/{subject}
const (
	// TopicPrefix is the base for all ID28 topics.
	TopicPrefix = "id28"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "id28/system"

	// TopicPrefixQServer is the base for queue-server host topics.
	TopicPrefixQServer = "id28/qserver"

	// TopicPrefixCatalog is the base for device catalog topics.
	TopicPrefixCatalog = "id28/catalog"
)

// Topics provides builders for ID28 MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	statusTopic := topics.QServerStatus("qs-host-id28")
//	// Returns: "id28/qserver/qs-host-id28/status"
type Topics struct{}

// SystemStatus returns the core online/offline status topic.
//
// Example: id28/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// QServerStatus returns the retained status topic for a host instance.
//
// Example: id28/qserver/qs-host-id28/status
func (Topics) QServerStatus(instance string) string {
	return fmt.Sprintf("%s/%s/status", TopicPrefixQServer, instance)
}

// QServerEvent returns the lifecycle event topic for a host instance.
//
// Example: id28/qserver/qs-host-id28/event/restarted
func (Topics) QServerEvent(instance, action string) string {
	return fmt.Sprintf("%s/%s/event/%s", TopicPrefixQServer, instance, action)
}

// CatalogSummary returns the retained catalog summary topic.
//
// Example: id28/catalog/summary
func (Topics) CatalogSummary() string {
	return fmt.Sprintf("%s/summary", TopicPrefixCatalog)
}

// CatalogDevice returns the retained topic for a single device record.
//
// Example: id28/catalog/device/sixcidc
func (Topics) CatalogDevice(name string) string {
	return fmt.Sprintf("%s/device/%s", TopicPrefixCatalog, name)
}

// AllQServerEvents returns a pattern matching all host lifecycle events.
//
// Pattern: id28/qserver/+/event/+
func (Topics) AllQServerEvents() string {
	return fmt.Sprintf("%s/+/event/+", TopicPrefixQServer)
}

// AllCatalogDevices returns a pattern matching all device record topics.
//
// Pattern: id28/catalog/device/+
func (Topics) AllCatalogDevices() string {
	return fmt.Sprintf("%s/device/+", TopicPrefixCatalog)
}

// AllTopics returns a pattern matching all ID28 topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: id28/#
func (Topics) AllTopics() string {
	return "id28/#"
}
