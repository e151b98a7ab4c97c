package mqtt

import "testing"

func TestTopics(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"system status", topics.SystemStatus(), "id28/system/status"},
		{"qserver status", topics.QServerStatus("qs-host-id28"), "id28/qserver/qs-host-id28/status"},
		{"qserver event", topics.QServerEvent("qs-host-id28", "restarted"), "id28/qserver/qs-host-id28/event/restarted"},
		{"catalog summary", topics.CatalogSummary(), "id28/catalog/summary"},
		{"catalog device", topics.CatalogDevice("sixcidc"), "id28/catalog/device/sixcidc"},
		{"all qserver events", topics.AllQServerEvents(), "id28/qserver/+/event/+"},
		{"all catalog devices", topics.AllCatalogDevices(), "id28/catalog/device/+"},
		{"all topics", topics.AllTopics(), "id28/#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
