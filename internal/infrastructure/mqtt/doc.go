// Package mqtt provides the status bus client for ID28 core.
//
// It wraps paho.mqtt.golang with connection management, Last Will and
// Testament for offline detection, and automatic reconnection with
// exponential backoff. Core is publish-oriented: catalog summaries and
// queue-server host status go out as retained messages so late
// subscribers see the current state.
package mqtt
