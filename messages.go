// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: The go-kvm Authors

package kvm

import "encoding/json"

// Notification event types pushed by the device over the event channel.
// The device announces subsystem state this way both in the burst that
// follows a fresh connection and incrementally afterwards.
const (
	NotificationStreamer = "streamer_state"
	NotificationHID      = "hid_state"
	NotificationATX      = "atx_state"
	NotificationMSD      = "msd_state"
	NotificationInfo     = "info_state"
	NotificationGPIO     = "gpio_state"
)

// Notification is a state message pushed by the device over the event
// channel. EventType identifies the subsystem; Event carries the
// device-owned payload undecoded, since its schema varies by firmware.
//
// Notifications are delivered to the channel configured with
// WithNotificationChannel. They are informational: no send depends on one
// arriving, and a client without a notification channel discards them.
type Notification struct {
	EventType string          `json:"event_type"`
	Event     json.RawMessage `json:"event"`
}

// Decode unmarshals the notification payload into v, typically a
// map[string]interface{} or a caller-defined struct matching the
// subsystem's schema.
func (n Notification) Decode(v interface{}) error {
	if err := json.Unmarshal(n.Event, v); err != nil {
		return protocolError("Notification.Decode", "failed to decode notification payload", err)
	}
	return nil
}
