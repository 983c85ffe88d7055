// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: The go-kvm Authors

package kvm

import "encoding/json"

// MouseButton identifies a pointer button by its wire name.
type MouseButton string

// Mouse button identifiers accepted by the device.
const (
	ButtonLeft   MouseButton = "left"
	ButtonRight  MouseButton = "right"
	ButtonMiddle MouseButton = "middle"
)

// Event is a single input event deliverable over the event channel. Each
// event marshals to one WebSocket text message of the form
// {"event_type": T, "event": {...}}; events are never coalesced or
// fragmented across messages.
type Event interface {
	// eventType returns the wire discriminator for the event.
	eventType() string

	// payload returns the body marshaled under the "event" key.
	payload() interface{}
}

// KeyEvent reports one key transition. Key is a symbolic key name from the
// key map ("KeyA", "Enter", "ShiftLeft"); Pressed is true for key-down and
// false for key-up.
type KeyEvent struct {
	Key     string
	Pressed bool
}

func (e KeyEvent) eventType() string { return "key" }

func (e KeyEvent) payload() interface{} {
	return struct {
		Key   string `json:"key"`
		State bool   `json:"state"`
	}{e.Key, e.Pressed}
}

// MouseButtonEvent reports one pointer button transition.
type MouseButtonEvent struct {
	Button  MouseButton
	Pressed bool
}

func (e MouseButtonEvent) eventType() string { return "mouse_button" }

func (e MouseButtonEvent) payload() interface{} {
	return struct {
		Button MouseButton `json:"button"`
		State  bool        `json:"state"`
	}{e.Button, e.Pressed}
}

// MouseMoveEvent moves the pointer to an absolute position. Coordinates
// pass through to the device unclamped and untranslated.
type MouseMoveEvent struct {
	X, Y int
}

func (e MouseMoveEvent) eventType() string { return "mouse_move" }

func (e MouseMoveEvent) payload() interface{} {
	return struct {
		To point `json:"to"`
	}{point{e.X, e.Y}}
}

// MouseWheelEvent scrolls by a relative delta.
type MouseWheelEvent struct {
	DeltaX, DeltaY int
}

func (e MouseWheelEvent) eventType() string { return "mouse_wheel" }

func (e MouseWheelEvent) payload() interface{} {
	return struct {
		Delta point `json:"delta"`
	}{point{e.DeltaX, e.DeltaY}}
}

// MouseRelativeEvent moves the pointer by a relative delta, for devices in
// relative pointer mode.
type MouseRelativeEvent struct {
	DeltaX, DeltaY int
}

func (e MouseRelativeEvent) eventType() string { return "mouse_relative" }

func (e MouseRelativeEvent) payload() interface{} {
	return struct {
		Delta point `json:"delta"`
	}{point{e.DeltaX, e.DeltaY}}
}

// point is the x/y pair used by pointer event payloads.
type point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// marshalEvent encodes an event into its wire envelope.
func marshalEvent(ev Event) ([]byte, error) {
	return json.Marshal(struct {
		EventType string      `json:"event_type"`
		Event     interface{} `json:"event"`
	}{ev.eventType(), ev.payload()})
}
