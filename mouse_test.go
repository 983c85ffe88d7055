// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: The go-kvm Authors

package kvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMouse_Gestures(t *testing.T) {
	dev := newMockDevice(t)
	client := newTestClient(t, dev)

	tests := []struct {
		name    string
		gesture func(m *Mouse) error
		want    []recordedEvent
	}{
		{
			name:    "move",
			gesture: func(m *Mouse) error { return m.Move(100, 200) },
			want:    []recordedEvent{moveTo(100, 200)},
		},
		{
			name:    "click",
			gesture: func(m *Mouse) error { return m.Click(ButtonLeft) },
			want:    []recordedEvent{buttonDown(ButtonLeft), buttonUp(ButtonLeft)},
		},
		{
			name:    "click right",
			gesture: func(m *Mouse) error { return m.Click(ButtonRight) },
			want:    []recordedEvent{buttonDown(ButtonRight), buttonUp(ButtonRight)},
		},
		{
			name:    "click at",
			gesture: func(m *Mouse) error { return m.ClickAt(640, 360, ButtonLeft) },
			want: []recordedEvent{
				moveTo(640, 360),
				buttonDown(ButtonLeft),
				buttonUp(ButtonLeft),
			},
		},
		{
			name:    "double click",
			gesture: func(m *Mouse) error { return m.DoubleClick(ButtonLeft) },
			want: []recordedEvent{
				buttonDown(ButtonLeft), buttonUp(ButtonLeft),
				buttonDown(ButtonLeft), buttonUp(ButtonLeft),
			},
		},
		{
			name:    "double click at",
			gesture: func(m *Mouse) error { return m.DoubleClickAt(10, 20, ButtonMiddle) },
			want: []recordedEvent{
				moveTo(10, 20),
				buttonDown(ButtonMiddle), buttonUp(ButtonMiddle),
				buttonDown(ButtonMiddle), buttonUp(ButtonMiddle),
			},
		},
		{
			name:    "scroll",
			gesture: func(m *Mouse) error { return m.Scroll(0, -2) },
			want:    []recordedEvent{wheelBy(0, -2)},
		},
		{
			name:    "relative move",
			gesture: func(m *Mouse) error { return m.RelativeMove(5, -3) },
			want:    []recordedEvent{relativeBy(5, -3)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev.clearEvents()
			require.NoError(t, tt.gesture(client.Mouse()))
			assert.Equal(t, tt.want, dev.waitEvents(t, len(tt.want)))
		})
	}
}

func TestMouse_Drag(t *testing.T) {
	dev := newMockDevice(t)
	client := newTestClient(t, dev)

	require.NoError(t, client.Mouse().Drag(100, 100, 500, 400, ButtonLeft))

	// A drag is exactly four events: position, grab, jump, release. No
	// intermediate positions are interpolated.
	events := dev.waitEvents(t, 4)
	assert.Equal(t, []recordedEvent{
		moveTo(100, 100),
		buttonDown(ButtonLeft),
		moveTo(500, 400),
		buttonUp(ButtonLeft),
	}, events)
	assert.Len(t, dev.Events(), 4)
}

func TestMouse_CoordinatesPassThrough(t *testing.T) {
	dev := newMockDevice(t)
	client := newTestClient(t, dev)

	// Out-of-range and negative coordinates are the device's problem.
	require.NoError(t, client.Mouse().Move(-5, 99999))
	assert.Equal(t, []recordedEvent{moveTo(-5, 99999)}, dev.waitEvents(t, 1))
}
