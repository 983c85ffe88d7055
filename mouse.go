// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: The go-kvm Authors

package kvm

import "context"

// Mouse composes pointer gestures into primitive mouse events delivered
// over the event channel. Obtain it from Client.Mouse.
//
// Absolute coordinates pass through to the device unclamped and
// untranslated; the device owns the coordinate space and rejects what it
// cannot honor.
type Mouse struct {
	client *Client
}

// Move moves the pointer to an absolute position.
func (m *Mouse) Move(x, y int) error {
	return m.MoveContext(context.Background(), x, y)
}

// MoveContext is Move with context support for cancellation.
func (m *Mouse) MoveContext(ctx context.Context, x, y int) error {
	return m.client.sendEvents(ctx, "Move", MouseMoveEvent{X: x, Y: y})
}

// Click presses and releases a button at the current pointer position,
// delivered as one contiguous sequence.
func (m *Mouse) Click(button MouseButton) error {
	return m.ClickContext(context.Background(), button)
}

// ClickContext is Click with context support for cancellation.
func (m *Mouse) ClickContext(ctx context.Context, button MouseButton) error {
	return m.client.sendEvents(ctx, "Click",
		MouseButtonEvent{Button: button, Pressed: true},
		MouseButtonEvent{Button: button, Pressed: false},
	)
}

// ClickAt moves the pointer and clicks, delivered as one contiguous
// move, button-down, button-up sequence.
func (m *Mouse) ClickAt(x, y int, button MouseButton) error {
	return m.ClickAtContext(context.Background(), x, y, button)
}

// ClickAtContext is ClickAt with context support for cancellation.
func (m *Mouse) ClickAtContext(ctx context.Context, x, y int, button MouseButton) error {
	return m.client.sendEvents(ctx, "ClickAt",
		MouseMoveEvent{X: x, Y: y},
		MouseButtonEvent{Button: button, Pressed: true},
		MouseButtonEvent{Button: button, Pressed: false},
	)
}

// DoubleClick clicks a button twice at the current pointer position,
// back to back in one contiguous sequence.
func (m *Mouse) DoubleClick(button MouseButton) error {
	return m.DoubleClickContext(context.Background(), button)
}

// DoubleClickContext is DoubleClick with context support for cancellation.
func (m *Mouse) DoubleClickContext(ctx context.Context, button MouseButton) error {
	return m.client.sendEvents(ctx, "DoubleClick",
		MouseButtonEvent{Button: button, Pressed: true},
		MouseButtonEvent{Button: button, Pressed: false},
		MouseButtonEvent{Button: button, Pressed: true},
		MouseButtonEvent{Button: button, Pressed: false},
	)
}

// DoubleClickAt moves the pointer and double-clicks in one contiguous
// sequence.
func (m *Mouse) DoubleClickAt(x, y int, button MouseButton) error {
	return m.DoubleClickAtContext(context.Background(), x, y, button)
}

// DoubleClickAtContext is DoubleClickAt with context support for cancellation.
func (m *Mouse) DoubleClickAtContext(ctx context.Context, x, y int, button MouseButton) error {
	return m.client.sendEvents(ctx, "DoubleClickAt",
		MouseMoveEvent{X: x, Y: y},
		MouseButtonEvent{Button: button, Pressed: true},
		MouseButtonEvent{Button: button, Pressed: false},
		MouseButtonEvent{Button: button, Pressed: true},
		MouseButtonEvent{Button: button, Pressed: false},
	)
}

// Drag presses a button at the start position, moves to the end position,
// and releases. Exactly four events are sent as one contiguous sequence:
// move to start, button-down, move to end, button-up. No intermediate
// positions are interpolated; the device's pointer jumps from start to
// end while the button is held.
func (m *Mouse) Drag(fromX, fromY, toX, toY int, button MouseButton) error {
	return m.DragContext(context.Background(), fromX, fromY, toX, toY, button)
}

// DragContext is Drag with context support for cancellation.
func (m *Mouse) DragContext(ctx context.Context, fromX, fromY, toX, toY int, button MouseButton) error {
	return m.client.sendEvents(ctx, "Drag",
		MouseMoveEvent{X: fromX, Y: fromY},
		MouseButtonEvent{Button: button, Pressed: true},
		MouseMoveEvent{X: toX, Y: toY},
		MouseButtonEvent{Button: button, Pressed: false},
	)
}

// Scroll turns the wheel by a relative delta. Negative deltaY scrolls up.
func (m *Mouse) Scroll(deltaX, deltaY int) error {
	return m.ScrollContext(context.Background(), deltaX, deltaY)
}

// ScrollContext is Scroll with context support for cancellation.
func (m *Mouse) ScrollContext(ctx context.Context, deltaX, deltaY int) error {
	return m.client.sendEvents(ctx, "Scroll", MouseWheelEvent{DeltaX: deltaX, DeltaY: deltaY})
}

// RelativeMove moves the pointer by a relative offset, for devices in
// relative pointer mode.
func (m *Mouse) RelativeMove(deltaX, deltaY int) error {
	return m.RelativeMoveContext(context.Background(), deltaX, deltaY)
}

// RelativeMoveContext is RelativeMove with context support for cancellation.
func (m *Mouse) RelativeMoveContext(ctx context.Context, deltaX, deltaY int) error {
	return m.client.sendEvents(ctx, "RelativeMove", MouseRelativeEvent{DeltaX: deltaX, DeltaY: deltaY})
}
