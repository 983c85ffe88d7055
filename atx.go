// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: The go-kvm Authors

package kvm

import (
	"context"
	"net/url"
)

// ATX controls the target machine's power through the device's ATX
// header. Obtain it from Client.ATX.
//
// The presses are physical button actuations, not ACPI requests: what the
// target does with them depends on its firmware and OS configuration.
type ATX struct {
	client *Client
}

// Status reports the power and reset line state of the target machine.
// The result keys and layout are owned by the device firmware.
func (a *ATX) Status() (map[string]interface{}, error) {
	return a.StatusContext(context.Background())
}

// StatusContext is Status with context support for cancellation.
func (a *ATX) StatusContext(ctx context.Context) (map[string]interface{}, error) {
	return a.client.apiGet(ctx, "ATXStatus", "/api/atx", nil)
}

// ShortPress taps the power button. On a running machine this typically
// requests a soft shutdown; on a halted machine it powers on.
func (a *ATX) ShortPress() (map[string]interface{}, error) {
	return a.ShortPressContext(context.Background())
}

// ShortPressContext is ShortPress with context support for cancellation.
func (a *ATX) ShortPressContext(ctx context.Context) (map[string]interface{}, error) {
	return a.click(ctx, "ATXShortPress", "power")
}

// LongPress holds the power button, forcing the machine off.
func (a *ATX) LongPress() (map[string]interface{}, error) {
	return a.LongPressContext(context.Background())
}

// LongPressContext is LongPress with context support for cancellation.
func (a *ATX) LongPressContext(ctx context.Context) (map[string]interface{}, error) {
	return a.click(ctx, "ATXLongPress", "power_long")
}

// Reset taps the reset button, hard-restarting the machine.
func (a *ATX) Reset() (map[string]interface{}, error) {
	return a.ResetContext(context.Background())
}

// ResetContext is Reset with context support for cancellation.
func (a *ATX) ResetContext(ctx context.Context) (map[string]interface{}, error) {
	return a.click(ctx, "ATXReset", "reset")
}

func (a *ATX) click(ctx context.Context, op, button string) (map[string]interface{}, error) {
	query := url.Values{"button": {button}}
	return a.client.apiPost(ctx, op, "/api/atx/click", query, nil, "")
}
