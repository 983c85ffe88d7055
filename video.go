// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: The go-kvm Authors

package kvm

import "context"

// Video exposes the device's video capture surface. Obtain it from
// Client.Video.
type Video struct {
	client *Client
}

// Screenshot captures the current video frame and returns it as encoded
// JPEG bytes.
func (v *Video) Screenshot() ([]byte, error) {
	return v.ScreenshotContext(context.Background())
}

// ScreenshotContext is Screenshot with context support for cancellation.
func (v *Video) ScreenshotContext(ctx context.Context) ([]byte, error) {
	return v.client.apiGetBytes(ctx, "Screenshot", "/api/streamer/snapshot", nil)
}

// StreamerInfo reports the state of the device's video streamer,
// including resolution, capture parameters, and client counts. The
// result keys and layout are owned by the device firmware.
func (v *Video) StreamerInfo() (map[string]interface{}, error) {
	return v.StreamerInfoContext(context.Background())
}

// StreamerInfoContext is StreamerInfo with context support for cancellation.
func (v *Video) StreamerInfoContext(ctx context.Context) (map[string]interface{}, error) {
	return v.client.apiGet(ctx, "StreamerInfo", "/api/streamer", nil)
}
