// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: The go-kvm Authors

package kvm

import (
	"context"
	"io"
	"net/url"
)

// MSD controls the device's mass storage drive: the emulated USB disk the
// device attaches to the target machine. Obtain it from Client.MSD.
//
// Example usage:
//
//	f, err := os.Open("install.iso")
//	if err != nil {
//		return err
//	}
//	defer f.Close()
//	if _, err := client.MSD().Upload("install.iso", f); err != nil {
//		return err
//	}
//	if _, err := client.MSD().SetImage("install.iso", true); err != nil {
//		return err
//	}
//	_, err = client.MSD().Connect()
type MSD struct {
	client *Client
}

// Status reports the drive state: connection, selected image, storage
// usage. The result keys and layout are owned by the device firmware.
func (m *MSD) Status() (map[string]interface{}, error) {
	return m.StatusContext(context.Background())
}

// StatusContext is Status with context support for cancellation.
func (m *MSD) StatusContext(ctx context.Context) (map[string]interface{}, error) {
	return m.client.apiGet(ctx, "MSDStatus", "/api/msd", nil)
}

// ListImages returns the images stored on the device, keyed by name. Each
// value is the device's metadata dictionary for that image.
func (m *MSD) ListImages() (map[string]interface{}, error) {
	return m.ListImagesContext(context.Background())
}

// ListImagesContext is ListImages with context support for cancellation.
func (m *MSD) ListImagesContext(ctx context.Context) (map[string]interface{}, error) {
	status, err := m.StatusContext(ctx)
	if err != nil {
		return nil, err
	}
	storage, ok := status["storage"].(map[string]interface{})
	if !ok {
		return map[string]interface{}{}, nil
	}
	images, ok := storage["images"].(map[string]interface{})
	if !ok {
		return map[string]interface{}{}, nil
	}
	return images, nil
}

// Upload streams image data to the device's storage under the given name.
// The reader is consumed to EOF; the returned dictionary describes the
// stored image.
func (m *MSD) Upload(name string, data io.Reader) (map[string]interface{}, error) {
	return m.UploadContext(context.Background(), name, data)
}

// UploadContext is Upload with context support for cancellation.
func (m *MSD) UploadContext(ctx context.Context, name string, data io.Reader) (map[string]interface{}, error) {
	query := url.Values{"image": {name}}
	return m.client.apiPost(ctx, "MSDUpload", "/api/msd/write", query, data, "application/octet-stream")
}

// UploadURL instructs the device to download an image from a URL into its
// storage. If name is empty the device derives the image name from the
// URL. The device performs the download; the call returns once the device
// has accepted the request.
func (m *MSD) UploadURL(imageURL, name string) (map[string]interface{}, error) {
	return m.UploadURLContext(context.Background(), imageURL, name)
}

// UploadURLContext is UploadURL with context support for cancellation.
func (m *MSD) UploadURLContext(ctx context.Context, imageURL, name string) (map[string]interface{}, error) {
	query := url.Values{"url": {imageURL}}
	if name != "" {
		query.Set("image", name)
	}
	return m.client.apiPost(ctx, "MSDUploadURL", "/api/msd/write_remote", query, nil, "")
}

// SetImage selects a stored image for the drive and sets whether it is
// presented to the target as a CD-ROM or a flash drive. The drive must be
// disconnected while its parameters change.
func (m *MSD) SetImage(name string, cdrom bool) (map[string]interface{}, error) {
	return m.SetImageContext(context.Background(), name, cdrom)
}

// SetImageContext is SetImage with context support for cancellation.
func (m *MSD) SetImageContext(ctx context.Context, name string, cdrom bool) (map[string]interface{}, error) {
	query := url.Values{
		"image": {name},
		"cdrom": {boolParam(cdrom)},
	}
	return m.client.apiPost(ctx, "MSDSetImage", "/api/msd/set_params", query, nil, "")
}

// Connect attaches the drive to the target machine.
func (m *MSD) Connect() (map[string]interface{}, error) {
	return m.ConnectContext(context.Background())
}

// ConnectContext is Connect with context support for cancellation.
func (m *MSD) ConnectContext(ctx context.Context) (map[string]interface{}, error) {
	return m.setConnected(ctx, "MSDConnect", true)
}

// Disconnect detaches the drive from the target machine.
func (m *MSD) Disconnect() (map[string]interface{}, error) {
	return m.DisconnectContext(context.Background())
}

// DisconnectContext is Disconnect with context support for cancellation.
func (m *MSD) DisconnectContext(ctx context.Context) (map[string]interface{}, error) {
	return m.setConnected(ctx, "MSDDisconnect", false)
}

func (m *MSD) setConnected(ctx context.Context, op string, connected bool) (map[string]interface{}, error) {
	query := url.Values{"connected": {boolParam(connected)}}
	return m.client.apiPost(ctx, op, "/api/msd/set_connected", query, nil, "")
}

// RemoveImage deletes a stored image from the device.
func (m *MSD) RemoveImage(name string) (map[string]interface{}, error) {
	return m.RemoveImageContext(context.Background(), name)
}

// RemoveImageContext is RemoveImage with context support for cancellation.
func (m *MSD) RemoveImageContext(ctx context.Context, name string) (map[string]interface{}, error) {
	query := url.Values{"image": {name}}
	return m.client.apiPost(ctx, "MSDRemoveImage", "/api/msd/remove", query, nil, "")
}

// boolParam renders a boolean the way the device's query parser expects.
func boolParam(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
