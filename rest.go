// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: The go-kvm Authors

package kvm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// apiEnvelope is the device's REST response wrapper. Every API endpoint
// answers {"ok": bool, "result": {...}}; on failure the result carries the
// error identity instead of payload data.
type apiEnvelope struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
}

// apiFault is the result body of a failed API call.
type apiFault struct {
	Error    string `json:"error"`
	ErrorMsg string `json:"error_msg"`
}

// apiGet performs an authenticated GET and returns the decoded result map.
func (c *Client) apiGet(ctx context.Context, op, path string, query url.Values) (map[string]interface{}, error) {
	resp, err := c.doRequest(ctx, op, http.MethodGet, path, query, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return c.decodeResult(op, resp)
}

// apiPost performs an authenticated POST and returns the decoded result
// map. The body may be nil for parameter-only endpoints.
func (c *Client) apiPost(ctx context.Context, op, path string, query url.Values, body io.Reader, contentType string) (map[string]interface{}, error) {
	resp, err := c.doRequest(ctx, op, http.MethodPost, path, query, body, contentType)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return c.decodeResult(op, resp)
}

// apiGetBytes performs an authenticated GET against an endpoint that
// serves raw bytes rather than the JSON envelope.
func (c *Client) apiGetBytes(ctx context.Context, op, path string, query url.Values) ([]byte, error) {
	resp, err := c.doRequest(ctx, op, http.MethodGet, path, query, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(op, "failed to read response body", err)
	}
	if resp.StatusCode != http.StatusOK {
		// Error responses on byte endpoints still use the envelope.
		var envelope apiEnvelope
		if json.Unmarshal(body, &envelope) == nil && !envelope.OK {
			c.metrics.Counter("kvm_api_errors_total")
			fault := decodeFault(envelope.Result)
			return nil, apiError(op, fault.Error, fault.ErrorMsg)
		}
		return nil, apiError(op, fmt.Sprintf("HTTP%d", resp.StatusCode), http.StatusText(resp.StatusCode))
	}
	return body, nil
}

// doRequest attaches the session, performs one HTTP exchange, and maps
// authentication rejections. On success the caller owns the response body.
func (c *Client) doRequest(ctx context.Context, op, method, path string, query url.Values, body io.Reader, contentType string) (*http.Response, error) {
	token, err := c.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, transportError(op, "failed to build request", err)
	}
	req.Header.Set(authTokenHeader, token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	c.logger.Debug("API request",
		Field{Key: "method", Value: method},
		Field{Key: "path", Value: path})
	c.metrics.Counter("kvm_api_requests_total")

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.metrics.Counter("kvm_api_transport_errors_total")
		return nil, transportError(op, fmt.Sprintf("%s %s failed", method, path), err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		drainAndClose(resp.Body)
		c.invalidateSession(token)
		c.logger.Warn("Session rejected by device",
			Field{Key: "path", Value: path},
			Field{Key: "status", Value: resp.StatusCode})
		return nil, authError(op, fmt.Sprintf("device rejected session (HTTP %d)", resp.StatusCode), nil)
	}

	return resp, nil
}

// decodeResult parses the response envelope and returns the result map,
// mapping ok=false envelopes to ErrAPI errors.
func (c *Client) decodeResult(op string, resp *http.Response) (map[string]interface{}, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(op, "failed to read response body", err)
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, apiError(op, fmt.Sprintf("HTTP%d", resp.StatusCode), http.StatusText(resp.StatusCode))
		}
		return nil, protocolError(op, "malformed response envelope", err)
	}

	if !envelope.OK {
		c.metrics.Counter("kvm_api_errors_total")
		fault := decodeFault(envelope.Result)
		c.logger.Debug("API error response",
			Field{Key: "reason", Value: fault.Error},
			Field{Key: "message", Value: fault.ErrorMsg})
		return nil, apiError(op, fault.Error, fault.ErrorMsg)
	}

	result := make(map[string]interface{})
	if len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, &result); err != nil {
			return nil, protocolError(op, "malformed result payload", err)
		}
	}
	return result, nil
}

// decodeFault extracts the error identity from a failed envelope's result,
// falling back to generic values when fields are absent.
func decodeFault(result json.RawMessage) apiFault {
	fault := apiFault{Error: "UnknownError", ErrorMsg: "unknown error"}
	if len(result) > 0 {
		// Absent fields keep their fallbacks.
		_ = json.Unmarshal(result, &fault)
	}
	return fault
}

// drainAndClose consumes and closes a response body so the underlying
// connection can be reused.
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
