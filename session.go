// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: The go-kvm Authors

package kvm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// authTokenHeader carries the session token on REST requests and on the
// event channel handshake.
const authTokenHeader = "X-Auth-Token"

// loginPath is the credential exchange endpoint.
const loginPath = "/api/auth/login"

// ensureSession returns the cached session token, performing the login
// exchange first if no session exists. Concurrent callers share a single
// in-flight exchange: one caller logs in and the rest wait for its result.
// A rejected login is returned to every waiter and never retried here.
func (c *Client) ensureSession(ctx context.Context) (string, error) {
	c.sessionMu.Lock()
	token := c.sessionToken
	c.sessionMu.Unlock()
	if token != "" {
		return token, nil
	}

	ch := c.sessionSF.DoChan("login", func() (interface{}, error) {
		// A previous flight may have landed between the fast path and
		// this call.
		c.sessionMu.Lock()
		token := c.sessionToken
		c.sessionMu.Unlock()
		if token != "" {
			return token, nil
		}

		token, err := c.login(ctx)
		if err != nil {
			return nil, err
		}

		c.sessionMu.Lock()
		c.sessionToken = token
		c.sessionMu.Unlock()
		return token, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", transportError("ensureSession", "cancelled while waiting for login", ctx.Err())
	}
}

// invalidateSession forgets the cached session if it still matches the
// token that was observed failing. A stale caller's rejection cannot
// evict a session established after it.
func (c *Client) invalidateSession(token string) {
	c.sessionMu.Lock()
	if c.sessionToken == token {
		c.sessionToken = ""
		c.logger.Debug("Session invalidated")
	}
	c.sessionMu.Unlock()
}

// login performs the credential exchange and returns the granted session
// token. Called only from inside the single-flight group.
func (c *Client) login(ctx context.Context) (string, error) {
	c.logger.Debug("Performing login exchange",
		Field{Key: "username", Value: c.config.Username})
	c.metrics.Counter("kvm_logins_total")

	form := url.Values{}
	form.Set("user", c.config.Username)
	form.Set("passwd", c.config.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+loginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", transportError("login", "failed to build login request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", transportError("login", "login request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.logger.Warn("Login rejected",
			Field{Key: "status", Value: resp.StatusCode})
		return "", authError("login", "device rejected credentials", nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError("login", "failed to read login response", err)
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", protocolError("login", "malformed login response", err)
	}
	if !envelope.OK {
		c.logger.Warn("Login rejected")
		return "", authError("login", "device rejected credentials", nil)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(envelope.Result, &result); err != nil {
		return "", protocolError("login", "malformed login result", err)
	}
	if result.Token == "" {
		return "", protocolError("login", "login response carries no token", nil)
	}

	c.logger.Info("Session established",
		Field{Key: "username", Value: c.config.Username})
	return result.Token, nil
}
