// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: The go-kvm Authors

package kvm

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// Credentials the mock device accepts.
const (
	testUsername = "admin"
	testPassword = "hunter2"
)

// recordedEvent is one input event as it arrived on the mock device's
// event channel: the wire discriminator and the raw payload JSON.
type recordedEvent struct {
	Type    string
	Payload string
}

// recordedRequest is one authenticated REST exchange observed by the
// mock device.
type recordedRequest struct {
	Method      string
	Path        string
	Query       url.Values
	ContentType string
	Body        []byte
}

// mockFault configures an endpoint to answer with a failure envelope.
type mockFault struct {
	Status   int
	Error    string
	ErrorMsg string
}

// mockDevice emulates the device for testing: the REST API behind a
// self-signed TLS listener, token sessions granted by the login endpoint,
// and a WebSocket event endpoint that records every input event it
// receives.
type mockDevice struct {
	srv *httptest.Server

	mu         sync.Mutex
	logins     int
	failLogins bool
	loginDelay time.Duration
	token      string
	events     []recordedEvent
	requests   []recordedRequest
	wsDials    int
	wsQueries  []string
	wsConn     *websocket.Conn
	results    map[string]interface{}
	faults     map[string]mockFault
	rawBodies  map[string]string
	snapshot   []byte
}

func newMockDevice(t *testing.T) *mockDevice {
	t.Helper()

	d := &mockDevice{
		results: map[string]interface{}{
			"/api/info": map[string]interface{}{
				"meta": map[string]interface{}{"server": map[string]interface{}{"host": "mock-kvm"}},
			},
			"/api/streamer": map[string]interface{}{
				"state": map[string]interface{}{"source": map[string]interface{}{"online": true}},
			},
			"/api/msd": map[string]interface{}{
				"enabled": true,
				"drive":   map[string]interface{}{"connected": false, "image": ""},
				"storage": map[string]interface{}{
					"images": map[string]interface{}{
						"ubuntu.iso": map[string]interface{}{"complete": true},
					},
				},
			},
			"/api/atx": map[string]interface{}{
				"enabled": true,
				"leds":    map[string]interface{}{"power": true, "hdd": false},
			},
		},
		faults:    map[string]mockFault{},
		rawBodies: map[string]string{},
		snapshot:  []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", d.handleLogin)
	mux.HandleFunc("/api/ws", d.handleChannel)
	mux.HandleFunc("/api/streamer/snapshot", d.protected(d.handleSnapshot))
	mux.HandleFunc("/api/", d.protected(d.handleAPI))

	d.srv = httptest.NewTLSServer(mux)
	t.Cleanup(d.srv.Close)
	return d
}

// host returns the host:port the device listens on.
func (d *mockDevice) host() string {
	return strings.TrimPrefix(d.srv.URL, "https://")
}

func (d *mockDevice) handleLogin(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	delay := d.loginDelay
	d.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	_ = r.ParseForm()

	d.mu.Lock()
	d.logins++
	granted := !d.failLogins &&
		r.PostFormValue("user") == testUsername &&
		r.PostFormValue("passwd") == testPassword
	if !granted {
		d.mu.Unlock()
		writeEnvelope(w, http.StatusForbidden, false, map[string]interface{}{
			"error":     "AuthError",
			"error_msg": "invalid credentials",
		})
		return
	}
	d.token = fmt.Sprintf("session-%04d", d.logins)
	token := d.token
	d.mu.Unlock()

	writeEnvelope(w, http.StatusOK, true, map[string]interface{}{"token": token})
}

// authorized reports whether the request carries the current session token.
func (d *mockDevice) authorized(r *http.Request) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.token != "" && r.Header.Get("X-Auth-Token") == d.token
}

// protected wraps an endpoint with the session check and records the
// exchange.
func (d *mockDevice) protected(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.authorized(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		body, _ := io.ReadAll(r.Body)
		d.mu.Lock()
		d.requests = append(d.requests, recordedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			Query:       r.URL.Query(),
			ContentType: r.Header.Get("Content-Type"),
			Body:        body,
		})
		d.mu.Unlock()

		next(w, r)
	}
}

func (d *mockDevice) handleChannel(w http.ResponseWriter, r *http.Request) {
	if !d.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	d.mu.Lock()
	d.wsDials++
	d.wsQueries = append(d.wsQueries, r.URL.RawQuery)
	d.wsConn = conn
	d.mu.Unlock()

	for {
		var frame struct {
			EventType string          `json:"event_type"`
			Event     json.RawMessage `json:"event"`
		}
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		d.mu.Lock()
		d.events = append(d.events, recordedEvent{Type: frame.EventType, Payload: string(frame.Event)})
		d.mu.Unlock()
	}
}

func (d *mockDevice) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	fault, failed := d.faults[r.URL.Path]
	snapshot := d.snapshot
	d.mu.Unlock()

	if failed {
		writeEnvelope(w, fault.Status, false, map[string]interface{}{
			"error":     fault.Error,
			"error_msg": fault.ErrorMsg,
		})
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	_, _ = w.Write(snapshot)
}

// handleAPI serves every envelope endpoint: configured raw bodies first,
// then configured faults, then configured results, then an empty success.
func (d *mockDevice) handleAPI(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	raw, hasRaw := d.rawBodies[r.URL.Path]
	fault, failed := d.faults[r.URL.Path]
	result, hasResult := d.results[r.URL.Path]
	d.mu.Unlock()

	switch {
	case hasRaw:
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(raw))
	case failed:
		writeEnvelope(w, fault.Status, false, map[string]interface{}{
			"error":     fault.Error,
			"error_msg": fault.ErrorMsg,
		})
	case hasResult:
		writeEnvelope(w, http.StatusOK, true, result)
	default:
		writeEnvelope(w, http.StatusOK, true, map[string]interface{}{})
	}
}

func writeEnvelope(w http.ResponseWriter, status int, ok bool, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": ok, "result": result})
}

func (d *mockDevice) Logins() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.logins
}

func (d *mockDevice) WSDials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.wsDials
}

func (d *mockDevice) WSQueries() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.wsQueries...)
}

func (d *mockDevice) Events() []recordedEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]recordedEvent(nil), d.events...)
}

func (d *mockDevice) Requests() []recordedRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]recordedRequest(nil), d.requests...)
}

func (d *mockDevice) clearEvents() {
	d.mu.Lock()
	d.events = nil
	d.mu.Unlock()
}

// revokeToken invalidates the current session server-side, so the next
// authenticated request is rejected with 401.
func (d *mockDevice) revokeToken() {
	d.mu.Lock()
	d.token = ""
	d.mu.Unlock()
}

func (d *mockDevice) setFailLogins(fail bool) {
	d.mu.Lock()
	d.failLogins = fail
	d.mu.Unlock()
}

func (d *mockDevice) setLoginDelay(delay time.Duration) {
	d.mu.Lock()
	d.loginDelay = delay
	d.mu.Unlock()
}

func (d *mockDevice) setResult(path string, result interface{}) {
	d.mu.Lock()
	d.results[path] = result
	d.mu.Unlock()
}

func (d *mockDevice) setFault(path string, fault mockFault) {
	d.mu.Lock()
	d.faults[path] = fault
	d.mu.Unlock()
}

func (d *mockDevice) setRawBody(path, body string) {
	d.mu.Lock()
	d.rawBodies[path] = body
	d.mu.Unlock()
}

// dropChannel severs the current event channel connection server-side.
func (d *mockDevice) dropChannel() {
	d.mu.Lock()
	conn := d.wsConn
	d.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

// pushNotification sends a state notification to the connected client.
func (d *mockDevice) pushNotification(eventType string, payload interface{}) error {
	d.mu.Lock()
	conn := d.wsConn
	d.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("no event channel connected")
	}
	return conn.WriteJSON(map[string]interface{}{"event_type": eventType, "event": payload})
}

// lastRequest returns the most recent recorded request for path.
func (d *mockDevice) lastRequest(t *testing.T, path string) recordedRequest {
	t.Helper()
	requests := d.Requests()
	for i := len(requests) - 1; i >= 0; i-- {
		if requests[i].Path == path {
			return requests[i]
		}
	}
	t.Fatalf("no request recorded for %s", path)
	return recordedRequest{}
}

// waitEvents blocks until the device has recorded at least n events.
// Sends complete when the client hands the frame to the transport, so the
// recorder can trail the sender briefly.
func (d *mockDevice) waitEvents(t *testing.T, n int) []recordedEvent {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		events := d.Events()
		if len(events) >= n {
			return events
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d events, have %d: %v", n, len(events), events)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// newTestClient builds a client against the mock device with a clean
// environment, correct credentials, and cleanup registered.
func newTestClient(t *testing.T, d *mockDevice, opts ...ClientOption) *Client {
	t.Helper()
	clearKVMEnv(t)
	opts = append([]ClientOption{WithPassword(testPassword)}, opts...)
	client, err := New(d.host(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// Wire shorthand for expected recorded events.

func keyDown(key string) recordedEvent {
	return recordedEvent{Type: "key", Payload: fmt.Sprintf(`{"key":%q,"state":true}`, key)}
}

func keyUp(key string) recordedEvent {
	return recordedEvent{Type: "key", Payload: fmt.Sprintf(`{"key":%q,"state":false}`, key)}
}

func buttonDown(button MouseButton) recordedEvent {
	return recordedEvent{Type: "mouse_button", Payload: fmt.Sprintf(`{"button":%q,"state":true}`, button)}
}

func buttonUp(button MouseButton) recordedEvent {
	return recordedEvent{Type: "mouse_button", Payload: fmt.Sprintf(`{"button":%q,"state":false}`, button)}
}

func moveTo(x, y int) recordedEvent {
	return recordedEvent{Type: "mouse_move", Payload: fmt.Sprintf(`{"to":{"x":%d,"y":%d}}`, x, y)}
}

func wheelBy(x, y int) recordedEvent {
	return recordedEvent{Type: "mouse_wheel", Payload: fmt.Sprintf(`{"delta":{"x":%d,"y":%d}}`, x, y)}
}

func relativeBy(x, y int) recordedEvent {
	return recordedEvent{Type: "mouse_relative", Payload: fmt.Sprintf(`{"delta":{"x":%d,"y":%d}}`, x, y)}
}
