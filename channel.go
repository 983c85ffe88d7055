// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: The go-kvm Authors

package kvm

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// closeGracePeriod bounds the close frame write during channel teardown.
const closeGracePeriod = time.Second

// eventChannel is one live WebSocket connection to the device's event
// endpoint. Its lifecycle is linear: dialed (open), then dead after the
// first fatal send/read error or an explicit close. A dead handle is
// never revived; the client dials a replacement on the next input
// operation.
type eventChannel struct {
	conn    *websocket.Conn
	logger  Logger
	metrics MetricsCollector

	notifyCh chan<- Notification

	// writeMu serializes all writes. A batch holds it across its whole
	// event sequence, so events of one batch stay adjacent on the wire
	// and independent callers interleave only between batches.
	writeMu sync.Mutex

	dead      atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

// SendEvents delivers input events to the device in order as one
// contiguous sequence: no events from other goroutines are interleaved
// within the batch. The event channel is opened lazily on first use.
//
// Delivery is fire-and-forget. SendEvents returns once the last event is
// handed to the transport; the device sends no acknowledgements.
func (c *Client) SendEvents(events ...Event) error {
	return c.SendEventsContext(context.Background(), events...)
}

// SendEventsContext is SendEvents with context support for cancellation.
// Cancellation aborts an in-flight write and invalidates the channel
// handle; the next input operation dials a fresh one.
func (c *Client) SendEventsContext(ctx context.Context, events ...Event) error {
	return c.sendEvents(ctx, "SendEvents", events...)
}

// sendEvents is the shared delivery path for the gesture surfaces, tagging
// errors with the calling operation.
func (c *Client) sendEvents(ctx context.Context, op string, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	ch, err := c.ensureChannel(ctx)
	if err != nil {
		return err
	}
	return ch.send(ctx, op, events...)
}

// ensureChannel returns the live channel handle, dialing a new one if none
// exists. Concurrent callers share a single in-flight connect; opening an
// already-open channel is a cheap no-op.
func (c *Client) ensureChannel(ctx context.Context) (*eventChannel, error) {
	c.channelMu.Lock()
	ch := c.channel
	c.channelMu.Unlock()
	if ch != nil && ch.alive() {
		return ch, nil
	}

	resCh := c.channelSF.DoChan("connect", func() (interface{}, error) {
		c.channelMu.Lock()
		ch := c.channel
		c.channelMu.Unlock()
		if ch != nil && ch.alive() {
			return ch, nil
		}
		if ch != nil {
			// Reap the dead handle before replacing it.
			_ = ch.close()
		}

		nch, err := c.dialChannel(ctx)
		if err != nil {
			return nil, err
		}

		c.channelMu.Lock()
		c.channel = nch
		c.channelMu.Unlock()
		return nch, nil
	})

	select {
	case res := <-resCh:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*eventChannel), nil
	case <-ctx.Done():
		return nil, transportError("connect", "cancelled while waiting for event channel", ctx.Err())
	}
}

// dialChannel establishes one WebSocket connection, authenticating the
// upgrade with the current session, and starts the reader goroutine.
func (c *Client) dialChannel(ctx context.Context) (*eventChannel, error) {
	token, err := c.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Opening event channel", Field{Key: "url", Value: c.wsURL})
	c.metrics.Counter("kvm_channel_connects_total")

	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		TLSClientConfig:  c.tlsConfig,
		HandshakeTimeout: c.config.ConnectTimeout,
	}
	header := http.Header{}
	header.Set(authTokenHeader, token)

	conn, resp, err := dialer.DialContext(ctx, c.wsURL, header)
	if err != nil {
		c.metrics.Counter("kvm_channel_connect_errors_total")
		if resp != nil {
			drainAndClose(resp.Body)
			if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
				c.invalidateSession(token)
				return nil, authError("connect", fmt.Sprintf("device rejected session (HTTP %d)", resp.StatusCode), err)
			}
		}
		return nil, transportError("connect", "event channel dial failed", err)
	}

	ch := &eventChannel{
		conn:     conn,
		logger:   c.logger.With(Field{Key: "remote", Value: conn.RemoteAddr().String()}),
		metrics:  c.metrics,
		notifyCh: c.config.NotificationCh,
		done:     make(chan struct{}),
	}
	go ch.readLoop()

	ch.logger.Info("Event channel open")
	return ch, nil
}

// alive reports whether the handle can still accept sends.
func (ch *eventChannel) alive() bool {
	return !ch.dead.Load()
}

// markDead retires the handle. Idempotent.
func (ch *eventChannel) markDead() {
	ch.dead.Store(true)
}

// send writes the events in order while holding the write lock, so the
// batch reaches the wire as one contiguous sequence. Every event is
// encoded before anything is written; an encoding failure sends nothing.
func (ch *eventChannel) send(ctx context.Context, op string, events ...Event) error {
	frames := make([][]byte, 0, len(events))
	for _, ev := range events {
		data, err := marshalEvent(ev)
		if err != nil {
			return protocolError(op, "failed to encode event", err)
		}
		frames = append(frames, data)
	}

	ch.writeMu.Lock()
	defer ch.writeMu.Unlock()

	if !ch.alive() {
		return transportError(op, "event channel is closed", nil)
	}
	// A context that is already over fails here, before anything is
	// written, leaving the channel untouched.
	if err := ctx.Err(); err != nil {
		return transportError(op, "send cancelled", err)
	}

	// A cancelled predecessor may have left an expired write deadline.
	_ = ch.conn.SetWriteDeadline(time.Time{})

	// Abort the in-flight write when the context ends. The aborted write
	// poisons the connection, so the handle is retired below.
	if ctxDone := ctx.Done(); ctxDone != nil {
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			select {
			case <-ctxDone:
				_ = ch.conn.SetWriteDeadline(time.Now())
			case <-stop:
			}
		}()
	}

	for _, frame := range frames {
		if err := ch.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			ch.markDead()
			ch.metrics.Counter("kvm_channel_send_errors_total")
			if ctx.Err() != nil {
				return transportError(op, "send cancelled", ctx.Err())
			}
			ch.logger.Warn("Event send failed", Field{Key: "error", Value: err})
			return transportError(op, "failed to send event", err)
		}
		ch.metrics.Counter("kvm_events_sent_total")
	}
	return nil
}

// readLoop decodes device state notifications until the connection dies,
// forwarding them to the configured notification channel. It runs once per
// handle; its exit retires the handle.
func (ch *eventChannel) readLoop() {
	defer ch.markDead()

	for {
		var n Notification
		if err := ch.conn.ReadJSON(&n); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				ch.logger.Warn("Event channel closed unexpectedly", Field{Key: "error", Value: err})
			} else {
				ch.logger.Debug("Event channel reader stopped", Field{Key: "error", Value: err})
			}
			return
		}

		ch.metrics.Counter("kvm_notifications_total")
		if ch.notifyCh == nil {
			continue
		}
		select {
		case ch.notifyCh <- n:
		case <-ch.done:
			return
		}
	}
}

// close retires the handle and tears down the connection: best-effort
// close frame, then the underlying connection. Sends suspended on the
// connection fail once it closes. Safe to call multiple times.
func (ch *eventChannel) close() error {
	var err error
	ch.closeOnce.Do(func() {
		ch.markDead()
		close(ch.done)
		_ = ch.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeGracePeriod))
		err = ch.conn.Close()
		ch.logger.Debug("Event channel closed")
	})
	return err
}
