// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: The go-kvm Authors

package kvm

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Environment variables consulted at construction for any configuration
// field not set explicitly.
const (
	EnvHost      = "KVM_HOST"
	EnvUsername  = "KVM_USERNAME"
	EnvPassword  = "KVM_PASSWORD"
	EnvTLSVerify = "KVM_TLS_VERIFY"
)

// Construction defaults.
const (
	DefaultUsername       = "admin"
	DefaultConnectTimeout = 30 * time.Second
)

// Client is a handle to one KVM bridge device.
// Safe for concurrent use from multiple goroutines.
//
// Construction performs no I/O. The first request authenticates lazily and
// the first input operation opens the event channel lazily; both are
// re-established on demand after Close or a transport failure.
type Client struct {
	config  *ClientConfig
	logger  Logger
	metrics MetricsCollector

	baseURL string // https://host
	wsURL   string // wss://host/api/ws?stream=0

	httpc     *http.Client
	tlsConfig *tls.Config

	// Session state. sessionSF deduplicates concurrent logins so exactly
	// one authentication exchange is in flight at a time.
	sessionMu    sync.Mutex
	sessionToken string
	sessionSF    singleflight.Group

	// Event channel state. channelSF deduplicates concurrent connects so
	// at most one live handle exists per client.
	channelMu sync.Mutex
	channel   *eventChannel
	channelSF singleflight.Group

	keyboard Keyboard
	mouse    Mouse
	video    Video
	msd      MSD
	atx      ATX
}

// ClientConfig configures a KVM client.
type ClientConfig struct {
	// Host is the device hostname or host:port. Required; falls back to
	// the KVM_HOST environment variable when empty.
	Host string

	// Username is the account used for the login exchange.
	// Falls back to KVM_USERNAME, then to DefaultUsername.
	Username string

	// Password is the account password. Falls back to KVM_PASSWORD.
	Password string

	// TLSVerify enables certificate verification for HTTPS and WSS.
	// Disabled by default because devices ship self-signed certificates;
	// KVM_TLS_VERIFY=1 enables it when the field is left unset.
	TLSVerify bool

	// Logger specifies the logger instance to use for client logging.
	Logger Logger

	// Metrics specifies the metrics collector to use for client monitoring.
	Metrics MetricsCollector

	// NotificationCh is the channel where device state notifications will
	// be delivered. The channel should be buffered; delivery blocks the
	// channel reader goroutine, never sends.
	NotificationCh chan<- Notification

	// ConnectTimeout bounds connection establishment (dial, TLS, WebSocket
	// upgrade). It does not bound individual operations; callers needing
	// bounded waits pass a context to the Context form of each method.
	ConnectTimeout time.Duration
}

// ClientOption represents a functional option for configuring a KVM client.
type ClientOption func(*ClientConfig)

// WithUsername sets the account used for the login exchange.
func WithUsername(username string) ClientOption {
	return func(cfg *ClientConfig) {
		cfg.Username = username
	}
}

// WithPassword sets the account password used for the login exchange.
func WithPassword(password string) ClientOption {
	return func(cfg *ClientConfig) {
		cfg.Password = password
	}
}

// WithTLSVerification enables or disables certificate verification for
// HTTPS and WSS connections to the device.
func WithTLSVerification(verify bool) ClientOption {
	return func(cfg *ClientConfig) {
		cfg.TLSVerify = verify
	}
}

// WithLogger sets the logger for the client.
// Use NoOpLogger to disable logging or provide a custom implementation.
func WithLogger(logger Logger) ClientOption {
	return func(cfg *ClientConfig) {
		cfg.Logger = logger
	}
}

// WithMetrics sets the metrics collector for client monitoring.
// Use NoOpMetrics to disable metrics collection or provide a custom implementation.
func WithMetrics(metrics MetricsCollector) ClientOption {
	return func(cfg *ClientConfig) {
		cfg.Metrics = metrics
	}
}

// WithNotificationChannel sets the channel where device state notifications
// will be delivered. The channel should be buffered to keep the reader
// goroutine from stalling on a slow consumer.
func WithNotificationChannel(ch chan<- Notification) ClientOption {
	return func(cfg *ClientConfig) {
		cfg.NotificationCh = ch
	}
}

// WithConnectTimeout sets the timeout for connection establishment,
// covering dial, TLS, and the WebSocket upgrade.
func WithConnectTimeout(timeout time.Duration) ClientOption {
	return func(cfg *ClientConfig) {
		cfg.ConnectTimeout = timeout
	}
}

// New creates a client for the device at host using functional options for
// configuration. Options are applied in the order they are provided; any
// field left unset falls back to its environment variable and then to its
// default.
//
// Example usage:
//
//	client, err := kvm.New("kvm.example.net",
//		kvm.WithPassword("secret"),
//		kvm.WithLogger(&kvm.StandardLogger{}),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	if err := client.Keyboard().Type("hello"); err != nil {
//		log.Fatal(err)
//	}
func New(host string, opts ...ClientOption) (*Client, error) {
	cfg := &ClientConfig{Host: host}
	for _, opt := range opts {
		opt(cfg)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a client from an explicit configuration struct.
// Zero-valued fields are resolved the same way New resolves them.
func NewWithConfig(cfg *ClientConfig) (*Client, error) {
	resolved := ClientConfig{}
	if cfg != nil {
		resolved = *cfg
	}

	if resolved.Host == "" {
		resolved.Host = os.Getenv(EnvHost)
	}
	if resolved.Host == "" {
		return nil, configurationError("New", "no device host configured", nil)
	}
	if resolved.Username == "" {
		resolved.Username = os.Getenv(EnvUsername)
	}
	if resolved.Username == "" {
		resolved.Username = DefaultUsername
	}
	if resolved.Password == "" {
		resolved.Password = os.Getenv(EnvPassword)
	}
	if !resolved.TLSVerify {
		if v, err := strconv.ParseBool(os.Getenv(EnvTLSVerify)); err == nil {
			resolved.TLSVerify = v
		}
	}
	if resolved.Logger == nil {
		resolved.Logger = &NoOpLogger{}
	}
	if resolved.Metrics == nil {
		resolved.Metrics = &NoOpMetrics{}
	}
	if resolved.ConnectTimeout <= 0 {
		resolved.ConnectTimeout = DefaultConnectTimeout
	}

	tlsConfig := &tls.Config{
		InsecureSkipVerify: !resolved.TLSVerify, // #nosec G402 - devices ship self-signed certificates; verification is opt-in
		MinVersion:         tls.VersionTLS12,
	}

	c := &Client{
		config:    &resolved,
		logger:    resolved.Logger,
		metrics:   resolved.Metrics,
		baseURL:   "https://" + resolved.Host,
		wsURL:     "wss://" + resolved.Host + "/api/ws?stream=0",
		tlsConfig: tlsConfig,
		httpc: &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout: resolved.ConnectTimeout,
				}).DialContext,
				TLSClientConfig:     tlsConfig,
				TLSHandshakeTimeout: resolved.ConnectTimeout,
			},
		},
	}

	c.keyboard = Keyboard{client: c}
	c.mouse = Mouse{client: c}
	c.video = Video{client: c}
	c.msd = MSD{client: c}
	c.atx = ATX{client: c}

	c.logger.Debug("Client configured",
		Field{Key: "host", Value: resolved.Host},
		Field{Key: "username", Value: resolved.Username},
		Field{Key: "tls_verify", Value: resolved.TLSVerify})

	return c, nil
}

// Keyboard returns the keyboard gesture surface.
func (c *Client) Keyboard() *Keyboard {
	return &c.keyboard
}

// Mouse returns the mouse gesture surface.
func (c *Client) Mouse() *Mouse {
	return &c.mouse
}

// Video returns the video query surface.
func (c *Client) Video() *Video {
	return &c.video
}

// MSD returns the mass storage device surface.
func (c *Client) MSD() *MSD {
	return &c.msd
}

// ATX returns the power control surface.
func (c *Client) ATX() *ATX {
	return &c.atx
}

// Info returns the device information dictionary from /api/info. The
// schema is device-owned; values are returned as decoded JSON.
func (c *Client) Info() (map[string]interface{}, error) {
	return c.InfoContext(context.Background())
}

// InfoContext is Info with context support for cancellation.
func (c *Client) InfoContext(ctx context.Context) (map[string]interface{}, error) {
	return c.apiGet(ctx, "Info", "/api/info", nil)
}

// StreamerInfo returns the video streamer state. Equivalent to
// Video().StreamerInfo.
func (c *Client) StreamerInfo() (map[string]interface{}, error) {
	return c.video.StreamerInfoContext(context.Background())
}

// StreamerInfoContext is StreamerInfo with context support for cancellation.
func (c *Client) StreamerInfoContext(ctx context.Context) (map[string]interface{}, error) {
	return c.video.StreamerInfoContext(ctx)
}

// Screenshot captures the current video frame as JPEG bytes. Equivalent to
// Video().Screenshot.
func (c *Client) Screenshot() ([]byte, error) {
	return c.video.ScreenshotContext(context.Background())
}

// ScreenshotContext is Screenshot with context support for cancellation.
func (c *Client) ScreenshotContext(ctx context.Context) ([]byte, error) {
	return c.video.ScreenshotContext(ctx)
}

// Close tears down the client's connections: the event channel is closed,
// the cached session is forgotten, and idle HTTP connections are released.
// Sends suspended on the event channel fail with an ErrTransport error
// rather than hang.
//
// It is safe to call Close multiple times. The client itself remains
// usable; a later operation authenticates again and opens a fresh event
// channel.
//
// Example usage:
//
//	client, err := kvm.New("kvm.example.net", kvm.WithPassword("secret"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
func (c *Client) Close() error {
	c.channelMu.Lock()
	ch := c.channel
	c.channel = nil
	c.channelMu.Unlock()

	c.sessionMu.Lock()
	c.sessionToken = ""
	c.sessionMu.Unlock()

	c.httpc.CloseIdleConnections()

	if ch != nil {
		c.logger.Info("Closing event channel")
		return ch.close()
	}
	return nil
}
