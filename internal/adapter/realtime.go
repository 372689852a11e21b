package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sethvargo/go-retry"

	"github.com/aberthet/chantier-sync/internal/config"
	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/aberthet/chantier-sync/models"
)

// ConnState is the realtime channel state surfaced to the status screen.
type ConnState string

const (
	ConnDisconnected ConnState = "disconnected"
	ConnConnecting   ConnState = "connecting"
	ConnConnected    ConnState = "connected"
)

// OperationFunc receives every operation frame pushed by the server.
type OperationFunc func(op models.Operation)

// StateFunc is notified on every connection state transition.
type StateFunc func(state ConnState)

const (
	realtimeHandshakeTimeout = 10 * time.Second
	reconnectBaseDelay       = 2 * time.Second
	reconnectMaxDelay        = time.Minute
)

// RealtimeClient maintains the WebSocket connection to the server's realtime
// channel. The connection is best effort: frames missed while disconnected
// are recovered by the next pull, so the client only ever reconnects, never
// replays.
type RealtimeClient struct {
	wsURL  string
	logger *logger.Logger

	mu     sync.Mutex
	token  string
	filter *models.SubscribeMessage
	conn   *websocket.Conn
	state  ConnState

	onState StateFunc
}

// NewRealtimeClient derives the WebSocket endpoint from the adapter's HTTP
// address (http becomes ws, https becomes wss).
func NewRealtimeClient(adapterCfg config.ClientAdapter, logger *logger.Logger) (*RealtimeClient, error) {
	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/sync/ws"

	return &RealtimeClient{
		wsURL:  u.String(),
		logger: logger,
		state:  ConnDisconnected,
	}, nil
}

// SetToken stores the bearer token used on the next (re)connect.
func (c *RealtimeClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = strings.TrimSpace(token)
}

// State returns the current connection state.
func (c *RealtimeClient) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnStateChange registers the state transition callback. Must be called
// before Run.
func (c *RealtimeClient) OnStateChange(fn StateFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = fn
}

func (c *RealtimeClient) setState(state ConnState) {
	c.mu.Lock()
	changed := c.state != state
	c.state = state
	fn := c.onState
	c.mu.Unlock()

	if changed && fn != nil {
		fn(state)
	}
}

// Subscribe narrows the server-side delivery filter. An empty message resets
// to all entities. The filter is remembered and replayed after every
// reconnect; sending while disconnected is not an error.
func (c *RealtimeClient) Subscribe(msg models.SubscribeMessage) error {
	c.mu.Lock()
	c.filter = &msg
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.WriteJSON(models.RealtimeFrame{Event: models.EventSubscribe, Subscribe: &msg})
}

// Run connects to the realtime channel and keeps the connection alive until
// ctx is cancelled, reconnecting with capped exponential backoff. Every
// operation frame is handed to onOperation; ping/pong keepalive is handled by
// the transport.
func (c *RealtimeClient) Run(ctx context.Context, deviceID string, onOperation OperationFunc) {
	defer c.setState(ConnDisconnected)

	backoff := retry.WithCappedDuration(reconnectMaxDelay, retry.NewExponential(reconnectBaseDelay))

	for {
		if ctx.Err() != nil {
			return
		}

		c.setState(ConnConnecting)
		conn, err := c.dial(ctx, deviceID)
		if err != nil {
			c.setState(ConnDisconnected)
			delay, _ := backoff.Next()
			c.logger.Warn().
				Err(err).
				Dur("retry_in", delay).
				Msg("realtime dial failed")

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		}

		// fresh connection resets the backoff envelope
		backoff = retry.WithCappedDuration(reconnectMaxDelay, retry.NewExponential(reconnectBaseDelay))

		c.mu.Lock()
		c.conn = conn
		filter := c.filter
		c.mu.Unlock()
		c.setState(ConnConnected)

		if filter != nil {
			if err := conn.WriteJSON(models.RealtimeFrame{Event: models.EventSubscribe, Subscribe: filter}); err != nil {
				c.logger.Warn().Err(err).Msg("realtime resubscribe failed")
			}
		}

		c.readLoop(ctx, conn, onOperation)

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		c.setState(ConnDisconnected)
	}
}

func (c *RealtimeClient) dial(ctx context.Context, deviceID string) (*websocket.Conn, error) {
	u, err := url.Parse(c.wsURL)
	if err != nil {
		return nil, err
	}
	query := u.Query()
	query.Set("deviceId", deviceID)
	u.RawQuery = query.Encode()

	header := http.Header{}
	if token := c.tokenLocked(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	header.Set("X-Device-ID", deviceID)

	dialer := websocket.Dialer{HandshakeTimeout: realtimeHandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: realtime handshake", ErrUnauthorized)
		}
		return nil, fmt.Errorf("realtime dial: %w", err)
	}
	return conn, nil
}

func (c *RealtimeClient) tokenLocked() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// readLoop consumes frames until the connection drops or ctx is cancelled.
func (c *RealtimeClient) readLoop(ctx context.Context, conn *websocket.Conn, onOperation OperationFunc) {
	defer conn.Close()

	// unblock ReadJSON when the caller shuts down
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var frame models.RealtimeFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if ctx.Err() == nil {
				c.logger.Debug().Err(err).Msg("realtime connection lost")
			}
			return
		}

		switch frame.Event {
		case models.EventOperation:
			if frame.Operation != nil && onOperation != nil {
				onOperation(*frame.Operation)
			}
		case models.EventError:
			c.logger.Warn().Str("error", frame.Error).Msg("realtime server error frame")
		}
	}
}
