/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package client connects a player to a charades relay server over a
// websocket and exposes the connection as a transport.Channel.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Seednode/charades/internal/transport"
)

// CookieName carries the player id on both the HTTP pages and the websocket.
const CookieName = "charades_id"

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 1 << 20
)

// Conn is a websocket connection to one game. Emit may be called from any
// goroutine; handlers run on the goroutine calling Run.
type Conn struct {
	ws       *websocket.Conn
	playerID string
	logger   *zap.SugaredLogger

	writeMu sync.Mutex
	closed  atomic.Bool

	mu       sync.RWMutex
	handlers map[string][]func(transport.Envelope)
}

// Dial opens the websocket at rawURL, which may be either the game page or
// its /ws endpoint, using http(s) or ws(s).
func Dial(ctx context.Context, rawURL, playerID string, logger *zap.SugaredLogger) (*Conn, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	target, err := SocketURL(rawURL)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Add("Cookie", (&http.Cookie{Name: CookieName, Value: playerID}).String())

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: writeWait,
	}

	ws, resp, err := dialer.DialContext(ctx, target, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %s: %w", target, resp.Status, err)
		}
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}

	ws.SetReadLimit(maxMessageSize)

	return &Conn{
		ws:       ws,
		playerID: playerID,
		logger:   logger,
		handlers: make(map[string][]func(transport.Envelope)),
	}, nil
}

// SocketURL turns a game URL into its websocket endpoint.
func SocketURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse game url: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q in %s", u.Scheme, rawURL)
	}
	if u.Host == "" {
		return "", fmt.Errorf("missing host in %s", rawURL)
	}

	u.Path = strings.TrimSuffix(u.Path, "/")
	if !strings.HasSuffix(u.Path, "/ws") {
		u.Path += "/ws"
	}
	u.RawQuery = ""
	u.Fragment = ""

	return u.String(), nil
}

func (c *Conn) PlayerID() string { return c.playerID }

func (c *Conn) Emit(event string, seq uint64, data any) error {
	msg, err := transport.Encode(transport.Envelope{Event: event, Seq: seq}, data)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))

	return c.ws.WriteMessage(websocket.TextMessage, msg)
}

func (c *Conn) Subscribe(event string, handler func(transport.Envelope)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handlers[event] = append(c.handlers[event], handler)
}

// Run reads until the connection closes or ctx is done, dispatching every
// event to its subscribers. A clean close returns nil.
func (c *Conn) Run(ctx context.Context) error {
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)

	go c.keepalive(ctx, done)

	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || c.closed.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		env, err := transport.Decode(msg)
		if err != nil {
			c.logger.Warnw("discarding message", "error", err)
			continue
		}

		c.dispatch(env)
	}
}

func (c *Conn) keepalive(ctx context.Context, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
				c.logger.Debugw("ping failed", "error", err)
			}

		case <-ctx.Done():
			_ = c.Close()
			return

		case <-done:
			return
		}
	}
}

func (c *Conn) dispatch(env transport.Envelope) {
	c.mu.RLock()
	handlers := append([]func(transport.Envelope){}, c.handlers[env.Event]...)
	c.mu.RUnlock()

	for _, h := range handlers {
		h(env)
	}
}

// Close says goodbye to the server and drops the connection.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))

	return c.ws.Close()
}
