package alerts

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/screener/backend/pkg/logger"
)

// Timing
const (
	PingInterval          = 30 * time.Second
	ReconnectInitialDelay = 3 * time.Second
	ReconnectMaxDelay     = 30 * time.Second
	writeWait             = 10 * time.Second
)

// Listener keeps a websocket open to the watchlist service's per-user notification channel
// and hands every text message to OnMessage. It reconnects until its context ends.
type Listener struct {
	url    string
	logger *logger.Logger
	dialer *websocket.Dialer

	initialDelay time.Duration
	maxDelay     time.Duration
	pingInterval time.Duration

	onMessage    func(string)
	onConnected  func()
	onDisconnect func(error)

	mu        sync.Mutex
	connected bool
}

// NewListener creates a listener for userID under baseURL (e.g. ws://localhost:8002/ws)
func NewListener(baseURL string, userID int, log *logger.Logger) *Listener {
	return &Listener{
		url:    strings.TrimRight(baseURL, "/") + "/" + strconv.Itoa(userID),
		logger: log.WithComponent("alerts-listener").WithField("user_id", userID),
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		initialDelay: ReconnectInitialDelay,
		maxDelay:     ReconnectMaxDelay,
		pingInterval: PingInterval,
	}
}

// Callback setters
func (l *Listener) OnMessage(fn func(string))   { l.onMessage = fn }
func (l *Listener) OnConnected(fn func())       { l.onConnected = fn }
func (l *Listener) OnDisconnect(fn func(error)) { l.onDisconnect = fn }

// URL is the socket address
func (l *Listener) URL() string { return l.url }

// IsConnected returns connection status
func (l *Listener) IsConnected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected
}

func (l *Listener) setConnected(v bool) {
	l.mu.Lock()
	l.connected = v
	l.mu.Unlock()
}

// Run connects and serves until ctx is done, reconnecting after every drop.
// A dropped connection is retried after the initial delay; consecutive dial failures
// double it up to the maximum. Run always returns ctx.Err().
func (l *Listener) Run(ctx context.Context) error {
	delay := l.initialDelay

	for {
		conn, _, err := l.dialer.DialContext(ctx, l.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.WithError(err).WithField("retry_in", delay).Warn("WebSocket dial failed")

			if !sleep(ctx, delay) {
				return ctx.Err()
			}
			delay *= 2
			if delay > l.maxDelay {
				delay = l.maxDelay
			}
			continue
		}

		delay = l.initialDelay
		l.setConnected(true)
		l.logger.Info("WebSocket connected")
		if l.onConnected != nil {
			l.onConnected()
		}

		err = l.serve(ctx, conn)

		l.setConnected(false)
		if l.onDisconnect != nil {
			l.onDisconnect(err)
		}
		if ctx.Err() != nil {
			l.logger.Info("WebSocket closed")
			return ctx.Err()
		}
		l.logger.WithError(err).WithField("retry_in", delay).Warn("WebSocket disconnected, reconnecting")

		if !sleep(ctx, delay) {
			return ctx.Err()
		}
	}
}

// serve runs the read loop of one connection. It returns the error that ended it.
func (l *Listener) serve(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	var wg sync.WaitGroup
	defer func() {
		close(done)
		conn.Close()
		wg.Wait()
	}()

	wg.Add(2)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			conn.Close()
		case <-done:
		}
	}()
	go func() {
		defer wg.Done()
		l.pingLoop(conn, done)
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read error: %w", err)
		}
		if msgType == websocket.TextMessage && l.onMessage != nil {
			l.onMessage(string(data))
		}
	}
}

func (l *Listener) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(l.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				l.logger.WithError(err).Debug("Ping failed")
				return
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
