package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

// WSFeedConfig configures the push price feed.
type WSFeedConfig struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the reconnect backoff.
	MaxReconnectDelay time.Duration
	// PingInterval is the keep-alive ping cadence.
	PingInterval time.Duration
	// ReadTimeout bounds a single read.
	ReadTimeout time.Duration
	// WriteTimeout bounds ping writes.
	WriteTimeout time.Duration
	// Staleness is how long a cached price stays servable.
	Staleness time.Duration

	Logger *log.Logger
}

// DefaultWSFeedConfig returns the default feed configuration.
func DefaultWSFeedConfig() WSFeedConfig {
	return WSFeedConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		Staleness:         30 * time.Second,
	}
}

// WSFeed consumes a push price stream over a websocket and serves the
// last observed price per token. It satisfies PriceSource; a token the
// stream has not mentioned recently reports ErrPriceUnavailable so the
// caller can fall back to a polling source.
type WSFeed struct {
	endpoint string
	config   WSFeedConfig
	logger   *log.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	prices   map[string]quote
	pricesMu sync.RWMutex

	done chan struct{}
	wg   sync.WaitGroup
}

type quote struct {
	price decimal.Decimal
	at    time.Time
}

var _ PriceSource = (*WSFeed)(nil)

// NewWSFeed connects to the price stream and starts the read and ping
// loops.
func NewWSFeed(ctx context.Context, endpoint string, config *WSFeedConfig) (*WSFeed, error) {
	cfg := DefaultWSFeedConfig()
	if config != nil {
		cfg = *config
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	f := &WSFeed{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger,
		prices:   make(map[string]quote),
		done:     make(chan struct{}),
	}

	if err := f.connect(ctx); err != nil {
		return nil, err
	}

	f.wg.Add(2)
	go f.readLoop()
	go f.pingLoop()
	return f, nil
}

func (f *WSFeed) connect(ctx context.Context) error {
	f.connMu.Lock()
	defer f.connMu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	f.conn = conn
	return nil
}

// CurrentPrice serves the cached stream price for the token.
func (f *WSFeed) CurrentPrice(_ context.Context, tokenID string) (decimal.Decimal, error) {
	f.pricesMu.RLock()
	q, ok := f.prices[tokenID]
	f.pricesMu.RUnlock()

	if !ok || time.Since(q.at) > f.config.Staleness {
		return decimal.Zero, fmt.Errorf("token %s: %w", tokenID, ErrPriceUnavailable)
	}
	return q.price, nil
}

// Close shuts the feed down and waits for its loops to finish.
func (f *WSFeed) Close() error {
	if f.closed.Swap(true) {
		return nil
	}
	close(f.done)

	f.connMu.Lock()
	if f.conn != nil {
		f.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		f.conn.Close()
	}
	f.connMu.Unlock()

	f.wg.Wait()
	return nil
}

// priceMessage is the stream's wire format.
type priceMessage struct {
	TokenID  string `json:"tokenId"`
	PriceUsd string `json:"priceUsd"`
}

func (f *WSFeed) readLoop() {
	defer f.wg.Done()

	delay := f.config.ReconnectDelay

	for !f.closed.Load() {
		f.connMu.Lock()
		conn := f.conn
		f.connMu.Unlock()

		if conn == nil {
			if !f.reconnect(delay) {
				return
			}
			delay *= 2
			if delay > f.config.MaxReconnectDelay {
				delay = f.config.MaxReconnectDelay
			}
			continue
		}

		conn.SetReadDeadline(time.Now().Add(f.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if f.closed.Load() {
				return
			}
			f.logger.Printf("price feed read: %v", err)
			f.connMu.Lock()
			f.conn.Close()
			f.conn = nil
			f.connMu.Unlock()
			continue
		}

		delay = f.config.ReconnectDelay
		f.handleMessage(message)
	}
}

// reconnect waits out the backoff delay then redials. It returns false
// when the feed is shutting down.
func (f *WSFeed) reconnect(delay time.Duration) bool {
	select {
	case <-f.done:
		return false
	case <-time.After(delay):
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := f.connect(ctx); err != nil {
		f.logger.Printf("price feed reconnect: %v", err)
	}
	return true
}

func (f *WSFeed) handleMessage(message []byte) {
	var msg priceMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}

	price, err := decimal.NewFromString(msg.PriceUsd)
	if err != nil || !price.IsPositive() || msg.TokenID == "" {
		return
	}

	f.pricesMu.Lock()
	f.prices[msg.TokenID] = quote{price: price, at: time.Now()}
	f.pricesMu.Unlock()
}

func (f *WSFeed) pingLoop() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
			f.connMu.Lock()
			if f.conn != nil {
				f.conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
				f.conn.WriteMessage(websocket.PingMessage, nil)
			}
			f.connMu.Unlock()
		}
	}
}
