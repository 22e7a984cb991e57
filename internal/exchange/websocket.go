package exchange

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kasyap1234/gridcore/config"
)

type subscription struct {
	name    string
	symbols []string
}

// WebSocketClient streams real-time market data from Delta Exchange:
// the trade feed the simulator's live counterpart replays against,
// plus ticker/candle/orderbook channels for display and EMA upkeep.
type WebSocketClient struct {
	cfg  *config.Config
	conn *websocket.Conn
	url  string

	subscriptions []subscription

	onTicker           func(Ticker)
	onTrade            func(Trade)
	onCandle           func(Candle)
	onCandleWithSymbol func(symbol string, candle Candle)
	onOrderbook        func(json.RawMessage)
	onError            func(error)

	mu           sync.RWMutex
	isConnected  bool
	stopChan     chan struct{}
	reconnecting bool
	closeOnce    sync.Once
	writeMu      sync.Mutex
	started      bool
}

// WebSocketMessage is a message from the Delta Exchange WebSocket.
type WebSocketMessage struct {
	Type    string          `json:"type"`
	Channel string          `json:"channel,omitempty"`
	Symbol  string          `json:"symbol,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// NewWebSocketClient creates a WebSocket client for the configured
// endpoint.
func NewWebSocketClient(cfg *config.Config) *WebSocketClient {
	return &WebSocketClient{
		cfg:           cfg,
		url:           cfg.WebSocketURL,
		subscriptions: []subscription{},
		stopChan:      make(chan struct{}),
	}
}

func (ws *WebSocketClient) OnTicker(callback func(Ticker)) { ws.onTicker = callback }

// OnTrade sets the callback invoked for each public trade print --
// the feed the live engine turns into simulator.Tick values.
func (ws *WebSocketClient) OnTrade(callback func(Trade)) { ws.onTrade = callback }

func (ws *WebSocketClient) OnCandle(callback func(Candle)) { ws.onCandle = callback }

func (ws *WebSocketClient) OnCandleWithSymbol(callback func(symbol string, candle Candle)) {
	ws.onCandleWithSymbol = callback
}

func (ws *WebSocketClient) OnOrderbook(callback func(json.RawMessage)) { ws.onOrderbook = callback }

func (ws *WebSocketClient) OnError(callback func(error)) { ws.onError = callback }

// Connect establishes the WebSocket connection, forcing HTTP/1.1 (ALPN
// disabled) since upgrade fails behind CDNs that otherwise negotiate
// HTTP/2.
func (ws *WebSocketClient) Connect() error {
	tlsConfig := &tls.Config{NextProtos: []string{"http/1.1"}}
	dialer := &websocket.Dialer{HandshakeTimeout: 10 * time.Second, TLSClientConfig: tlsConfig}

	headers := make(http.Header)
	if u, err := url.Parse(ws.url); err == nil {
		headers.Add("Origin", "https://"+u.Host)
	} else {
		headers.Add("Origin", "https://india.delta.exchange")
	}
	headers.Add("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	headers.Add("Accept-Language", "en-US,en;q=0.9")

	conn, resp, err := dialer.Dial(ws.url, headers)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket dial failed with status %d: %v", resp.StatusCode, err)
		}
		return fmt.Errorf("websocket dial failed: %v", err)
	}

	ws.mu.Lock()
	oldConn := ws.conn
	ws.conn = conn
	ws.isConnected = true
	startLoops := !ws.started
	ws.started = true
	subs := make([]subscription, len(ws.subscriptions))
	copy(subs, ws.subscriptions)
	ws.mu.Unlock()

	if oldConn != nil {
		_ = oldConn.Close()
	}
	if startLoops {
		go ws.readMessages()
		go ws.heartbeat()
	}
	for _, sub := range subs {
		_ = ws.sendSubscribe(sub)
	}

	log.Printf("WebSocket connected to %s", ws.url)
	return nil
}

// Subscribe subscribes to a channel for the given symbols, resending
// on reconnect.
func (ws *WebSocketClient) Subscribe(channel string, symbols []string) error {
	ws.mu.Lock()
	for _, existing := range ws.subscriptions {
		if existing.name == channel && equalStringSlice(existing.symbols, symbols) {
			ws.mu.Unlock()
			return nil
		}
	}
	ws.subscriptions = append(ws.subscriptions, subscription{name: channel, symbols: append([]string(nil), symbols...)})
	isConnected := ws.isConnected
	ws.mu.Unlock()

	if isConnected {
		return ws.sendSubscribe(subscription{name: channel, symbols: symbols})
	}
	return nil
}

func (ws *WebSocketClient) SubscribeTicker(symbol string) error {
	return ws.Subscribe("v2/ticker", []string{symbol})
}

// SubscribeTrade subscribes to the public trade-print feed for a
// symbol -- the wire source for the tick-replay's live counterpart.
func (ws *WebSocketClient) SubscribeTrade(symbol string) error {
	return ws.Subscribe("all_trades", []string{symbol})
}

func (ws *WebSocketClient) SubscribeCandles(symbol, resolution string) error {
	return ws.Subscribe(fmt.Sprintf("candlestick_%s", resolution), []string{symbol})
}

func (ws *WebSocketClient) SubscribeOrderbook(symbol string) error {
	return ws.Subscribe("l2_orderbook", []string{symbol})
}

func (ws *WebSocketClient) sendSubscribe(sub subscription) error {
	var symbolsPayload interface{} = "all"
	if len(sub.symbols) > 0 {
		symbolsPayload = sub.symbols
	}
	msg := map[string]interface{}{
		"type": "subscribe",
		"payload": map[string]interface{}{
			"channels": []map[string]interface{}{
				{"name": sub.name, "symbols": symbolsPayload},
			},
		},
	}
	return ws.sendJSON(msg)
}

func (ws *WebSocketClient) sendJSON(msg interface{}) error {
	ws.mu.RLock()
	if ws.conn == nil {
		ws.mu.RUnlock()
		return fmt.Errorf("websocket not connected")
	}
	conn := ws.conn
	ws.mu.RUnlock()

	ws.writeMu.Lock()
	defer ws.writeMu.Unlock()
	return conn.WriteJSON(msg)
}

func (ws *WebSocketClient) readMessages() {
	for {
		select {
		case <-ws.stopChan:
			return
		default:
			ws.mu.RLock()
			conn := ws.conn
			ws.mu.RUnlock()
			if conn == nil {
				time.Sleep(100 * time.Millisecond)
				continue
			}

			_, message, err := conn.ReadMessage()
			if err != nil {
				log.Printf("WebSocket read error: %v", err)
				if ws.onError != nil {
					ws.onError(err)
				}
				ws.reconnect()
				continue
			}
			ws.handleMessage(message)
		}
	}
}

func (ws *WebSocketClient) handleMessage(data []byte) {
	var msg WebSocketMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Failed to parse WebSocket message: %v", err)
		return
	}

	switch {
	case msg.Type == "v2/ticker" || msg.Channel == "v2/ticker" || containsSubstr(msg.Type, "ticker") || containsSubstr(msg.Channel, "ticker"):
		if ws.onTicker != nil {
			var ticker Ticker
			if err := json.Unmarshal(msg.Data, &ticker); err == nil {
				ws.onTicker(ticker)
			}
		}

	case msg.Type == "all_trades" || msg.Channel == "all_trades" || containsSubstr(msg.Type, "trade") || containsSubstr(msg.Channel, "trade"):
		if ws.onTrade != nil {
			var trade Trade
			if err := json.Unmarshal(msg.Data, &trade); err == nil {
				ws.onTrade(trade)
			}
		}

	case containsSubstr(msg.Type, "candlestick") || containsSubstr(msg.Channel, "candlestick"):
		if ws.onCandle != nil || ws.onCandleWithSymbol != nil {
			var candle Candle
			if err := json.Unmarshal(msg.Data, &candle); err == nil {
				if ws.onCandle != nil {
					ws.onCandle(candle)
				}
				if ws.onCandleWithSymbol != nil {
					ws.onCandleWithSymbol(msg.Symbol, candle)
				}
			}
		}

	case containsSubstr(msg.Type, "l2_orderbook") || containsSubstr(msg.Channel, "l2_orderbook"):
		if ws.onOrderbook != nil {
			ws.onOrderbook(msg.Data)
		}

	case msg.Type == "subscribed":
		log.Printf("Subscribed to: %s", msg.Channel)

	case msg.Type == "error":
		log.Printf("WebSocket error: %s", string(data))
		if ws.onError != nil {
			ws.onError(fmt.Errorf("websocket error: %s", string(data)))
		}
	}
}

func (ws *WebSocketClient) heartbeat() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ws.stopChan:
			return
		case <-ticker.C:
			ws.mu.RLock()
			conn := ws.conn
			isConnected := ws.isConnected
			ws.mu.RUnlock()
			if conn == nil || !isConnected {
				continue
			}
			ws.writeMu.Lock()
			err := conn.WriteMessage(websocket.PingMessage, []byte{})
			ws.writeMu.Unlock()
			if err != nil {
				log.Printf("Heartbeat ping failed: %v", err)
			}
		}
	}
}

func (ws *WebSocketClient) reconnect() {
	ws.mu.Lock()
	if ws.reconnecting {
		ws.mu.Unlock()
		return
	}
	ws.reconnecting = true
	ws.isConnected = false
	ws.mu.Unlock()

	backoff := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ws.stopChan:
			return
		default:
			log.Printf("Attempting to reconnect in %v...", backoff)
			time.Sleep(backoff)

			if err := ws.Connect(); err != nil {
				log.Printf("Reconnection failed: %v", err)
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
				continue
			}

			ws.mu.Lock()
			ws.reconnecting = false
			ws.mu.Unlock()
			log.Println("Successfully reconnected")
			return
		}
	}
}

// Close shuts down the WebSocket connection. Idempotent.
func (ws *WebSocketClient) Close() {
	ws.closeOnce.Do(func() {
		close(ws.stopChan)
	})
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.conn != nil {
		ws.conn.Close()
		ws.conn = nil
	}
	ws.isConnected = false
}

func (ws *WebSocketClient) IsConnected() bool {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.isConnected
}

func containsSubstr(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

func equalStringSlice(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
