package services

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"marketdata_backend/models"
)

// WebSocket stream configuration
const (
	MaxStreamClients    = 100
	streamWriteTimeout  = 10 * time.Second
	streamPongTimeout   = 60 * time.Second
	streamPingInterval  = 30 * time.Second
	streamSymbolDelay   = 500 * time.Millisecond
	streamRefreshBudget = 2 * time.Minute
)

// StreamMessage is one frame pushed to stream subscribers
type StreamMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	Time string      `json:"time"`
}

// streamClient is one connected WebSocket subscriber
type streamClient struct {
	conn       *websocket.Conn
	send       chan []byte
	subscribed map[string]bool
	mu         sync.RWMutex
}

// QuoteStreamService pushes refreshed index quotes to WebSocket subscribers
type QuoteStreamService struct {
	quotes   *QuoteService
	market   *MarketService
	interval time.Duration

	clients    map[*streamClient]bool
	broadcast  chan StreamMessage
	register   chan *streamClient
	unregister chan *streamClient
	shutdown   chan struct{}
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
}

// NewQuoteStreamService creates a new quote stream service
func NewQuoteStreamService(quotes *QuoteService, market *MarketService, interval time.Duration) *QuoteStreamService {
	return &QuoteStreamService{
		quotes:     quotes,
		market:     market,
		interval:   interval,
		clients:    make(map[*streamClient]bool),
		broadcast:  make(chan StreamMessage, 256),
		register:   make(chan *streamClient),
		unregister: make(chan *streamClient),
		shutdown:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Start runs the hub and the periodic quote push
func (s *QuoteStreamService) Start() {
	go s.run()
	go s.pollQuotes()
	log.Println("Quote stream service started")
}

// Shutdown closes every client connection and stops the hub
func (s *QuoteStreamService) Shutdown() {
	close(s.shutdown)

	s.mu.Lock()
	for client := range s.clients {
		close(client.send)
		client.conn.Close()
	}
	s.clients = make(map[*streamClient]bool)
	s.mu.Unlock()

	log.Println("Quote stream service shutdown complete")
}

func (s *QuoteStreamService) run() {
	for {
		select {
		case <-s.shutdown:
			return

		case client := <-s.register:
			s.mu.Lock()
			if len(s.clients) >= MaxStreamClients {
				s.mu.Unlock()
				client.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "Server at capacity"))
				client.conn.Close()
				log.Printf("Stream client rejected: max clients reached (%d)", MaxStreamClients)
				continue
			}
			s.clients[client] = true
			clientCount := len(s.clients)
			s.mu.Unlock()
			log.Printf("Stream client connected. Total clients: %d", clientCount)

		case client := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
			clientCount := len(s.clients)
			s.mu.Unlock()
			log.Printf("Stream client disconnected. Total clients: %d", clientCount)

		case message := <-s.broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				log.Printf("Error marshaling stream message: %v", err)
				continue
			}

			s.mu.Lock()
			for client := range s.clients {
				if !client.wants(message) {
					continue
				}
				select {
				case client.send <- data:
				default:
					// Client buffer full, drop it
					delete(s.clients, client)
					close(client.send)
				}
			}
			s.mu.Unlock()
		}
	}
}

// wants reports whether a client subscribed to the symbol of a quote frame.
// Clients with no explicit subscriptions get everything.
func (c *streamClient) wants(message StreamMessage) bool {
	quote, ok := message.Data.(models.Quote)
	if !ok {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.subscribed) == 0 {
		return true
	}
	return c.subscribed[quote.Symbol]
}

// HandleWebSocket upgrades an HTTP request into a stream subscription
func (s *QuoteStreamService) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	atCapacity := len(s.clients) >= MaxStreamClients
	s.mu.RUnlock()

	if atCapacity {
		http.Error(w, "Server at capacity", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &streamClient{
		conn:       conn,
		send:       make(chan []byte, 256),
		subscribed: make(map[string]bool),
	}

	// The hub stops receiving once shutdown begins
	select {
	case s.register <- client:
	case <-s.shutdown:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(s)
}

func (c *streamClient) writePump() {
	ticker := time.NewTicker(streamPingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *streamClient) readPump(s *QuoteStreamService) {
	defer func() {
		select {
		case s.unregister <- c:
		case <-s.shutdown:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(streamPongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(streamPongTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var cmd struct {
			Action  string   `json:"action"`
			Symbols []string `json:"symbols"`
		}
		if err := json.Unmarshal(message, &cmd); err != nil {
			continue
		}

		switch cmd.Action {
		case "subscribe":
			c.mu.Lock()
			for _, symbol := range cmd.Symbols {
				c.subscribed[symbol] = true
			}
			c.mu.Unlock()
		case "unsubscribe":
			c.mu.Lock()
			for _, symbol := range cmd.Symbols {
				delete(c.subscribed, symbol)
			}
			c.mu.Unlock()
		}
	}
}

// pollQuotes refreshes the registered index quotes on the stream interval
// and broadcasts each refreshed quote
func (s *QuoteStreamService) pollQuotes() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.refreshAndBroadcast()

	for {
		select {
		case <-s.shutdown:
			return
		case <-ticker.C:
			s.refreshAndBroadcast()
		}
	}
}

func (s *QuoteStreamService) refreshAndBroadcast() {
	s.mu.RLock()
	clientCount := len(s.clients)
	s.mu.RUnlock()
	if clientCount == 0 {
		return
	}

	symbols, err := s.market.IndexSymbols()
	if err != nil {
		log.Printf("Stream refresh failed to list indexes: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), streamRefreshBudget)
	defer cancel()

	for _, quote := range s.quotes.Quotes(ctx, symbols, streamSymbolDelay) {
		s.broadcast <- StreamMessage{
			Type: "quote",
			Data: quote,
			Time: time.Now().UTC().Format(time.RFC3339),
		}
	}
}
