package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"snakescores/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	syncTimeout = 5 * time.Second
)

const (
	MessageLeaderboardUpdate  = "leaderboard_update"
	MessageLeaderboardSync    = "leaderboard_sync"
	MessageRequestLeaderboard = "request_leaderboard"
)

type leaderboardReader interface {
	Query(ctx context.Context, difficulty string) ([]ScoreView, error)
}

// Hub fans leaderboard updates out to connected websocket clients. Only
// Run mutates the client set.
type Hub struct {
	clients     map[*Client]bool
	broadcast   chan []byte
	direct      chan directMessage
	register    chan *Client
	unregister  chan *Client
	done        chan struct{}
	mutex       sync.RWMutex
	leaderboard leaderboardReader
}

type Client struct {
	hub    *Hub
	id     string
	socket *websocket.Conn
	send   chan []byte
}

type directMessage struct {
	client *Client
	data   []byte
}

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type leaderboardPayload struct {
	Difficulty string      `json:"difficulty"`
	TopScores  []ScoreView `json:"top_scores"`
}

func NewHub(leaderboard leaderboardReader) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		broadcast:   make(chan []byte, 64),
		direct:      make(chan directMessage, 64),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		done:        make(chan struct{}),
		leaderboard: leaderboard,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			close(h.done)
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			log.Printf("Leaderboard client registered: %s - Total clients: %d", client.id, total)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("Leaderboard client unregistered: %s - Total clients: %d", client.id, len(h.clients))
			}
			h.mutex.Unlock()

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				h.deliver(client, message)
			}
			h.mutex.Unlock()

		case msg := <-h.direct:
			h.mutex.Lock()
			if _, ok := h.clients[msg.client]; ok {
				h.deliver(msg.client, msg.data)
			}
			h.mutex.Unlock()
		}
	}
}

// deliver must be called with the write lock held.
func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		log.Printf("Leaderboard client %s send buffer full, closing connection", client.id)
		close(client.send)
		delete(h.clients, client)
	}
}

// PublishLeaderboard broadcasts the refreshed unfiltered top list. Updates
// are dropped rather than blocking the submitting request.
func (h *Hub) PublishLeaderboard(scores []ScoreView) {
	data, err := json.Marshal(Message{
		Type: MessageLeaderboardUpdate,
		Payload: leaderboardPayload{
			Difficulty: models.AllDifficulties,
			TopScores:  scores,
		},
	})
	if err != nil {
		log.Printf("Error marshaling leaderboard update: %v", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		log.Printf("Leaderboard broadcast queue full, dropping update")
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) RegisterClient(conn *websocket.Conn) *Client {
	client := &Client{
		hub:    h,
		id:     uuid.NewString(),
		socket: conn,
		send:   make(chan []byte, 256),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()

	client.sendLeaderboard(models.AllDifficulties)
	return client
}

func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) sendDirect(client *Client, data []byte) {
	select {
	case h.direct <- directMessage{client: client, data: data}:
	case <-h.done:
	}
}

func (c *Client) sendLeaderboard(difficulty string) {
	if c.hub.leaderboard == nil {
		return
	}
	if difficulty == "" {
		difficulty = models.AllDifficulties
	}

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	scores, err := c.hub.leaderboard.Query(ctx, difficulty)
	if err != nil {
		log.Printf("Error loading leaderboard for client %s: %v", c.id, err)
		return
	}

	data, err := json.Marshal(Message{
		Type: MessageLeaderboardSync,
		Payload: leaderboardPayload{
			Difficulty: difficulty,
			TopScores:  scores,
		},
	})
	if err != nil {
		log.Printf("Error marshaling leaderboard sync: %v", err)
		return
	}

	c.hub.sendDirect(c, data)
}

func (c *Client) readPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		c.socket.Close()
	}()

	c.socket.SetReadLimit(4096)
	c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Error unmarshaling message: %v", err)
			continue
		}

		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.socket.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.socket.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg Message) {
	switch msg.Type {
	case "ping":
		data, _ := json.Marshal(Message{Type: "pong", Payload: "pong"})
		c.hub.sendDirect(c, data)

	case MessageRequestLeaderboard:
		difficulty, _ := msg.Payload.(string)
		c.sendLeaderboard(difficulty)

	default:
		log.Printf("Unknown message type: %s from client %s", msg.Type, c.id)
	}
}
