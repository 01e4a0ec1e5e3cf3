package libraries

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type WebSocketMessageType string

const (
	WebSocketMessageTypePing         WebSocketMessageType = "ping"
	WebSocketMessageTypePong         WebSocketMessageType = "pong"
	WebSocketMessageTypeError        WebSocketMessageType = "error"
	WebSocketMessageTypeBoardUpdated WebSocketMessageType = "board_updated"
)

type WebSocketMessage struct {
	Type WebSocketMessageType `json:"type"`
	Data interface{}          `json:"data,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// Client is one websocket connection watching a single board.
type Client struct {
	ID      string
	BoardID string
	Conn    *websocket.Conn
	Send    chan []byte
	once    sync.Once
}

func NewClient(boardID string, conn *websocket.Conn) *Client {
	return &Client{
		ID:      uuid.NewString(),
		BoardID: boardID,
		Conn:    conn,
		Send:    make(chan []byte, 256),
	}
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.Send)
	})
}

type boardMessage struct {
	boardID string
	payload []byte
}

// Hub owns the client set; only Run touches it.
type Hub struct {
	clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	broadcast  chan boardMessage
	// done is closed when Run returns; sends must not block past it.
	done chan struct{}
}

// ErrHubStopped is returned by Publish once the hub has shut down.
var ErrHubStopped = errors.New("websocket hub stopped")

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		broadcast:  make(chan boardMessage, 64),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for id, client := range h.clients {
				delete(h.clients, id)
				client.close()
			}
			return
		case client := <-h.Register:
			h.clients[client.ID] = client
		case client := <-h.Unregister:
			if _, exists := h.clients[client.ID]; exists {
				delete(h.clients, client.ID)
				client.close()
			}
		case msg := <-h.broadcast:
			for id, client := range h.clients {
				if client.BoardID != msg.boardID {
					continue
				}
				select {
				case client.Send <- msg.payload:
				default:
					// slow consumer
					log.WithFields(log.Fields{"client_id": id, "board_id": client.BoardID}).Warn("dropping websocket client")
					delete(h.clients, id)
					client.close()
				}
			}
		}
	}
}

// AddClient registers c; false once the hub has stopped.
func (h *Hub) AddClient(c *Client) bool {
	select {
	case h.Register <- c:
		return true
	case <-h.done:
		return false
	}
}

// RemoveClient unregisters c. After shutdown the hub already closed it.
func (h *Hub) RemoveClient(c *Client) {
	select {
	case h.Unregister <- c:
	case <-h.done:
	}
}

// PublishToBoard queues payload for every client watching boardID. It drops
// the payload once the hub has stopped.
func (h *Hub) PublishToBoard(boardID string, payload []byte) {
	_ = h.publish(boardID, payload)
}

func (h *Hub) publish(boardID string, payload []byte) error {
	select {
	case h.broadcast <- boardMessage{boardID: boardID, payload: payload}:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

func marshalMessage(msgType WebSocketMessageType, data interface{}) []byte {
	b, err := json.Marshal(WebSocketMessage{Type: msgType, Data: data})
	if err != nil {
		log.WithError(err).Error("failed to marshal websocket message")
		return nil
	}
	return b
}

// BoardUpdatedMessage wraps a board update payload in the websocket envelope.
func BoardUpdatedMessage(data interface{}) []byte {
	return marshalMessage(WebSocketMessageTypeBoardUpdated, data)
}

func sendToClient(client *Client, msg []byte) {
	defer func() {
		// Send may already be closed by the hub
		_ = recover()
	}()
	if msg != nil {
		client.Send <- msg
	}
}

// BoardAccessChecker decides whether userID may watch boardID.
type BoardAccessChecker func(ctx context.Context, userID, boardID string) error

// WebSocketHandler streams board updates for ?boardId= to the connection.
// Locals "userId" must be set by the auth middleware.
func WebSocketHandler(hub *Hub, canWatch BoardAccessChecker) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		boardID := conn.Query("boardId")
		userID, _ := conn.Locals("userId").(string)

		client := NewClient(boardID, conn)
		if err := canWatch(context.Background(), userID, boardID); err != nil {
			_ = conn.WriteMessage(websocket.TextMessage, marshalMessage(WebSocketMessageTypeError, ErrorPayload{Message: err.Error()}))
			conn.Close()
			return
		}

		if !hub.AddClient(client) {
			conn.Close()
			return
		}

		// Write loop
		go func() {
			defer conn.Close()
			for msg := range client.Send {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					log.WithError(err).Debug("websocket write error")
					return
				}
			}
		}()

		// Read loop
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var msg WebSocketMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				sendToClient(client, marshalMessage(WebSocketMessageTypeError, ErrorPayload{Message: "Invalid JSON format"}))
				continue
			}
			switch msg.Type {
			case WebSocketMessageTypePing:
				sendToClient(client, marshalMessage(WebSocketMessageTypePong, nil))
			default:
				sendToClient(client, marshalMessage(WebSocketMessageTypeError, ErrorPayload{Message: "Type is invalid or not provided"}))
			}
		}

		hub.RemoveClient(client)
	})
}

// Publish lets the hub stand in for the Redis fan-out on a single instance.
func (h *Hub) Publish(_ context.Context, boardID string, payload []byte) error {
	return h.publish(boardID, payload)
}
