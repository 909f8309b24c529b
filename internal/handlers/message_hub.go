package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"classbridge/config"
	"classbridge/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// GlobalHub is the single hub instance for the whole application.
var GlobalHub = NewHub()

// WireMessage is the frame format on the websocket, both directions.
// Inbound frames carry a send; outbound frames have type "newMessage".
type WireMessage struct {
	Type    string         `json:"type"`
	Payload models.Message `json:"payload"`
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID uint
}

// Hub tracks online users and fans persisted messages out to the thread
// participants that are connected.
type Hub struct {
	clients    map[uint]*Client
	broadcast  chan inboundFrame
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
}

type inboundFrame struct {
	senderID uint
	data     []byte
}

func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan inboundFrame),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uint]*Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.userID] = client
			h.mu.Unlock()
			slog.Info("Client registered", "userID", client.userID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.userID]; ok {
				delete(h.clients, client.userID)
				close(client.send)
			}
			h.mu.Unlock()
			slog.Info("Client unregistered", "userID", client.userID)

		case frame := <-h.broadcast:
			h.handleBroadcast(frame)
		}
	}
}

// handleBroadcast persists an inbound send and fans the stored message
// out. Persisting goes through the same idempotent path as the REST
// send, so a frame resent after a reconnect does not duplicate.
func (h *Hub) handleBroadcast(frame inboundFrame) {
	var msg WireMessage
	if err := json.Unmarshal(frame.data, &msg); err != nil {
		slog.Error("Failed to unmarshal broadcast message", "error", err)
		return
	}

	clientID := ""
	if msg.Payload.ClientID != nil {
		clientID = *msg.Payload.ClientID
	}

	stored, _, err := persistMessage(frame.senderID, SendMessageInput{
		ThreadID: msg.Payload.ThreadID,
		ClientID: clientID,
		Type:     msg.Payload.Type,
		Content:  msg.Payload.Content,
		FileURL:  msg.Payload.FileURL,
		FileName: msg.Payload.FileName,
		FileSize: msg.Payload.FileSize,
	})
	if err != nil {
		slog.Error("Failed to store websocket message", "error", err, "userID", frame.senderID)
		return
	}

	h.SendMessageToThread(stored)
}

// SendMessageToThread delivers a stored message to every online
// participant of its thread, the sender included.
func (h *Hub) SendMessageToThread(message models.Message) {
	var participants []models.ThreadParticipant
	config.DB.Where("message_thread_id = ?", message.ThreadID).Find(&participants)

	finalMsg := WireMessage{Type: "newMessage", Payload: message}
	messageBytes, err := json.Marshal(finalMsg)
	if err != nil {
		slog.Error("Failed to marshal message for broadcast", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, p := range participants {
		if client, ok := h.clients[p.UserID]; ok {
			select {
			case client.send <- messageBytes:
			default:
				close(client.send)
				delete(h.clients, p.UserID)
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("Unexpected websocket close error", "error", err)
			}
			break
		}
		c.hub.broadcast <- inboundFrame{senderID: c.userID, data: messageBytes}
	}
}

func (c *Client) writePump() {
	defer func() {
		c.conn.Close()
	}()
	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			slog.Error("Failed to write message to websocket", "error", err)
			return
		}
	}
}

// MessagesWSEndpoint upgrades the connection and attaches the client to
// the hub under the authenticated user id.
func MessagesWSEndpoint(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}

	client := &Client{
		hub:    GlobalHub,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID.(uint),
	}
	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}
