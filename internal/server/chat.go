package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/skillbridge/skillbridge_backend/internal/auth"
	"github.com/skillbridge/skillbridge_backend/internal/database"
	"github.com/skillbridge/skillbridge_backend/internal/logging"
	"github.com/skillbridge/skillbridge_backend/internal/presence"
	"github.com/skillbridge/skillbridge_backend/internal/types"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

// chatClient is a single websocket connection in a session room
type chatClient struct {
	hub       *ChatHub
	conn      *websocket.Conn
	sessionID string
	userID    string
	username  string
	send      chan gin.H
}

// chatRoom holds the connected clients of one session
type chatRoom struct {
	clients map[*chatClient]struct{}
}

// ChatHub tracks per-session chat rooms and routes messages between the
// participants of a session
type ChatHub struct {
	db      database.Store
	tracker *presence.Tracker
	rooms   map[string]*chatRoom
	mu      sync.RWMutex
}

// NewChatHub creates a new chat hub
func NewChatHub(db database.Store, tracker *presence.Tracker) *ChatHub {
	return &ChatHub{
		db:      db,
		tracker: tracker,
		rooms:   make(map[string]*chatRoom),
	}
}

// register adds a client to its session room, creating the room if needed
func (h *ChatHub) register(client *chatClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, exists := h.rooms[client.sessionID]
	if !exists {
		room = &chatRoom{clients: make(map[*chatClient]struct{})}
		h.rooms[client.sessionID] = room
	}
	room.clients[client] = struct{}{}
}

// unregister removes a client and deletes the room when it empties
func (h *ChatHub) unregister(client *chatClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, exists := h.rooms[client.sessionID]
	if !exists {
		return
	}

	if _, ok := room.clients[client]; ok {
		delete(room.clients, client)
		close(client.send)
	}

	if len(room.clients) == 0 {
		delete(h.rooms, client.sessionID)
	}
}

// Broadcast sends a message to every client in a session room
func (h *ChatHub) Broadcast(sessionID string, message gin.H) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, exists := h.rooms[sessionID]
	if !exists {
		return
	}

	for client := range room.clients {
		select {
		case client.send <- message:
		default:
			// Client is too slow, drop the message rather than block the room
			logging.LogChatEvent("client_send_buffer_full", sessionID, client.userID, nil)
		}
	}
}

// RoomSize returns the number of connected clients in a session room
func (h *ChatHub) RoomSize(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, exists := h.rooms[sessionID]
	if !exists {
		return 0
	}
	return len(room.clients)
}

// incomingMessage is the wire format clients send
type incomingMessage struct {
	Content string `json:"content"`
}

// trySend queues a message for the client without blocking when its buffer
// is full or its writer has already stopped draining
func (c *chatClient) trySend(message gin.H) {
	select {
	case c.send <- message:
	default:
		logging.LogChatEvent("client_send_buffer_full", c.sessionID, c.userID, nil)
	}
}

// readPump reads messages from the websocket, persists them, and broadcasts
// them to the room
func (c *chatClient) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()

		if err := c.hub.tracker.MarkOffline(context.Background(), c.userID); err != nil {
			logging.LogChatEvent("presence_mark_offline_failed", c.sessionID, c.userID, map[string]interface{}{"error": err.Error()})
		}

		c.hub.Broadcast(c.sessionID, gin.H{
			"type":     "user_left",
			"user_id":  c.userID,
			"username": c.username,
		})
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		// A live connection refreshes the presence mark
		if err := c.hub.tracker.MarkOnline(context.Background(), c.userID); err != nil {
			logging.LogChatEvent("presence_refresh_failed", c.sessionID, c.userID, map[string]interface{}{"error": err.Error()})
		}
		return nil
	})

	for {
		var msg incomingMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logging.LogChatEvent("websocket_read_error", c.sessionID, c.userID, map[string]interface{}{"error": err.Error()})
			}
			break
		}

		if msg.Content == "" {
			continue
		}

		saved, err := c.hub.db.SaveMessage(c.sessionID, c.userID, msg.Content)
		if err != nil {
			logging.LogChatEvent("message_save_failed", c.sessionID, c.userID, map[string]interface{}{"error": err.Error()})
			c.trySend(gin.H{"type": "error", "message": "Failed to save message"})
			continue
		}

		c.hub.Broadcast(c.sessionID, gin.H{
			"type":        "message",
			"id":          saved.ID,
			"session_id":  saved.SessionID,
			"sender_id":   saved.SenderID,
			"sender_name": c.username,
			"content":     saved.Content,
			"created_at":  saved.CreatedAt,
		})
	}
}

// writePump writes messages from the hub to the websocket and keeps the
// connection alive with pings
func (c *chatClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sessionChatHandler upgrades the connection and joins the session's chat room
func (s *Server) sessionChatHandler(c *gin.Context) {
	if !s.featureFlags.GetFlags().EnableChat {
		c.JSON(http.StatusForbidden, gin.H{"error": "Chat is disabled"})
		return
	}

	userID, _ := auth.GetUserID(c)
	username, _ := auth.GetUsername(c)

	session, err := s.db.GetSession(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	if !session.HasParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not a participant in this session"})
		return
	}

	if session.Status == types.SessionCancelled {
		c.JSON(http.StatusConflict, gin.H{"error": "Session has been cancelled"})
		return
	}

	// The first participant joining the chat starts the session
	if session.Status == types.SessionScheduled {
		if err := s.db.UpdateSessionStatus(session.ID, types.SessionInProgress); err != nil {
			logging.LogSessionEvent("session_start_failed", session.ID, map[string]interface{}{"error": err.Error()})
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.LogChatEvent("websocket_upgrade_failed", session.ID, userID, map[string]interface{}{"error": err.Error()})
		return
	}

	client := &chatClient{
		hub:       s.hub,
		conn:      conn,
		sessionID: session.ID,
		userID:    userID,
		username:  username,
		send:      make(chan gin.H, 32),
	}

	s.hub.register(client)

	if err := s.hub.tracker.MarkOnline(c.Request.Context(), userID); err != nil {
		logging.LogChatEvent("presence_mark_online_failed", session.ID, userID, map[string]interface{}{"error": err.Error()})
	}

	logging.LogChatEvent("user_joined", session.ID, userID, map[string]interface{}{
		"username":  username,
		"room_size": s.hub.RoomSize(session.ID),
	})

	s.hub.Broadcast(session.ID, gin.H{
		"type":     "user_joined",
		"user_id":  userID,
		"username": username,
	})

	go client.writePump()
	go client.readPump()
}
