package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"characterai/backend/internal/api"
	"characterai/backend/internal/models"
	"characterai/backend/internal/service"
	apperrors "characterai/backend/pkg/errors"
	"characterai/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512 * 1024

	sendBuffer = 16
)

// Reply is one frame sent back to the client
type Reply struct {
	AIResponse string `json:"aiResponse,omitempty"`
	Error      string `json:"error,omitempty"`
	Code       string `json:"code,omitempty"`
}

// Handler upgrades /ws/chat and answers every text frame, a chat request
// with the same shape as POST /chat, with one reply frame
type Handler struct {
	chat     *service.ChatService
	log      *logger.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan Reply
	h    *Handler
}

// NewHandler creates the websocket chat handler. allowedOrigins follows the
// CORS setting; "*" accepts any origin.
func NewHandler(chat *service.ChatService, log *logger.Logger, allowedOrigins []string) *Handler {
	h := &Handler{
		chat:    chat,
		log:     log.WithComponent("ws"),
		clients: make(map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		HandshakeTimeout: 10 * time.Second,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// ServeWS handles GET /ws/chat
func (h *Handler) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "error", err.Error())
		return
	}

	cl := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan Reply, sendBuffer),
		h:    h,
	}
	h.register(cl)

	go cl.writePump()
	cl.readPump()
}

// ClientCount returns the number of open connections
func (h *Handler) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close sends a close frame to every open connection
func (h *Handler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for cl := range h.clients {
		_ = cl.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	}
}

func (h *Handler) register(cl *client) {
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	h.log.Debug("Client connected", "client_id", cl.id)
}

func (h *Handler) unregister(cl *client) {
	h.mu.Lock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
	h.mu.Unlock()
	h.log.Debug("Client disconnected", "client_id", cl.id)
}

// readPump answers frames in arrival order so replies keep that order too
func (cl *client) readPump() {
	defer func() {
		cl.h.unregister(cl)
		cl.conn.Close()
	}()

	cl.conn.SetReadLimit(maxMessageSize)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				cl.h.log.Warn("Websocket read failed", "client_id", cl.id, "error", err.Error())
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		cl.send <- cl.h.answer(context.Background(), data)
	}
}

func (cl *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case reply, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteJSON(reply); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// answer runs one chat turn for a raw frame
func (h *Handler) answer(ctx context.Context, data []byte) Reply {
	var req models.ChatRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return Reply{Error: api.MsgChatInvalid, Code: apperrors.CodeValidation}
	}

	text, err := h.chat.Reply(ctx, &req)
	if err != nil {
		appErr := api.ChatError(err)
		if appErr.StatusCode >= http.StatusInternalServerError {
			h.log.LogError(err, "Websocket chat failed", "character_id", req.CharacterID)
		}
		return Reply{Error: appErr.Message, Code: appErr.Code}
	}
	return Reply{AIResponse: text}
}
