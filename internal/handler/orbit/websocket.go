package orbit

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/threebody-chat/internal/model/persona"
	chatservice "github.com/zhouzirui/threebody-chat/internal/service/chat"
	orbitService "github.com/zhouzirui/threebody-chat/internal/service/orbit"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// LoadingSource 报告会话是否正在等待回复
type LoadingSource interface {
	Conversation(sessionID string) (*chatservice.Conversation, error)
}

// WebSocketHandler 三体动画WebSocket处理器
type WebSocketHandler struct {
	sessions LoadingSource
	animator *orbitService.Animator
	upgrader websocket.Upgrader
}

// NewWebSocketHandler 创建动画WebSocket处理器
func NewWebSocketHandler(sessions LoadingSource, animator *orbitService.Animator) *WebSocketHandler {
	return &WebSocketHandler{
		sessions: sessions,
		animator: animator,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// RegisterWebSocketRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/orbit/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// TypingMessage 用户输入状态
type TypingMessage struct {
	Typing bool `json:"typing"`
}

// PersonaMessage 切换动画角色
type PersonaMessage struct {
	PersonaID string `json:"personaId"`
}

// SessionMessage 绑定会话，用于在等待回复时加速动画
type SessionMessage struct {
	SessionID string `json:"sessionId"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// connectionState 单个连接的动画状态
type connectionState struct {
	mu        sync.Mutex
	persona   persona.Persona
	sessionID string
	typing    bool
}

func (s *connectionState) snapshot() (persona.Persona, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persona, s.sessionID, s.typing
}

// wsWriter 串行化对连接的写操作
type wsWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsWriter) send(msgType string, data any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return w.conn.WriteJSON(outgoingMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (w *wsWriter) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	state := &connectionState{
		persona:   persona.Resolve(r.URL.Query().Get("persona")),
		sessionID: r.URL.Query().Get("session"),
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[orbit] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	writer := &wsWriter{conn: conn}
	log.Printf("[orbit] new connection persona=%s session=%s", state.persona.ID(), state.sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go h.pingLoop(ctx, writer)
	go func() {
		defer cancel()
		h.readLoop(conn, writer, state)
	}()

	if err := writer.send("scene", orbitService.SceneFor(state.persona)); err != nil {
		log.Printf("[orbit] write scene failed: %v", err)
		return
	}

	err = h.animator.Run(ctx, func() (orbitService.Scene, bool) {
		return h.sceneState(state)
	}, func(frame orbitService.Frame) error {
		return writer.send("frame", frame)
	})
	if err != nil {
		log.Printf("[orbit] stream stopped: %v", err)
	}
}

// sceneState 动画在用户输入或等待回复时加速
func (h *WebSocketHandler) sceneState(state *connectionState) (orbitService.Scene, bool) {
	p, sessionID, typing := state.snapshot()
	if !typing && sessionID != "" && h.sessions != nil {
		if conv, err := h.sessions.Conversation(sessionID); err == nil {
			typing = conv.Loading()
		}
	}
	return orbitService.SceneFor(p), typing
}

func (h *WebSocketHandler) readLoop(conn *websocket.Conn, writer *wsWriter, state *connectionState) {
	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[orbit] read error: %v", err)
			}
			return
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))
		h.handleMessage(writer, state, &msg)
	}
}

// handleMessage 处理客户端消息
func (h *WebSocketHandler) handleMessage(writer *wsWriter, state *connectionState, msg *inboundMessage) {
	switch msg.Type {
	case "typing":
		var payload TypingMessage
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			h.sendError(writer, "invalid typing payload")
			return
		}
		state.mu.Lock()
		state.typing = payload.Typing
		state.mu.Unlock()

	case "persona":
		var payload PersonaMessage
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			h.sendError(writer, "invalid persona payload")
			return
		}
		p := persona.Resolve(payload.PersonaID)
		state.mu.Lock()
		state.persona = p
		state.mu.Unlock()
		if err := writer.send("scene", orbitService.SceneFor(p)); err != nil {
			log.Printf("[orbit] write scene failed: %v", err)
		}

	case "session":
		var payload SessionMessage
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			h.sendError(writer, "invalid session payload")
			return
		}
		state.mu.Lock()
		state.sessionID = payload.SessionID
		state.mu.Unlock()

	default:
		h.sendError(writer, "unknown message type: "+msg.Type)
	}
}

func (h *WebSocketHandler) sendError(writer *wsWriter, message string) {
	if err := writer.send("error", map[string]string{"message": message}); err != nil {
		log.Printf("[orbit] write error failed: %v", err)
	}
}

// pingLoop 定期发送ping消息
func (h *WebSocketHandler) pingLoop(ctx context.Context, writer *wsWriter) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := writer.ping(); err != nil {
				return
			}
		}
	}
}
