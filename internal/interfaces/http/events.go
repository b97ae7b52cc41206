package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/garyjia/fintel-ai/internal/application/dispatcher"
	"github.com/garyjia/fintel-ai/internal/application/service"
	"github.com/garyjia/fintel-ai/internal/domain/event"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 64
)

// Client message types; every other frame type is an event.Type
const (
	MsgTypeConnected = "connected"
	MsgTypePing      = "ping"
	MsgTypePong      = "pong"
	MsgTypeError     = "error"
)

// WSMessage is the frame exchanged over the event stream
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// EventStream pushes a session's domain events to its WebSocket clients
type EventStream struct {
	sessions   *service.SessionRegistry
	dispatcher dispatcher.Dispatcher
	upgrader   websocket.Upgrader
	logger     *zap.Logger

	mu    sync.Mutex
	conns map[string]*streamConn
}

type streamConn struct {
	name      string
	sessionID string
	ws        *websocket.Conn
	send      chan WSMessage
	done      chan struct{}
	closeOnce sync.Once
}

// NewEventStream creates the WebSocket endpoint
func NewEventStream(sessions *service.SessionRegistry, d dispatcher.Dispatcher, origins []string, logger *zap.Logger) *EventStream {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}

	return &EventStream{
		sessions:   sessions,
		dispatcher: d,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowed) == 0 || allowed["*"] || allowed[origin]
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 4 * 1024,
		},
		logger: logger,
		conns:  make(map[string]*streamConn),
	}
}

// Handle upgrades the request and streams events until either side closes
func (s *EventStream) Handle(c *gin.Context) {
	sess := currentSession(c)

	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	conn := &streamConn{
		name:      "ws-" + uuid.NewString(),
		sessionID: sess.ID,
		ws:        ws,
		send:      make(chan WSMessage, sendBuffer),
		done:      make(chan struct{}),
	}
	s.add(conn)
	defer s.remove(conn)

	s.dispatcher.SubscribeAll(conn.name, s.forward(conn))

	s.logger.Info("Event stream connected",
		zap.String("session_id", conn.sessionID),
		zap.String("conn", conn.name))

	conn.enqueue(WSMessage{Type: MsgTypeConnected, ID: conn.sessionID, Timestamp: time.Now().UnixMilli()})

	go s.writeLoop(conn)
	s.readLoop(conn)

	s.logger.Info("Event stream disconnected",
		zap.String("session_id", conn.sessionID),
		zap.String("conn", conn.name))
}

// forward returns the dispatcher handler feeding one connection
func (s *EventStream) forward(conn *streamConn) dispatcher.Handler {
	return func(ctx context.Context, evt *event.Event) error {
		if evt.SessionID != conn.sessionID {
			return nil
		}
		payload, err := json.Marshal(evt)
		if err != nil {
			return err
		}
		msg := WSMessage{
			Type:      evt.Type.String(),
			ID:        evt.ID,
			Payload:   payload,
			Timestamp: evt.Timestamp.UnixMilli(),
		}
		if !conn.enqueue(msg) {
			s.logger.Warn("Event stream buffer full, dropping event",
				zap.String("conn", conn.name),
				zap.String("event_type", evt.Type.String()))
		}
		return nil
	}
}

func (s *EventStream) readLoop(conn *streamConn) {
	conn.ws.SetReadLimit(maxMessageSize)
	_ = conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg WSMessage
		if err := conn.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Warn("Event stream read error", zap.String("conn", conn.name), zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case MsgTypePing:
			conn.enqueue(WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()})
		default:
			errPayload, _ := json.Marshal(gin.H{"message": "unknown message type: " + msg.Type})
			conn.enqueue(WSMessage{Type: MsgTypeError, Payload: errPayload, Timestamp: time.Now().UnixMilli()})
		}
	}
}

// writeLoop owns every write on the socket
func (s *EventStream) writeLoop(conn *streamConn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-conn.send:
			_ = conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.ws.WriteJSON(msg); err != nil {
				conn.close()
				return
			}
			if msg.Type == event.TypeSessionClosed.String() {
				_ = conn.ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
					time.Now().Add(writeWait))
				conn.close()
				return
			}
		case <-ticker.C:
			if err := conn.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				conn.close()
				return
			}
		case <-conn.done:
			return
		}
	}
}

func (s *EventStream) add(conn *streamConn) {
	s.mu.Lock()
	s.conns[conn.name] = conn
	s.mu.Unlock()
}

func (s *EventStream) remove(conn *streamConn) {
	s.dispatcher.UnsubscribeAll(conn.name)
	conn.close()

	s.mu.Lock()
	delete(s.conns, conn.name)
	s.mu.Unlock()
}

// Count returns the number of open connections
func (s *EventStream) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// CloseAll disconnects every client
func (s *EventStream) CloseAll() {
	s.mu.Lock()
	conns := make([]*streamConn, 0, len(s.conns))
	for _, conn := range s.conns {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		conn.close()
	}
}

// enqueue never blocks; false means the buffer was full or the conn is gone
func (c *streamConn) enqueue(msg WSMessage) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *streamConn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}
