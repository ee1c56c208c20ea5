package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/graph"
)

// graphql-transport-ws protocol.
const (
	graphqlTransportWS = "graphql-transport-ws"

	msgConnectionInit = "connection_init"
	msgConnectionAck  = "connection_ack"
	msgPing           = "ping"
	msgPong           = "pong"
	msgSubscribe      = "subscribe"
	msgNext           = "next"
	msgError          = "error"
	msgComplete       = "complete"

	closeBadRequest       = 4400
	closeUnauthorized     = 4401
	closeInitTimeout      = 4408
	closeSubscriberExists = 4409
	closeTooManyInits     = 4429
)

const (
	connectionInitTimeout = 10 * time.Second
	writeWait             = 10 * time.Second
)

type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// wsConn serialises writes; gorilla allows one concurrent writer.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsConn) send(msg wsMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteJSON(msg)
}

func (w *wsConn) sendPayload(id, typ string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", typ, err)
	}
	return w.send(wsMessage{ID: id, Type: typ, Payload: raw})
}

func (w *wsConn) close(code int, reason string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
	_ = w.conn.Close()
}

// ServeWebSocket speaks graphql-transport-ws. A connection_init payload may
// carry an authorization value that replaces the header-derived principal.
func (h *GraphQLHandler) ServeWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	defer conn.Close()

	ws := &wsConn{conn: conn}
	if conn.Subprotocol() != graphqlTransportWS {
		ws.close(websocket.CloseProtocolError, "unsupported subprotocol")
		return
	}

	// Detached from the HTTP request, which ends with the upgrade.
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	defer cancel()

	s := &wsSession{
		handler: h,
		ws:      ws,
		rc:      graph.ForContext(c.Request.Context()),
		subs:    make(map[string]context.CancelFunc),
	}
	s.run(ctx)
}

type wsSession struct {
	handler *GraphQLHandler
	ws      *wsConn
	rc      *graph.RequestContext

	mu     sync.Mutex
	acked  bool
	subs   map[string]context.CancelFunc
	active sync.WaitGroup
}

func (s *wsSession) run(ctx context.Context) {
	defer s.active.Wait()
	defer s.cancelAll()

	initTimer := time.AfterFunc(connectionInitTimeout, func() {
		s.mu.Lock()
		acked := s.acked
		s.mu.Unlock()
		if !acked {
			s.ws.close(closeInitTimeout, "Connection initialisation timeout")
		}
	})
	defer initTimer.Stop()

	for {
		var msg wsMessage
		if err := s.ws.conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("websocket read ended")
			}
			return
		}

		switch msg.Type {
		case msgConnectionInit:
			if !s.init(ctx, msg.Payload) {
				return
			}
		case msgPing:
			_ = s.ws.send(wsMessage{Type: msgPong})
		case msgPong:
		case msgSubscribe:
			if !s.subscribe(ctx, msg) {
				return
			}
		case msgComplete:
			s.stop(msg.ID)
		default:
			s.ws.close(closeBadRequest, fmt.Sprintf("Invalid message received: %q", msg.Type))
			return
		}
	}
}

func (s *wsSession) init(ctx context.Context, payload json.RawMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.acked {
		s.ws.close(closeTooManyInits, "Too many initialisation requests")
		return false
	}

	if token := authorizationFromPayload(payload); token != "" {
		s.rc = s.handler.builder.Build(ctx, token)
	}
	if s.rc == nil {
		s.rc = s.handler.builder.Build(ctx, "")
	}

	s.acked = true
	if err := s.ws.send(wsMessage{Type: msgConnectionAck}); err != nil {
		return false
	}
	return true
}

func (s *wsSession) subscribe(ctx context.Context, msg wsMessage) bool {
	s.mu.Lock()
	if !s.acked {
		s.mu.Unlock()
		s.ws.close(closeUnauthorized, "Unauthorized")
		return false
	}
	if msg.ID == "" {
		s.mu.Unlock()
		s.ws.close(closeBadRequest, "Subscribe message requires an id")
		return false
	}
	if _, exists := s.subs[msg.ID]; exists {
		s.mu.Unlock()
		s.ws.close(closeSubscriberExists, fmt.Sprintf("Subscriber for %s already exists", msg.ID))
		return false
	}

	var req graph.Request
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		s.mu.Unlock()
		s.ws.close(closeBadRequest, "Invalid subscribe payload")
		return false
	}

	opCtx, cancel := context.WithCancel(graph.WithRequestContext(ctx, s.rc))
	s.subs[msg.ID] = cancel
	s.active.Add(1)
	s.mu.Unlock()

	go s.execute(opCtx, msg.ID, req)
	return true
}

// execute runs one operation to completion and reports it under id.
func (s *wsSession) execute(ctx context.Context, id string, req graph.Request) {
	defer s.active.Done()
	defer s.stop(id)

	opType, err := graph.OperationType(req.Query, req.OperationName)
	if err != nil {
		_ = s.ws.sendPayload(id, msgError, graph.ErrorResult(err).Errors)
		return
	}

	if opType != graph.OperationSubscription {
		result := s.handler.exec.Execute(ctx, req)
		if ctx.Err() != nil {
			return
		}
		_ = s.ws.sendPayload(id, msgNext, result)
		_ = s.ws.send(wsMessage{ID: id, Type: msgComplete})
		return
	}

	first := true
	for result := range s.handler.exec.Subscribe(ctx, req) {
		// a first result with errors and no data means the operation never started
		if first && result.Data == nil && len(result.Errors) > 0 {
			s.stop(id)
			_ = s.ws.sendPayload(id, msgError, result.Errors)
			return
		}
		first = false
		if err := s.ws.sendPayload(id, msgNext, result); err != nil {
			log.Debug().Err(err).Str("id", id).Msg("websocket write failed")
			return
		}
	}
	// the client completed it; nothing more to say
	if ctx.Err() != nil {
		return
	}
	_ = s.ws.send(wsMessage{ID: id, Type: msgComplete})
}

func (s *wsSession) stop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.subs[id]; ok {
		cancel()
		delete(s.subs, id)
	}
}

func (s *wsSession) cancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cancel := range s.subs {
		cancel()
		delete(s.subs, id)
	}
}

// authorizationFromPayload reads "authorization" or "Authorization" from a
// connection_init payload.
func authorizationFromPayload(payload json.RawMessage) string {
	if len(payload) == 0 {
		return ""
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return ""
	}
	for _, key := range []string{"authorization", "Authorization"} {
		if v, ok := fields[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
