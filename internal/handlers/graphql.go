package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/graph"
)

// Returned verbatim to GraphQL clients, hence the sentence case.
//
//nolint:stylecheck // ST1005
var (
	errMissingQuery    = errors.New("Must provide query string.")
	errMutationOverGET = errors.New("Can only perform a mutation operation from a POST request.")
	errNeedsStream     = errors.New("Subscriptions require an event stream (Accept: text/event-stream) or a WebSocket connection.")
)

// sseKeepAlive is how often an idle event stream gets a comment line.
const sseKeepAlive = 12 * time.Second

type GraphQLHandler struct {
	exec      *graph.Executor
	builder   *graph.ContextBuilder
	upgrader  websocket.Upgrader
	keepAlive time.Duration
}

func NewGraphQLHandler(exec *graph.Executor, builder *graph.ContextBuilder, allowedOrigins []string) *GraphQLHandler {
	return &GraphQLHandler{
		exec:      exec,
		builder:   builder,
		keepAlive: sseKeepAlive,
		upgrader: websocket.Upgrader{
			CheckOrigin:     originChecker(allowedOrigins),
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			Subprotocols:    []string{graphqlTransportWS},
		},
	}
}

// Post handles queries and mutations sent as JSON, and subscriptions when the
// client accepts an event stream.
func (h *GraphQLHandler) Post(c *gin.Context) {
	var req graph.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, graph.ErrorResult(err))
		return
	}
	h.serve(c, req, false)
}

// Get handles WebSocket upgrades and queries passed as URL parameters.
func (h *GraphQLHandler) Get(c *gin.Context) {
	if websocket.IsWebSocketUpgrade(c.Request) {
		h.ServeWebSocket(c)
		return
	}

	req := graph.Request{
		Query:         c.Query("query"),
		OperationName: c.Query("operationName"),
	}
	if raw := c.Query("variables"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
			c.JSON(http.StatusBadRequest, graph.ErrorResult(err))
			return
		}
	}
	h.serve(c, req, true)
}

func (h *GraphQLHandler) serve(c *gin.Context, req graph.Request, viaGET bool) {
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, graph.ErrorResult(errMissingQuery))
		return
	}

	// Parse errors are reported by the executor in the response envelope.
	opType, _ := graph.OperationType(req.Query, req.OperationName)

	switch opType {
	case graph.OperationSubscription:
		if !acceptsEventStream(c.Request) {
			c.JSON(http.StatusBadRequest, graph.ErrorResult(errNeedsStream))
			return
		}
		h.stream(c, req)
		return
	case graph.OperationMutation:
		if viaGET {
			c.Header("Allow", http.MethodPost)
			c.JSON(http.StatusMethodNotAllowed, graph.ErrorResult(errMutationOverGET))
			return
		}
	}

	result := h.exec.Execute(c.Request.Context(), req)
	c.JSON(http.StatusOK, result)
}

// stream serves a subscription as server-sent events: one "next" event per
// result followed by "complete". The server's read and write timeouts would
// end the stream, so reads get no deadline and each write gets its own.
func (h *GraphQLHandler) stream(c *gin.Context, req graph.Request) {
	ctx := c.Request.Context()
	results := h.exec.Subscribe(ctx, req)
	rc := http.NewResponseController(c.Writer)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	_ = rc.SetReadDeadline(time.Time{})
	extendWriteDeadline(rc)
	c.Writer.Flush()

	log.Debug().Str("operation", req.OperationName).Msg("event stream opened")

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			for range results {
			}
			return
		case <-keepAlive.C:
			extendWriteDeadline(rc)
			if _, err := c.Writer.WriteString(":\n\n"); err != nil {
				log.Debug().Err(err).Msg("event stream keep-alive failed")
				continue
			}
			c.Writer.Flush()
		case result, ok := <-results:
			extendWriteDeadline(rc)
			if !ok {
				c.SSEvent("complete", "")
				c.Writer.Flush()
				log.Debug().Str("operation", req.OperationName).Msg("event stream completed")
				return
			}
			c.SSEvent("next", result)
			c.Writer.Flush()
		}
	}
}

// extendWriteDeadline is a no-op for writers without deadline support.
func extendWriteDeadline(rc *http.ResponseController) {
	_ = rc.SetWriteDeadline(time.Now().Add(writeWait))
}

func acceptsEventStream(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

// originChecker allows every origin for "*", otherwise only the listed ones.
// Requests without an Origin header are not browser requests and pass.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}
