package ws

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/auth"
	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/fanout"
	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/models"
	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/observability"
)

// MessagePipeline is the fanout entry point the bridge dispatches to.
type MessagePipeline interface {
	Run(ctx context.Context, sender fanout.Sender, msg *models.Message) fanout.Outcome
}

// Options carries transport tuning knobs.
type Options struct {
	AllowedOrigins   []string
	HandshakeTimeout time.Duration
	PingInterval     time.Duration
	PongWait         time.Duration
}

// SocketHandler upgrades connections, binds identity, and runs the per
// connection event loop. Websocket is the only supported transport; clients
// that cannot upgrade fail the handshake.
type SocketHandler struct {
	hub           *Hub
	authenticator auth.Authenticator
	pipeline      MessagePipeline
	upgrader      websocket.Upgrader
	opts          Options
}

// NewSocketHandler constructs a SocketHandler.
func NewSocketHandler(hub *Hub, authenticator auth.Authenticator, pipeline MessagePipeline, opts Options) *SocketHandler {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.PongWait <= 0 {
		opts.PongWait = 60 * time.Second
	}
	checker := newOriginChecker(opts.AllowedOrigins)
	return &SocketHandler{
		hub:           hub,
		authenticator: authenticator,
		pipeline:      pipeline,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: opts.HandshakeTimeout,
			CheckOrigin:      checker.Allow,
		},
		opts: opts,
	}
}

// Handle performs the handshake and registers the connection.
func (h *SocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("lostfound/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	identity, err := h.authenticator.Bind(ctx, c.Query("userId"), bearerToken(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the failure status (403 on origin mismatch).
		observability.IncWSEvent("socket", "ws_handshake_failed")
		return
	}

	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      identity.UserID,
		Verified:    identity.Verified,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	client := NewClient(conn, info)

	if info.UserID == "" {
		// Accepted degraded mode: no identity presented, no personal channel.
		log.Printf("websocket connection without user id conn_id=%s ip=%s", info.ConnID, info.IP)
		observability.IncWSEvent("socket", "ws_unbound")
	}
	h.hub.AddPersonal(info.UserID, client)

	observability.IncWSActive("socket")
	observability.IncWSEvent("socket", "ws_connect")
	h.publishLifecycle(ctx, info, "ws_connect", 0, "")

	go h.readLoop(ctx, client)
}

func (h *SocketHandler) readLoop(ctx context.Context, client *Client) {
	var closeReason string
	defer func() {
		h.hub.RemoveClient(client)
		observability.DecWSActive("socket")
		observability.IncWSEvent("socket", "ws_disconnect")
		h.publishLifecycle(ctx, client.Info, "ws_disconnect", time.Since(client.Info.ConnectedAt).Milliseconds(), closeReason)
		client.Close()
	}()

	conn := client.conn
	_ = conn.SetReadDeadline(time.Now().Add(h.opts.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.opts.PongWait))
	})

	stopPing := make(chan struct{})
	defer close(stopPing)
	go h.pingLoop(client, stopPing)

	for {
		var event models.ClientEvent
		if err := conn.ReadJSON(&event); err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("socket", "ws_error")
				h.publishLifecycle(ctx, client.Info, "ws_error", time.Since(client.Info.ConnectedAt).Milliseconds(), closeReason)
			}
			return
		}
		h.dispatch(client, event)
	}
}

// dispatch handles one inbound frame. Events on a single connection are
// processed in order; each sendMessage invocation runs the pipeline on its
// own goroutine so a slow side effect never blocks the read loop.
func (h *SocketHandler) dispatch(client *Client, event models.ClientEvent) {
	switch event.Type {
	case models.EventJoinConversation:
		h.hub.JoinConversation(event.ConversationID, client)
		observability.IncWSEvent("socket", "join_conversation")
	case models.EventLeaveConversation:
		h.hub.LeaveConversation(event.ConversationID, client)
		observability.IncWSEvent("socket", "leave_conversation")
	case models.EventSendMessage:
		observability.IncWSEvent("socket", "send_message")
		go func() {
			// The invocation outlives the connection on purpose: once the
			// broadcast happened, side effects address channels, not this
			// socket.
			outcome := h.pipeline.Run(context.Background(), client, event.Message)
			if outcome.Err != nil {
				log.Printf("fanout run finished with error conn_id=%s: %v", client.Info.ConnID, outcome.Err)
			}
		}()
	default:
		_ = client.Send(models.ServerEvent{Type: models.EventError, Error: "unknown event type"})
	}
}

func (h *SocketHandler) pingLoop(client *Client, stop <-chan struct{}) {
	ticker := time.NewTicker(h.opts.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := client.Ping(time.Now().Add(h.opts.PingInterval / 2)); err != nil {
				return
			}
		case <-stop:
			return
		}
	}
}

func (h *SocketHandler) publishLifecycle(ctx context.Context, info ConnInfo, event string, durationMS int64, reason string) {
	_ = observability.PublishEvent(ctx, "ws_events.socket", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"kind":        "socket",
				"event":       event,
				"conn_id":     info.ConnID,
				"duration_ms": durationMS,
				"reason":      reason,
			},
			"identity": map[string]interface{}{
				"user_id":   info.UserID,
				"verified":  info.Verified,
				"device_id": info.DeviceID,
				"ip":        info.IP,
			},
		},
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	return c.Query("token")
}
