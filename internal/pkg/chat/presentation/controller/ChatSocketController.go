package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"

	bport "github.com/jayant810/chatSphere/internal/infrastructure/broker/port"
	qport "github.com/jayant810/chatSphere/internal/infrastructure/queue/port"
	"github.com/jayant810/chatSphere/internal/infrastructure/realtime"
	"github.com/jayant810/chatSphere/internal/pkg/chat/application/event"
	"github.com/jayant810/chatSphere/internal/pkg/chat/application/processor"
	"github.com/jayant810/chatSphere/internal/pkg/chat/bridge"
	repoAdapter "github.com/jayant810/chatSphere/internal/pkg/chat/persistence/repository/adapter"
	repository "github.com/jayant810/chatSphere/internal/pkg/chat/persistence/repository/port"
)

const (
	defaultReadTimeout = 60 * time.Second

	subscribeAttempts = 3
	subscribeBackoff  = 500 * time.Millisecond
)

// ChatSocketController handles the websocket endpoint for realtime chat
// traffic. The :userId path segment is trusted as-is; the auth collaborator
// is assumed to have verified it upstream.
type ChatSocketController struct {
	registry        *realtime.Registry
	broker          bport.Broker
	repo            repository.ChatRepository
	proc            *processor.Processor
	log             *slog.Logger
	inflightTimeout time.Duration
}

func NewChatSocketController(pool *pgxpool.Pool, broker bport.Broker, queue qport.Client, registry *realtime.Registry, log *slog.Logger, timeout time.Duration) *ChatSocketController {
	repo := repoAdapter.NewPgChatRepository(pool)
	return &ChatSocketController{
		registry:        registry,
		broker:          broker,
		repo:            repo,
		proc:            processor.New(repo, broker, queue, registry, log),
		log:             log,
		inflightTimeout: timeout,
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now; plug a proper checker when auth is added.
		return true
	},
}

// Handle upgrades the connection and runs the inbound reader loop until the
// client disconnects. Exactly two tasks exist per connection: this reader
// (strictly sequential) and the bridge's broker listener.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userId")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
			return
		}

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; just return.
			return
		}

		conn := realtime.NewConnection(userID, ws)
		conn.Start()
		ctl.registry.Register(userID, conn)

		br := ctl.openBridge(c.Request.Context(), userID, conn)

		// Scoped teardown on every exit path: listener canceled, channels
		// unsubscribed, session removed from the registry.
		defer func() {
			if br != nil {
				br.Close()
			}
			ctl.registry.Unregister(userID, conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		ws.SetReadLimit(1 << 20) // 1MB payload cap
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		if payload, err := event.Marshal(event.ConnectedEvent{Type: event.TypeConnected}); err == nil {
			_ = conn.Send(payload)
		}

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				// Transport errors end the session via the deferred teardown;
				// they are not retried and not reported elsewhere.
				return
			}

			ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
			ctl.proc.Handle(ctx, userID, data, func(payload []byte) {
				_ = conn.Send(payload)
			})
			cancel()
		}
	}
}

// openBridge subscribes the session to its broker channels, retrying with
// backoff. Sustained failure degrades the session to local-delivery-only and
// tells the client rather than dropping cross-instance events silently.
func (ctl *ChatSocketController) openBridge(ctx context.Context, userID string, conn *realtime.Connection) *bridge.Bridge {
	var lastErr error
	for attempt := 0; attempt < subscribeAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(subscribeBackoff * time.Duration(attempt))
		}
		br, err := bridge.Open(ctx, ctl.broker, ctl.repo, userID, conn, ctl.log)
		if err == nil {
			return br
		}
		lastErr = err
	}

	ctl.log.Error("bridge open failed, session degraded to local delivery", "user_id", userID, "error", lastErr)
	if payload, err := event.Marshal(event.NewErrorEvent(event.CodeDegradedDelivery,
		"subscriptions unavailable; only events from this instance will be delivered")); err == nil {
		_ = conn.Send(payload)
	}
	return nil
}
