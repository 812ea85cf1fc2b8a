package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	bport "github.com/jayant810/chatSphere/internal/infrastructure/broker/port"
	qport "github.com/jayant810/chatSphere/internal/infrastructure/queue/port"
	"github.com/jayant810/chatSphere/internal/infrastructure/realtime"
	"github.com/jayant810/chatSphere/internal/pkg/chat/presentation/controller"
)

// RegisterRoutes registers chat-related HTTP endpoints under the given router group
// It constructs per-endpoint controllers and binds them directly to routes.
func RegisterRoutes(g *gin.RouterGroup, pool *pgxpool.Pool, broker bport.Broker, queue qport.Client, registry *realtime.Registry, log *slog.Logger, timeout time.Duration) {
	createCtl := controller.NewCreateChatController(pool, broker, log, timeout)
	historyCtl := controller.NewGetHistoryController(pool, timeout)
	conversationsCtl := controller.NewGetConversationsController(pool, log, timeout)
	socketCtl := controller.NewChatSocketController(pool, broker, queue, registry, log, timeout)

	// POST /api/v1/chat/chats/create -> create (or dedup) a chat
	g.POST("/chat/chats/create", createCtl.Handle())

	// GET /api/v1/chat/history/:chatId -> recent visible messages
	g.GET("/chat/history/:chatId", historyCtl.Handle())

	// GET /api/v1/chat/conversations/:userId -> chats the user belongs to
	g.GET("/chat/conversations/:userId", conversationsCtl.Handle())

	// GET /api/v1/chat/ws/:userId -> websocket endpoint for realtime chat
	g.GET("/chat/ws/:userId", socketCtl.Handle())
}
