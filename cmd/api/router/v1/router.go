package v1

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	bport "github.com/jayant810/chatSphere/internal/infrastructure/broker/port"
	qport "github.com/jayant810/chatSphere/internal/infrastructure/queue/port"
	"github.com/jayant810/chatSphere/internal/infrastructure/realtime"
	httpHandler "github.com/jayant810/chatSphere/internal/pkg/chat/presentation/http"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1
func RegisterRoutes(r *gin.Engine, pool *pgxpool.Pool, broker bport.Broker, queue qport.Client, registry *realtime.Registry, log *slog.Logger, timeout time.Duration) {
	v1 := r.Group("/api/v1")
	httpHandler.RegisterRoutes(v1, pool, broker, queue, registry, log, timeout)
}
