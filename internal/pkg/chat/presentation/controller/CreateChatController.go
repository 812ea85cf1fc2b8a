package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	bport "github.com/jayant810/chatSphere/internal/infrastructure/broker/port"
	"github.com/jayant810/chatSphere/internal/pkg/chat/application/event"
	"github.com/jayant810/chatSphere/internal/pkg/chat/application/usecase"
	"github.com/jayant810/chatSphere/internal/pkg/chat/persistence/repository/adapter"
)

// CreateChatController handles the chat creation endpoint
// One controller per endpoint
type CreateChatController struct {
	UC      *usecase.CreateChatUseCase
	Broker  bport.Broker
	Log     *slog.Logger
	Timeout time.Duration
}

func NewCreateChatController(pool *pgxpool.Pool, broker bport.Broker, log *slog.Logger, timeout time.Duration) *CreateChatController {
	repo := adapter.NewPgChatRepository(pool)
	return &CreateChatController{
		UC:      usecase.NewCreateChatUseCase(repo),
		Broker:  broker,
		Log:     log,
		Timeout: timeout,
	}
}

type createChatRequest struct {
	Name    *string  `json:"name"`
	IsGroup bool     `json:"is_group"`
	Members []string `json:"members" binding:"required"`
}

func (h *CreateChatController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		in := usecase.CreateChatInput{Name: req.Name, IsGroup: req.IsGroup, MemberIDs: req.Members}
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
		defer cancel()
		chatRow, status, err := h.UC.Execute(ctx, in)
		if err != nil {
			code := http.StatusBadRequest
			if errors.Is(err, usecase.ErrPersistence) {
				code = http.StatusInternalServerError
			}
			c.JSON(code, gin.H{"error": err.Error()})
			return
		}

		// Notify each member's personal channel so open sessions pick up the
		// new chat channel without reconnecting.
		if status == usecase.StatusCreated {
			h.announce(ctx, req.Members, event.ChatCreatedEvent{
				Type:    event.TypeChatCreated,
				ChatID:  chatRow.ID,
				Name:    chatRow.Name,
				IsGroup: chatRow.IsGroup,
			})
		}

		c.JSON(http.StatusCreated, gin.H{"id": chatRow.ID, "status": status})
	}
}

func (h *CreateChatController) announce(ctx context.Context, members []string, evt event.ChatCreatedEvent) {
	payload, err := event.Marshal(evt)
	if err != nil {
		h.Log.Error("marshal chat_created", "chat_id", evt.ChatID, "error", err)
		return
	}
	for _, userID := range members {
		if err := h.Broker.Publish(ctx, event.UserChannel(userID), payload); err != nil {
			h.Log.Error("publish chat_created failed", "chat_id", evt.ChatID, "user_id", userID, "error", err)
		}
	}
}
