package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jayant810/chatSphere/internal/pkg/chat/application/usecase"
	"github.com/jayant810/chatSphere/internal/pkg/chat/persistence/repository/adapter"
)

// GetConversationsController lists the chats a user belongs to, resolving 1:1
// display names through the user directory.
type GetConversationsController struct {
	UC      *usecase.GetConversationsUseCase
	Timeout time.Duration
}

func NewGetConversationsController(pool *pgxpool.Pool, log *slog.Logger, timeout time.Duration) *GetConversationsController {
	repo := adapter.NewPgChatRepository(pool)
	users := adapter.NewPgUserDirectory(pool)
	return &GetConversationsController{UC: usecase.NewGetConversationsUseCase(repo, users, log), Timeout: timeout}
}

func (h *GetConversationsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userId")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
		defer cancel()

		views, err := h.UC.Execute(ctx, userID)
		if err != nil {
			code := http.StatusBadRequest
			if errors.Is(err, usecase.ErrPersistence) {
				code = http.StatusInternalServerError
			}
			c.JSON(code, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, views)
	}
}
