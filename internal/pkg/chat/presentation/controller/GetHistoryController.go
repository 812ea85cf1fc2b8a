package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jayant810/chatSphere/internal/pkg/chat/application/usecase"
	"github.com/jayant810/chatSphere/internal/pkg/chat/persistence/repository/adapter"
)

// GetHistoryController serves the recent messages of a chat, newest first,
// excluding messages the requester deleted for themselves.
type GetHistoryController struct {
	UC      *usecase.GetHistoryUseCase
	Timeout time.Duration
}

func NewGetHistoryController(pool *pgxpool.Pool, timeout time.Duration) *GetHistoryController {
	repo := adapter.NewPgChatRepository(pool)
	return &GetHistoryController{UC: usecase.NewGetHistoryUseCase(repo), Timeout: timeout}
}

func (h *GetHistoryController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID := c.Param("chatId")
		userID := c.Query("user_id")
		if chatID == "" || userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "chatId and user_id are required"})
			return
		}

		limit := 0
		if v := c.Query("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
		defer cancel()

		msgs, err := h.UC.Execute(ctx, usecase.GetHistoryInput{ChatID: chatID, UserID: userID, Limit: limit})
		if err != nil {
			code := http.StatusBadRequest
			if errors.Is(err, usecase.ErrPersistence) {
				code = http.StatusInternalServerError
			}
			c.JSON(code, gin.H{"error": err.Error()})
			return
		}

		out := make([]gin.H, 0, len(msgs))
		for _, m := range msgs {
			out = append(out, gin.H{
				"id":               m.ID,
				"chat_id":          m.ChatID,
				"sender_id":        m.SenderID,
				"content":          m.Content,
				"message_type":     m.Type,
				"file_url":         m.FileURL,
				"timestamp":        m.Timestamp,
				"is_read":          m.IsRead,
				"reactions":        m.Reactions,
				"reply_to_id":      m.ReplyToID,
				"reply_to_content": m.ReplyToContent,
			})
		}

		c.JSON(http.StatusOK, out)
	}
}
