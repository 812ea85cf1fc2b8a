package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "github.com/jayant810/chatSphere/internal/pkg/chat/application/domain"
	repository "github.com/jayant810/chatSphere/internal/pkg/chat/persistence/repository/port"
)

// PgChatRepository implements the chat persistence gateway over pgx.
// reactions and deleted_for_users are jsonb columns scanned through pgx's
// JSON codec directly into domain types.
type PgChatRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

var _ repository.ChatRepository = (*PgChatRepository)(nil)

// InsertChatWithMembers runs the chat insert and every membership insert in
// one transaction; rollback on any failure keeps membership complete.
func (r *PgChatRepository) InsertChatWithMembers(ctx context.Context, c chat.Chat, members []chat.ChatMembership) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	err = tx.QueryRow(ctx, `
		INSERT INTO chats (is_group, name, created_at)
		VALUES ($1, $2, $3)
		RETURNING id::text
	`, c.IsGroup, c.Name, c.CreatedAt).Scan(&id)
	if err != nil {
		return "", err
	}

	for _, m := range members {
		_, err = tx.Exec(ctx, `
			INSERT INTO chat_members (chat_id, user_id, role)
			VALUES ($1::uuid, $2::uuid, $3)
			ON CONFLICT (chat_id, user_id) DO NOTHING
		`, id, m.UserID, m.Role)
		if err != nil {
			return "", err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (r *PgChatRepository) FindDirectChat(ctx context.Context, userA, userB string) (*chat.Chat, error) {
	var c chat.Chat
	err := r.pool.QueryRow(ctx, `
		SELECT c.id::text, c.is_group, c.name, c.created_at
		FROM chats c
		WHERE c.is_group = FALSE
		  AND EXISTS (SELECT 1 FROM chat_members m WHERE m.chat_id = c.id AND m.user_id = $1::uuid)
		  AND EXISTS (SELECT 1 FROM chat_members m WHERE m.chat_id = c.id AND m.user_id = $2::uuid)
		  AND (SELECT COUNT(*) FROM chat_members m WHERE m.chat_id = c.id) = 2
		LIMIT 1
	`, userA, userB).Scan(&c.ID, &c.IsGroup, &c.Name, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PgChatRepository) QueryMembershipsByUser(ctx context.Context, userID string) ([]chat.ChatMembership, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT chat_id::text, user_id::text, role
		FROM chat_members
		WHERE user_id = $1::uuid
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []chat.ChatMembership
	for rows.Next() {
		var m chat.ChatMembership
		if err := rows.Scan(&m.ChatID, &m.UserID, &m.Role); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

func (r *PgChatRepository) QueryChatsByIDs(ctx context.Context, ids []string) ([]chat.Chat, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, is_group, name, created_at
		FROM chats
		WHERE id = ANY($1::uuid[])
		ORDER BY created_at DESC
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []chat.Chat
	for rows.Next() {
		var c chat.Chat
		if err := rows.Scan(&c.ID, &c.IsGroup, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

func (r *PgChatRepository) ListChatMembers(ctx context.Context, chatID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id::text FROM chat_members WHERE chat_id = $1::uuid
	`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		members = append(members, id)
	}
	return members, rows.Err()
}

func (r *PgChatRepository) InsertMessage(ctx context.Context, m chat.Message) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO messages (
			chat_id, sender_id, content, file_url, message_type, timestamp,
			is_read, reactions, reply_to_id, reply_to_content, deleted_for_users
		) VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7, $8, $9::uuid, $10, $11)
		RETURNING id::text
	`, m.ChatID, m.SenderID, m.Content, m.FileURL, m.Type, m.Timestamp,
		m.IsRead, m.Reactions, m.ReplyToID, m.ReplyToContent, deletedFor(m)).Scan(&id)
	return id, err
}

func (r *PgChatRepository) GetMessage(ctx context.Context, id string) (*chat.Message, error) {
	var m chat.Message
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, chat_id::text, sender_id::text, content, file_url,
		       message_type, timestamp, is_read, reactions, reply_to_id::text,
		       reply_to_content, deleted_for_users
		FROM messages
		WHERE id = $1::uuid
	`, id).Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.FileURL,
		&m.Type, &m.Timestamp, &m.IsRead, &m.Reactions, &m.ReplyToID,
		&m.ReplyToContent, &m.DeletedFor)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if m.Reactions == nil {
		m.Reactions = chat.Reactions{}
	}
	return &m, nil
}

func (r *PgChatRepository) UpdateMessage(ctx context.Context, m chat.Message) error {
	ct, err := r.pool.Exec(ctx, `
		UPDATE messages
		SET content = $2, file_url = $3, message_type = $4, is_read = $5,
		    reactions = $6, deleted_for_users = $7
		WHERE id = $1::uuid
	`, m.ID, m.Content, m.FileURL, m.Type, m.IsRead, m.Reactions, deletedFor(m))
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PgChatRepository) QueryMessagesByChat(ctx context.Context, chatID, viewerID string, limit int) ([]chat.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, chat_id::text, sender_id::text, content, file_url,
		       message_type, timestamp, is_read, reactions, reply_to_id::text,
		       reply_to_content, deleted_for_users
		FROM messages
		WHERE chat_id = $1::uuid
		  AND NOT (deleted_for_users @> to_jsonb($2::text))
		ORDER BY timestamp DESC
		LIMIT $3
	`, chatID, viewerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var m chat.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.FileURL,
			&m.Type, &m.Timestamp, &m.IsRead, &m.Reactions, &m.ReplyToID,
			&m.ReplyToContent, &m.DeletedFor); err != nil {
			return nil, err
		}
		if m.Reactions == nil {
			m.Reactions = chat.Reactions{}
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// deletedFor keeps the jsonb column a [] rather than null for new rows.
func deletedFor(m chat.Message) []string {
	if m.DeletedFor == nil {
		return []string{}
	}
	return m.DeletedFor
}
