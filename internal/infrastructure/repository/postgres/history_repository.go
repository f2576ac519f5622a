package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/whisperengine-ai/whisperengine/internal/core/domain"
)

// HistoryRepository is the time-series side of the store: append-only
// conversation records ordered by creation time.
type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Append(ctx context.Context, message domain.ConversationMessage) error {
	if strings.TrimSpace(message.UserID) == "" || strings.TrimSpace(message.ConversationID) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "postgres.Append",
			fmt.Errorf("user_id and conversation_id are required"))
	}
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO conversation_messages (id, user_id, conversation_id, role, content, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, message.ID, message.UserID, message.ConversationID, message.Role, message.Content, message.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert conversation message: %w", err)
	}
	return nil
}

// Recent returns the newest messages of a thread in chronological order.
func (r *HistoryRepository) Recent(ctx context.Context, userID, conversationID string, limit int) ([]domain.ConversationMessage, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, conversation_id, role, content, created_at
FROM (
	SELECT id, user_id, conversation_id, role, content, created_at
	FROM conversation_messages
	WHERE user_id = $1 AND conversation_id = $2
	ORDER BY created_at DESC
	LIMIT $3
) latest
ORDER BY created_at ASC
`, userID, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent messages: %w", err)
	}
	defer rows.Close()

	var out []domain.ConversationMessage
	for rows.Next() {
		var msg domain.ConversationMessage
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return out, nil
}

// First returns the oldest message of a thread.
func (r *HistoryRepository) First(ctx context.Context, userID, conversationID string) (*domain.ConversationMessage, error) {
	return r.boundary(ctx, userID, conversationID, "ASC")
}

// Last returns the newest message of a thread.
func (r *HistoryRepository) Last(ctx context.Context, userID, conversationID string) (*domain.ConversationMessage, error) {
	return r.boundary(ctx, userID, conversationID, "DESC")
}

func (r *HistoryRepository) boundary(ctx context.Context, userID, conversationID, direction string) (*domain.ConversationMessage, error) {
	row := r.db.QueryRowContext(ctx, fmt.Sprintf(`
SELECT id, user_id, conversation_id, role, content, created_at
FROM conversation_messages
WHERE user_id = $1 AND conversation_id = $2
ORDER BY created_at %s
LIMIT 1
`, direction), userID, conversationID)

	var msg domain.ConversationMessage
	err := row.Scan(&msg.ID, &msg.UserID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "postgres.history",
				fmt.Errorf("no messages for user %s conversation %s", userID, conversationID))
		}
		return nil, fmt.Errorf("scan boundary message: %w", err)
	}
	return &msg, nil
}
