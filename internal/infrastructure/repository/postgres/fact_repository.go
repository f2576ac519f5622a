package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/whisperengine-ai/whisperengine/internal/core/domain"
)

type FactRepository struct {
	db *sql.DB
}

func NewFactRepository(db *sql.DB) *FactRepository {
	return &FactRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *FactRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS user_facts (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	character TEXT NOT NULL DEFAULT '',
	subject TEXT NOT NULL,
	relation TEXT NOT NULL,
	object TEXT NOT NULL,
	negated BOOLEAN NOT NULL DEFAULT FALSE,
	confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	source_text TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_user_facts_identity
	ON user_facts(user_id, character, subject, relation, object);
CREATE INDEX IF NOT EXISTS idx_user_facts_user_relation
	ON user_facts(user_id, relation);

CREATE TABLE IF NOT EXISTS conversation_messages (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	conversation_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_conversation_messages_thread
	ON conversation_messages(user_id, conversation_id, created_at);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// UpsertFact inserts a fact or, when the same (user, character, subject,
// relation, object) identity already exists, refreshes its confidence and
// negation state. A later observation wins.
func (r *FactRepository) UpsertFact(ctx context.Context, fact *domain.UserFact) error {
	if fact == nil {
		return domain.WrapError(domain.ErrInvalidInput, "postgres.UpsertFact", fmt.Errorf("nil fact"))
	}
	if strings.TrimSpace(fact.UserID) == "" || fact.Relation == "" || fact.Object == "" {
		return domain.WrapError(domain.ErrInvalidInput, "postgres.UpsertFact",
			fmt.Errorf("user_id, relation and object are required"))
	}

	if fact.ID == "" {
		fact.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if fact.CreatedAt.IsZero() {
		fact.CreatedAt = now
	}
	fact.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO user_facts (
	id, user_id, character, subject, relation, object, negated, confidence, source_text, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (user_id, character, subject, relation, object) DO UPDATE
SET negated = EXCLUDED.negated,
	confidence = EXCLUDED.confidence,
	source_text = EXCLUDED.source_text,
	updated_at = EXCLUDED.updated_at
`,
		fact.ID, fact.UserID, fact.Character, fact.Subject, fact.Relation, fact.Object,
		fact.Negated, fact.Confidence, fact.SourceText, fact.CreatedAt, fact.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert fact: %w", err)
	}
	return nil
}

// ListFacts returns a user's facts, optionally filtered to a set of
// relation labels, newest first.
func (r *FactRepository) ListFacts(ctx context.Context, userID string, relations []string, limit int) ([]domain.UserFact, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "postgres.ListFacts", fmt.Errorf("empty user id"))
	}
	if limit <= 0 {
		limit = 20
	}

	query := `
SELECT id, user_id, character, subject, relation, object, negated, confidence, source_text, created_at, updated_at
FROM user_facts
WHERE user_id = $1
`
	args := []any{userID}
	if len(relations) > 0 {
		placeholders := make([]string, 0, len(relations))
		for _, rel := range relations {
			args = append(args, rel)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		query += fmt.Sprintf("AND relation IN (%s)\n", strings.Join(placeholders, ","))
	}
	args = append(args, limit)
	query += fmt.Sprintf("ORDER BY updated_at DESC\nLIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query facts: %w", err)
	}
	defer rows.Close()

	var out []domain.UserFact
	for rows.Next() {
		var fact domain.UserFact
		var sourceText sql.NullString
		if err := rows.Scan(
			&fact.ID, &fact.UserID, &fact.Character, &fact.Subject, &fact.Relation, &fact.Object,
			&fact.Negated, &fact.Confidence, &sourceText, &fact.CreatedAt, &fact.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		fact.SourceText = sourceText.String
		out = append(out, fact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate facts: %w", err)
	}
	return out, nil
}
