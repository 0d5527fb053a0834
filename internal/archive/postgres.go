package archive

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatpdfy/chatpdfy/internal/conversation"
)

// PostgresSink persists the transcript audit trail in PostgreSQL.
type PostgresSink struct {
	pool *pgxpool.Pool
}

func NewPostgresSink(ctx context.Context, databaseURL string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresSink{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmt := `CREATE TABLE IF NOT EXISTS transcript_turns (
		id TEXT PRIMARY KEY,
		role TEXT NOT NULL,
		kind TEXT NOT NULL,
		content TEXT NOT NULL,
		file_name TEXT,
		file_size_label TEXT,
		file_page_count INT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`
	if _, err := pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *PostgresSink) Record(ctx context.Context, turn conversation.Turn) error {
	var fileName, sizeLabel *string
	var pageCount *int
	if turn.FileMeta != nil {
		fileName = &turn.FileMeta.Name
		sizeLabel = &turn.FileMeta.SizeLabel
		pageCount = &turn.FileMeta.PageCount
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO transcript_turns (id, role, kind, content, file_name, file_size_label, file_page_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		turn.ID,
		string(turn.Role),
		string(turn.Kind),
		turn.Content,
		fileName,
		sizeLabel,
		pageCount,
		turn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record turn: %w", err)
	}
	return nil
}

func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}
