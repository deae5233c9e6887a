package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

type PostgresRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPostgresRepository(db *sql.DB, logger zerolog.Logger) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		logger: logger,
	}
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.db.PingContext(ctx)
}

// PostgresDocumentStore keeps the ledger document in a single row keyed by name.
type PostgresDocumentStore struct {
	*PostgresRepository
	name string
}

func NewPostgresDocumentStore(db *sql.DB, name string, logger zerolog.Logger) *PostgresDocumentStore {
	return &PostgresDocumentStore{
		PostgresRepository: NewPostgresRepository(db, logger),
		name:               name,
	}
}

func (s *PostgresDocumentStore) Describe() string {
	return "postgres document " + s.name
}

func (s *PostgresDocumentStore) Load(ctx context.Context) ([]byte, error) {
	query := `SELECT document FROM grading_ledger_documents WHERE name = $1`

	var document []byte
	err := s.db.QueryRowContext(ctx, query, s.name).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select ledger document: %w", err)
	}

	return document, nil
}

// Save replaces the row with one upsert, which postgres applies atomically.
func (s *PostgresDocumentStore) Save(ctx context.Context, document []byte) error {
	query := `
		INSERT INTO grading_ledger_documents (name, document, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE
		SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query, s.name, string(document), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert ledger document: %w", err)
	}

	s.logger.Debug().
		Str("document", s.name).
		Int("bytes", len(document)).
		Msg("Ledger document saved to postgres")

	return nil
}
