package design

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists design records.
type Store interface {
	Create(ctx context.Context, d Design, image []byte) error
	ListByOwner(ctx context.Context, ownerID string) ([]Design, error)
	Image(ctx context.Context, id string) (ownerID string, image []byte, err error)
}

// PgStore is a Store over Postgres.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) Create(ctx context.Context, d Design, image []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO designs (id, owner_id, session_id, name, width, height, image, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		d.ID, d.OwnerID, d.SessionID, d.Name, d.Width, d.Height, image, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert design: %w", err)
	}
	return nil
}

func (s *PgStore) ListByOwner(ctx context.Context, ownerID string) ([]Design, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, session_id, name, width, height, created_at
		 FROM designs WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list designs: %w", err)
	}
	defer rows.Close()

	designs := []Design{}
	for rows.Next() {
		var d Design
		var created time.Time
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.SessionID, &d.Name, &d.Width, &d.Height, &created); err != nil {
			return nil, fmt.Errorf("scan design: %w", err)
		}
		d.CreatedAt = created
		designs = append(designs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list designs: %w", err)
	}
	return designs, nil
}

func (s *PgStore) Image(ctx context.Context, id string) (string, []byte, error) {
	var ownerID string
	var image []byte
	err := s.pool.QueryRow(ctx, `SELECT owner_id, image FROM designs WHERE id = $1`, id).Scan(&ownerID, &image)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, ErrNotFound
		}
		return "", nil, fmt.Errorf("get design image: %w", err)
	}
	return ownerID, image, nil
}
