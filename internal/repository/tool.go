package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flowgenius/flowdex/internal/domain"
)

// ToolRepository handles persistence of the tool catalog entries that own
// knowledge chunks.
type ToolRepository struct {
	db dbtx
}

func NewToolRepository(pool *pgxpool.Pool) *ToolRepository {
	return &ToolRepository{db: pool}
}

func NewToolRepositoryWithTx(tx pgx.Tx) *ToolRepository {
	return &ToolRepository{db: tx}
}

func (r *ToolRepository) Create(ctx context.Context, t *domain.Tool) error {
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO tools (id, name, description, categories, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.Name, nullableString(t.Description), t.Categories, t.IsActive, createdAt,
	)
	return err
}

func (r *ToolRepository) GetByID(ctx context.Context, id string) (*domain.Tool, error) {
	var t domain.Tool
	var description *string
	err := r.db.QueryRow(ctx,
		`SELECT id, name, description, categories, is_active, created_at
		 FROM tools WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.Name, &description, &t.Categories, &t.IsActive, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrToolNotFound
		}
		return nil, err
	}
	if description != nil {
		t.Description = *description
	}
	return &t, nil
}

func (r *ToolRepository) List(ctx context.Context) ([]*domain.Tool, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, description, categories, is_active, created_at
		 FROM tools ORDER BY name ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tools []*domain.Tool
	for rows.Next() {
		var t domain.Tool
		var description *string
		if err := rows.Scan(&t.ID, &t.Name, &description, &t.Categories, &t.IsActive, &t.CreatedAt); err != nil {
			return nil, err
		}
		if description != nil {
			t.Description = *description
		}
		tools = append(tools, &t)
	}
	return tools, rows.Err()
}
