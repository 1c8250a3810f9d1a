package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aurumline/exportdesk/internal/core/domain"
)

type GroupRepository struct {
	db *sql.DB
}

func NewGroupRepository(db *sql.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) Create(ctx context.Context, group *domain.Group) error {
	err := r.db.QueryRowContext(ctx, `
INSERT INTO groups (guid, name, description, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id
`, group.GUID, group.Name, group.Description, group.IsActive, group.CreatedAt, group.UpdatedAt).Scan(&group.ID)
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	return nil
}

func (r *GroupRepository) GetByKey(ctx context.Context, key domain.Key) (*domain.Group, error) {
	pred, arg := keyPredicate(key, 1)
	row := r.db.QueryRowContext(ctx, `
SELECT id, guid, name, description, is_active, created_at, updated_at
FROM groups
WHERE `+pred, arg)

	var g domain.Group
	err := row.Scan(&g.ID, &g.GUID, &g.Name, &g.Description, &g.IsActive, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get group", fmt.Errorf("group %s", key))
		}
		return nil, fmt.Errorf("scan group: %w", err)
	}
	return &g, nil
}

func (r *GroupRepository) List(ctx context.Context, page domain.Page) ([]domain.Group, int, error) {
	page = page.Normalize()

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM groups`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count groups: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, guid, name, description, is_active, created_at, updated_at
FROM groups
ORDER BY id
LIMIT $1 OFFSET $2
`, page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Group, 0)
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.GUID, &g.Name, &g.Description, &g.IsActive, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan group: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate groups: %w", err)
	}
	return out, total, nil
}

func (r *GroupRepository) Update(ctx context.Context, group *domain.Group) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE groups
SET name = $2, description = $3, is_active = $4, updated_at = $5
WHERE id = $1
`, group.ID, group.Name, group.Description, group.IsActive, group.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	return requireRow(result, "group", domain.KeyFromID(group.ID))
}

func (r *GroupRepository) Delete(ctx context.Context, key domain.Key) error {
	pred, arg := keyPredicate(key, 1)
	result, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE `+pred, arg)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return requireRow(result, "group", key)
}

// requireRow converts a zero-row write into the not-found error every
// repository shares.
func requireRow(result sql.Result, entity string, key domain.Key) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", entity, err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrNotFound, "update "+entity, fmt.Errorf("%s %s", entity, key))
	}
	return nil
}
