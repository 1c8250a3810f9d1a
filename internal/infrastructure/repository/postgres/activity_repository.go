package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aurumline/exportdesk/internal/core/domain"
)

type ActivityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Record(ctx context.Context, entry *domain.ActivityEntry) error {
	err := r.db.QueryRowContext(ctx, `
INSERT INTO activity_log (group_id, user_id, entity, entity_id, action, detail, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING id
`, entry.GroupID, entry.UserID, entry.Entity, entry.EntityID, entry.Action, entry.Detail, entry.CreatedAt).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("insert activity entry: %w", err)
	}
	return nil
}

func (r *ActivityRepository) ListByGroup(ctx context.Context, groupID int64, page domain.Page) ([]domain.ActivityEntry, int, error) {
	page = page.Normalize()

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM activity_log WHERE group_id = $1`, groupID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count activity: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, group_id, user_id, entity, entity_id, action, detail, created_at
FROM activity_log
WHERE group_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`, groupID, page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ActivityEntry, 0)
	for rows.Next() {
		var e domain.ActivityEntry
		if err := rows.Scan(&e.ID, &e.GroupID, &e.UserID, &e.Entity, &e.EntityID, &e.Action, &e.Detail, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan activity entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate activity: %w", err)
	}
	return out, total, nil
}
