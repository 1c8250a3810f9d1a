package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aurumline/exportdesk/internal/core/domain"
)

type ProjectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `id, guid, group_id, title, description, status, is_active, thread_id,
source_language, target_language, source_currency, target_currency, exchange_rate,
created_at, updated_at`

func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	err := r.db.QueryRowContext(ctx, `
INSERT INTO projects (
	guid, group_id, title, description, status, is_active, thread_id,
	source_language, target_language, source_currency, target_currency, exchange_rate,
	created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
RETURNING id
`,
		project.GUID, project.GroupID, project.Title, project.Description, string(project.Status),
		project.IsActive, project.ThreadID, project.SourceLanguage, project.TargetLanguage,
		project.SourceCurrency, project.TargetCurrency, project.ExchangeRate,
		project.CreatedAt, project.UpdatedAt,
	).Scan(&project.ID)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) GetByKey(ctx context.Context, key domain.Key) (*domain.Project, error) {
	pred, arg := keyPredicate(key, 1)
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE `+pred, arg)

	project, err := scanProject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get project", fmt.Errorf("project %s", key))
		}
		return nil, fmt.Errorf("scan project: %w", err)
	}
	return &project, nil
}

func (r *ProjectRepository) List(ctx context.Context, page domain.Page) ([]domain.Project, int, error) {
	return r.list(ctx, ``, nil, page)
}

func (r *ProjectRepository) ListByGroup(ctx context.Context, groupID int64, page domain.Page) ([]domain.Project, int, error) {
	return r.list(ctx, `WHERE group_id = $3`, []any{groupID}, page)
}

func (r *ProjectRepository) list(ctx context.Context, filter string, filterArgs []any, page domain.Page) ([]domain.Project, int, error) {
	page = page.Normalize()

	countQuery := `SELECT COUNT(*) FROM projects `
	if filter != "" {
		countQuery = `SELECT COUNT(*) FROM projects WHERE group_id = $1`
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, filterArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}

	args := append([]any{page.Size, page.Offset()}, filterArgs...)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects `+filter+` ORDER BY id LIMIT $1 OFFSET $2`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, project)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate projects: %w", err)
	}
	return out, total, nil
}

func (r *ProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE projects
SET title = $2, description = $3, status = $4, is_active = $5,
	source_language = $6, target_language = $7, source_currency = $8, target_currency = $9,
	exchange_rate = $10, updated_at = $11
WHERE id = $1
`,
		project.ID, project.Title, project.Description, string(project.Status), project.IsActive,
		project.SourceLanguage, project.TargetLanguage, project.SourceCurrency, project.TargetCurrency,
		project.ExchangeRate, project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return requireRow(result, "project", domain.KeyFromID(project.ID))
}

func (r *ProjectRepository) Delete(ctx context.Context, key domain.Key) error {
	pred, arg := keyPredicate(key, 1)
	result, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE `+pred, arg)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return requireRow(result, "project", key)
}

// SetThreadID binds the assistant thread exactly once. The guard in
// the WHERE clause makes concurrent binders lose with zero affected
// rows, which surfaces as ErrConflict.
func (r *ProjectRepository) SetThreadID(ctx context.Context, projectID int64, threadID string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE projects
SET thread_id = $2, updated_at = $3
WHERE id = $1 AND thread_id = ''
`, projectID, threadID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("bind project thread: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("bind project thread rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrConflict, "bind project thread",
			fmt.Errorf("project %d already has a thread or does not exist", projectID))
	}
	return nil
}

func scanProject(row rowScanner) (domain.Project, error) {
	var project domain.Project
	var status string
	err := row.Scan(
		&project.ID,
		&project.GUID,
		&project.GroupID,
		&project.Title,
		&project.Description,
		&status,
		&project.IsActive,
		&project.ThreadID,
		&project.SourceLanguage,
		&project.TargetLanguage,
		&project.SourceCurrency,
		&project.TargetCurrency,
		&project.ExchangeRate,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		return domain.Project{}, err
	}
	project.Status = domain.ProjectStatus(status)
	return project, nil
}
