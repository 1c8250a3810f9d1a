package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aurumline/exportdesk/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, guid, project_id, kind, file_path, file_name, file_content,
extracted, insights, openai_file_id, status, error_message, created_at, updated_at`

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	err := r.db.QueryRowContext(ctx, `
INSERT INTO documents (
	guid, project_id, kind, file_path, file_name, file_content,
	extracted, insights, openai_file_id, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
RETURNING id
`,
		doc.GUID, doc.ProjectID, string(doc.Kind), doc.FilePath, doc.FileName, doc.FileContent,
		nullableJSON(doc.Extracted), nullableJSON(doc.Insights), doc.OpenAIFileID,
		string(doc.Status), doc.ErrorMessage, doc.CreatedAt, doc.UpdatedAt,
	).Scan(&doc.ID)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// GetByKey looks a document up by id or guid. An empty kind matches
// any of the customs document family.
func (r *DocumentRepository) GetByKey(ctx context.Context, kind domain.DocumentKind, key domain.Key) (*domain.Document, error) {
	pred, arg := keyPredicate(key, 1)
	query := `SELECT ` + documentColumns + ` FROM documents WHERE ` + pred
	args := []any{arg}
	if kind != "" {
		query += ` AND kind = $2`
		args = append(args, string(kind))
	}

	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get document", fmt.Errorf("document %s", key))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) ListByProject(ctx context.Context, kind domain.DocumentKind, projectID int64, page domain.Page) ([]domain.Document, int, error) {
	page = page.Normalize()

	filter := `WHERE project_id = $1`
	countArgs := []any{projectID}
	if kind != "" {
		filter += ` AND kind = $2`
		countArgs = append(countArgs, string(kind))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents `+filter, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	args := append(append([]any{}, countArgs...), page.Size, page.Offset())
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM documents %s ORDER BY id LIMIT $%d OFFSET $%d`,
			documentColumns, filter, len(countArgs)+1, len(countArgs)+2), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate documents: %w", err)
	}
	return out, total, nil
}

func (r *DocumentRepository) Update(ctx context.Context, doc *domain.Document) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET file_path = $2, file_name = $3, file_content = $4, updated_at = $5
WHERE id = $1
`, doc.ID, doc.FilePath, doc.FileName, doc.FileContent, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return requireRow(result, "document", domain.KeyFromID(doc.ID))
}

func (r *DocumentRepository) Delete(ctx context.Context, kind domain.DocumentKind, key domain.Key) error {
	pred, arg := keyPredicate(key, 1)
	query := `DELETE FROM documents WHERE ` + pred
	args := []any{arg}
	if kind != "" {
		query += ` AND kind = $2`
		args = append(args, string(kind))
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return requireRow(result, "document", key)
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id int64, status domain.DocumentStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return requireRow(result, "document", domain.KeyFromID(id))
}

func (r *DocumentRepository) SaveExtraction(ctx context.Context, id int64, extracted json.RawMessage) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET extracted = $2, updated_at = $3
WHERE id = $1
`, id, []byte(extracted), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save extraction: %w", err)
	}
	return requireRow(result, "document", domain.KeyFromID(id))
}

func (r *DocumentRepository) SaveInsights(ctx context.Context, id int64, insights json.RawMessage) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET insights = $2, updated_at = $3
WHERE id = $1
`, id, []byte(insights), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save insights: %w", err)
	}
	return requireRow(result, "document", domain.KeyFromID(id))
}

func (r *DocumentRepository) SetOpenAIFileID(ctx context.Context, id int64, fileID string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET openai_file_id = $2, updated_at = $3
WHERE id = $1
`, id, fileID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set assistant file id: %w", err)
	}
	return requireRow(result, "document", domain.KeyFromID(id))
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

func scanDocument(row rowScanner) (domain.Document, error) {
	var doc domain.Document
	var kind, status string
	var extracted, insights []byte
	err := row.Scan(
		&doc.ID,
		&doc.GUID,
		&doc.ProjectID,
		&kind,
		&doc.FilePath,
		&doc.FileName,
		&doc.FileContent,
		&extracted,
		&insights,
		&doc.OpenAIFileID,
		&status,
		&doc.ErrorMessage,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return domain.Document{}, err
	}
	doc.Kind = domain.DocumentKind(kind)
	doc.Status = domain.DocumentStatus(status)
	doc.Extracted = json.RawMessage(extracted)
	doc.Insights = json.RawMessage(insights)
	return doc, nil
}
