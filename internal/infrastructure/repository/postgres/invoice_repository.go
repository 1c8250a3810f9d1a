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

type InvoiceRepository struct {
	db *sql.DB
}

func NewInvoiceRepository(db *sql.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

const invoiceColumns = `id, guid, project_id, original_file_path, original_file_name, original_file_content,
translated_file_path, translated_file_name, translated_file_content,
status, error_message, insights, uploaded_at, translated_at, created_at, updated_at`

func (r *InvoiceRepository) Create(ctx context.Context, invoice *domain.Invoice) error {
	err := r.db.QueryRowContext(ctx, `
INSERT INTO invoices (
	guid, project_id, original_file_path, original_file_name, original_file_content,
	translated_file_path, translated_file_name, translated_file_content,
	status, error_message, insights, uploaded_at, translated_at, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
RETURNING id
`,
		invoice.GUID, invoice.ProjectID, invoice.OriginalFilePath, invoice.OriginalFileName, invoice.OriginalContent,
		invoice.TranslatedFilePath, invoice.TranslatedFileName, invoice.TranslatedContent,
		string(invoice.Status), invoice.ErrorMessage, nullableJSON(invoice.Insights), invoice.UploadedAt,
		invoice.TranslatedAt, invoice.CreatedAt, invoice.UpdatedAt,
	).Scan(&invoice.ID)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) GetByKey(ctx context.Context, key domain.Key) (*domain.Invoice, error) {
	pred, arg := keyPredicate(key, 1)
	row := r.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE `+pred, arg)

	invoice, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get invoice", fmt.Errorf("invoice %s", key))
		}
		return nil, fmt.Errorf("scan invoice: %w", err)
	}
	return &invoice, nil
}

func (r *InvoiceRepository) ListByProject(ctx context.Context, projectID int64, page domain.Page) ([]domain.Invoice, int, error) {
	page = page.Normalize()

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM invoices WHERE project_id = $1`, projectID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE project_id = $1 ORDER BY id LIMIT $2 OFFSET $3`,
		projectID, page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Invoice, 0)
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, invoice)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate invoices: %w", err)
	}
	return out, total, nil
}

func (r *InvoiceRepository) Update(ctx context.Context, invoice *domain.Invoice) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE invoices
SET original_file_path = $2, original_file_name = $3, original_file_content = $4, updated_at = $5
WHERE id = $1
`, invoice.ID, invoice.OriginalFilePath, invoice.OriginalFileName, invoice.OriginalContent, invoice.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	return requireRow(result, "invoice", domain.KeyFromID(invoice.ID))
}

func (r *InvoiceRepository) Delete(ctx context.Context, key domain.Key) error {
	pred, arg := keyPredicate(key, 1)
	result, err := r.db.ExecContext(ctx, `DELETE FROM invoices WHERE `+pred, arg)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	return requireRow(result, "invoice", key)
}

func (r *InvoiceRepository) UpdateStatus(ctx context.Context, id int64, status domain.DocumentStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE invoices
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	return requireRow(result, "invoice", domain.KeyFromID(id))
}

func (r *InvoiceRepository) SaveTranslation(ctx context.Context, id int64, filePath, fileName, content string) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
UPDATE invoices
SET translated_file_path = $2, translated_file_name = $3, translated_file_content = $4,
	status = $5, error_message = '', translated_at = $6, updated_at = $6
WHERE id = $1
`, id, filePath, fileName, content, string(domain.StatusCompleted), now)
	if err != nil {
		return fmt.Errorf("save translation: %w", err)
	}
	return requireRow(result, "invoice", domain.KeyFromID(id))
}

func (r *InvoiceRepository) SaveInsights(ctx context.Context, id int64, insights json.RawMessage) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE invoices
SET insights = $2, updated_at = $3
WHERE id = $1
`, id, nullableJSON(insights), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save invoice insights: %w", err)
	}
	return requireRow(result, "invoice", domain.KeyFromID(id))
}

func scanInvoice(row rowScanner) (domain.Invoice, error) {
	var invoice domain.Invoice
	var status string
	var insights []byte
	var translatedAt sql.NullTime
	err := row.Scan(
		&invoice.ID,
		&invoice.GUID,
		&invoice.ProjectID,
		&invoice.OriginalFilePath,
		&invoice.OriginalFileName,
		&invoice.OriginalContent,
		&invoice.TranslatedFilePath,
		&invoice.TranslatedFileName,
		&invoice.TranslatedContent,
		&status,
		&invoice.ErrorMessage,
		&insights,
		&invoice.UploadedAt,
		&translatedAt,
		&invoice.CreatedAt,
		&invoice.UpdatedAt,
	)
	if err != nil {
		return domain.Invoice{}, err
	}
	invoice.Status = domain.DocumentStatus(status)
	invoice.Insights = insights
	if translatedAt.Valid {
		t := translatedAt.Time
		invoice.TranslatedAt = &t
	}
	return invoice, nil
}
