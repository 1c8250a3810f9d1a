package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aurumline/exportdesk/internal/core/domain"
)

// ContactRepository backs both group counterparty flavors; the table
// name decides which one. Queries build their SQL from the table field,
// never from request input.
type ContactRepository struct {
	db     *sql.DB
	table  string
	entity string
}

func NewCustomAgentRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{db: db, table: "custom_agents", entity: "custom agent"}
}

func NewShippingServiceRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{db: db, table: "shipping_services", entity: "shipping service"}
}

const contactColumns = `id, guid, group_id, name, email, phone, is_active, created_at, updated_at`

func (r *ContactRepository) Create(ctx context.Context, contact *domain.GroupContact) error {
	err := r.db.QueryRowContext(ctx, `
INSERT INTO `+r.table+` (guid, group_id, name, email, phone, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING id
`, contact.GUID, contact.GroupID, contact.Name, contact.Email, contact.Phone, contact.IsActive,
		contact.CreatedAt, contact.UpdatedAt).Scan(&contact.ID)
	if err != nil {
		return fmt.Errorf("insert %s: %w", r.entity, err)
	}
	return nil
}

func (r *ContactRepository) GetByKey(ctx context.Context, key domain.Key) (*domain.GroupContact, error) {
	pred, arg := keyPredicate(key, 1)
	row := r.db.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM `+r.table+` WHERE `+pred, arg)

	contact, err := scanContact(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get "+r.entity, fmt.Errorf("%s %s", r.entity, key))
		}
		return nil, fmt.Errorf("scan %s: %w", r.entity, err)
	}
	return &contact, nil
}

func (r *ContactRepository) ListByGroup(ctx context.Context, groupID int64, page domain.Page) ([]domain.GroupContact, int, error) {
	page = page.Normalize()

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+r.table+` WHERE group_id = $1`, groupID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %ss: %w", r.entity, err)
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT `+contactColumns+`
FROM `+r.table+`
WHERE group_id = $1
ORDER BY id
LIMIT $2 OFFSET $3
`, groupID, page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list %ss: %w", r.entity, err)
	}
	defer rows.Close()

	out := make([]domain.GroupContact, 0)
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan %s: %w", r.entity, err)
		}
		out = append(out, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate %ss: %w", r.entity, err)
	}
	return out, total, nil
}

func (r *ContactRepository) Update(ctx context.Context, contact *domain.GroupContact) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE `+r.table+`
SET name = $2, email = $3, phone = $4, is_active = $5, updated_at = $6
WHERE id = $1
`, contact.ID, contact.Name, contact.Email, contact.Phone, contact.IsActive, contact.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.entity, err)
	}
	return requireRow(result, r.entity, domain.KeyFromID(contact.ID))
}

func (r *ContactRepository) Delete(ctx context.Context, key domain.Key) error {
	pred, arg := keyPredicate(key, 1)
	result, err := r.db.ExecContext(ctx, `DELETE FROM `+r.table+` WHERE `+pred, arg)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.entity, err)
	}
	return requireRow(result, r.entity, key)
}

func scanContact(row rowScanner) (domain.GroupContact, error) {
	var contact domain.GroupContact
	err := row.Scan(
		&contact.ID,
		&contact.GUID,
		&contact.GroupID,
		&contact.Name,
		&contact.Email,
		&contact.Phone,
		&contact.IsActive,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	)
	if err != nil {
		return domain.GroupContact{}, err
	}
	return contact, nil
}
