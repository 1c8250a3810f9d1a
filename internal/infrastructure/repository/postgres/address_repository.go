package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aurumline/exportdesk/internal/core/domain"
)

type GroupAddressRepository struct {
	db *sql.DB
}

func NewGroupAddressRepository(db *sql.DB) *GroupAddressRepository {
	return &GroupAddressRepository{db: db}
}

const addressColumns = `id, guid, group_id, address, city, state, zip, country,
contact_name, contact_phone, contact_email, latitude, longitude, is_active, created_at, updated_at`

func (r *GroupAddressRepository) Create(ctx context.Context, addr *domain.GroupAddress) error {
	err := r.db.QueryRowContext(ctx, `
INSERT INTO group_addresses (guid, group_id, address, city, state, zip, country,
contact_name, contact_phone, contact_email, latitude, longitude, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
RETURNING id
`, addr.GUID, addr.GroupID, addr.Address, addr.City, addr.State, addr.Zip, addr.Country,
		addr.ContactName, addr.ContactPhone, addr.ContactEmail, addr.Latitude, addr.Longitude,
		addr.IsActive, addr.CreatedAt, addr.UpdatedAt).Scan(&addr.ID)
	if err != nil {
		return fmt.Errorf("insert group address: %w", err)
	}
	return nil
}

func (r *GroupAddressRepository) GetByKey(ctx context.Context, key domain.Key) (*domain.GroupAddress, error) {
	pred, arg := keyPredicate(key, 1)
	row := r.db.QueryRowContext(ctx, `SELECT `+addressColumns+` FROM group_addresses WHERE `+pred, arg)

	addr, err := scanAddress(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get group address", fmt.Errorf("group address %s", key))
		}
		return nil, fmt.Errorf("scan group address: %w", err)
	}
	return &addr, nil
}

func (r *GroupAddressRepository) ListByGroup(ctx context.Context, groupID int64, page domain.Page) ([]domain.GroupAddress, int, error) {
	page = page.Normalize()

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM group_addresses WHERE group_id = $1`, groupID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count group addresses: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT `+addressColumns+`
FROM group_addresses
WHERE group_id = $1
ORDER BY id
LIMIT $2 OFFSET $3
`, groupID, page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list group addresses: %w", err)
	}
	defer rows.Close()

	out := make([]domain.GroupAddress, 0)
	for rows.Next() {
		addr, err := scanAddress(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan group address: %w", err)
		}
		out = append(out, addr)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate group addresses: %w", err)
	}
	return out, total, nil
}

func (r *GroupAddressRepository) Update(ctx context.Context, addr *domain.GroupAddress) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE group_addresses
SET address = $2, city = $3, state = $4, zip = $5, country = $6,
contact_name = $7, contact_phone = $8, contact_email = $9,
latitude = $10, longitude = $11, is_active = $12, updated_at = $13
WHERE id = $1
`, addr.ID, addr.Address, addr.City, addr.State, addr.Zip, addr.Country,
		addr.ContactName, addr.ContactPhone, addr.ContactEmail, addr.Latitude, addr.Longitude,
		addr.IsActive, addr.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update group address: %w", err)
	}
	return requireRow(result, "group address", domain.KeyFromID(addr.ID))
}

func (r *GroupAddressRepository) Delete(ctx context.Context, key domain.Key) error {
	pred, arg := keyPredicate(key, 1)
	result, err := r.db.ExecContext(ctx, `DELETE FROM group_addresses WHERE `+pred, arg)
	if err != nil {
		return fmt.Errorf("delete group address: %w", err)
	}
	return requireRow(result, "group address", key)
}

func scanAddress(row rowScanner) (domain.GroupAddress, error) {
	var addr domain.GroupAddress
	err := row.Scan(
		&addr.ID,
		&addr.GUID,
		&addr.GroupID,
		&addr.Address,
		&addr.City,
		&addr.State,
		&addr.Zip,
		&addr.Country,
		&addr.ContactName,
		&addr.ContactPhone,
		&addr.ContactEmail,
		&addr.Latitude,
		&addr.Longitude,
		&addr.IsActive,
		&addr.CreatedAt,
		&addr.UpdatedAt,
	)
	if err != nil {
		return domain.GroupAddress{}, err
	}
	return addr, nil
}
