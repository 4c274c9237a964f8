package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"agromind-server/config"
	"agromind-server/internal/model"

	"github.com/jmoiron/sqlx"
)

type DeviceRepository struct {
	*config.Database
}

func NewDeviceRepository(database *config.Database) *DeviceRepository {
	return &DeviceRepository{database}
}

const deviceColumns = `id, device_id, name, owner_id, meta::text AS meta, cred_token_hash, created_at`

// Create : inserts a device and fills in its id and created_at. A taken device_id yields model.ErrDeviceExists.
func (r *DeviceRepository) Create(ctx context.Context, exec sqlx.ExtContext, device *model.Device) error {
	const op = "repository.DeviceRepository.Create"

	query := `
	INSERT INTO devices (device_id, name, owner_id, meta, cred_token_hash)
	VALUES ($1, $2, $3, $4::jsonb, $5)
	RETURNING id, created_at
	`

	err := exec.QueryRowxContext(ctx, query,
		device.DeviceID,
		device.Name,
		device.OwnerID,
		device.Meta,
		device.CredentialHash,
	).Scan(&device.ID, &device.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, model.ErrDeviceExists)
		}
		return storeError(op, err)
	}
	return nil
}

// FindByDeviceID : model.ErrDeviceNotFound when no row matches
func (r *DeviceRepository) FindByDeviceID(ctx context.Context, exec sqlx.ExtContext, deviceID string) (*model.Device, error) {
	const op = "repository.DeviceRepository.FindByDeviceID"
	return r.findOne(ctx, exec, op, `SELECT `+deviceColumns+` FROM devices WHERE device_id = $1`, deviceID)
}

// FindByCredentialHash : model.ErrDeviceNotFound when no device holds that credential
func (r *DeviceRepository) FindByCredentialHash(ctx context.Context, exec sqlx.ExtContext, hash string) (*model.Device, error) {
	const op = "repository.DeviceRepository.FindByCredentialHash"
	return r.findOne(ctx, exec, op, `SELECT `+deviceColumns+` FROM devices WHERE cred_token_hash = $1`, hash)
}

// UpdateCredential replaces the stored credential digest; the previous token stops working at once.
func (r *DeviceRepository) UpdateCredential(ctx context.Context, exec sqlx.ExtContext, id int64, hash string) error {
	const op = "repository.DeviceRepository.UpdateCredential"

	res, err := exec.ExecContext(ctx, `UPDATE devices SET cred_token_hash = $2 WHERE id = $1`, id, hash)
	if err != nil {
		return storeError(op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return storeError(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, model.ErrDeviceNotFound)
	}
	return nil
}

func (r *DeviceRepository) findOne(ctx context.Context, exec sqlx.ExtContext, op, query string, arg any) (*model.Device, error) {
	var device model.Device
	if err := sqlx.GetContext(ctx, exec, &device, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, model.ErrDeviceNotFound)
		}
		return nil, storeError(op, err)
	}
	return &device, nil
}
