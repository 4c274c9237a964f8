package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"agromind-server/internal/model"
	"agromind-server/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var deviceRowColumns = []string{"id", "device_id", "name", "owner_id", "meta", "cred_token_hash", "created_at"}

func TestDeviceRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewDeviceRepository(db)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO devices (.+) \$4::jsonb`).
		WithArgs("sensor-1", "Field A", int64(1), `{"zone":"north"}`, "digest").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(3, now))

	device := &model.Device{DeviceID: "sensor-1", Name: "Field A", OwnerID: 1, Meta: `{"zone":"north"}`, CredentialHash: "digest"}
	require.NoError(t, repo.Create(context.Background(), db, device))

	assert.Equal(t, int64(3), device.ID)
	assert.True(t, now.Equal(device.CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepository_CreateDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewDeviceRepository(db)

	mock.ExpectQuery(`INSERT INTO devices`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "devices_device_id_key"})

	err := repo.Create(context.Background(), db, &model.Device{DeviceID: "sensor-1", Meta: "{}"})
	assert.ErrorIs(t, err, model.ErrDeviceExists)
	assert.NotErrorIs(t, err, model.ErrStoreUnavailable)
}

func TestDeviceRepository_FindByDeviceID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewDeviceRepository(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+)meta::text AS meta(.+) FROM devices WHERE device_id = \$1`).
		WithArgs("sensor-1").
		WillReturnRows(sqlmock.NewRows(deviceRowColumns).AddRow(3, "sensor-1", "Field A", 1, "{}", "digest", now))
	mock.ExpectQuery(`FROM devices WHERE device_id = \$1`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(deviceRowColumns))

	device, err := repo.FindByDeviceID(context.Background(), db, "sensor-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), device.OwnerID)
	assert.Equal(t, "{}", device.Meta)

	_, err = repo.FindByDeviceID(context.Background(), db, "ghost")
	assert.ErrorIs(t, err, model.ErrDeviceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepository_FindByCredentialHash(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewDeviceRepository(db)

	mock.ExpectQuery(`FROM devices WHERE cred_token_hash = \$1`).
		WithArgs("digest").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.FindByCredentialHash(context.Background(), db, "digest")
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, model.ErrDeviceNotFound)
}

func TestDeviceRepository_UpdateCredential(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewDeviceRepository(db)

	mock.ExpectExec(`UPDATE devices SET cred_token_hash = \$2 WHERE id = \$1`).
		WithArgs(int64(3), "new-digest").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE devices`).
		WithArgs(int64(9), "new-digest").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdateCredential(context.Background(), db, 3, "new-digest"))

	err := repo.UpdateCredential(context.Background(), db, 9, "new-digest")
	assert.ErrorIs(t, err, model.ErrDeviceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
