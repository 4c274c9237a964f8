package ports

import (
	"context"

	"agromind-server/internal/model"

	"github.com/jmoiron/sqlx"
)

// DeviceRepository : SQL layer
type DeviceRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, device *model.Device) error
	FindByDeviceID(ctx context.Context, exec sqlx.ExtContext, deviceID string) (*model.Device, error)
	FindByCredentialHash(ctx context.Context, exec sqlx.ExtContext, hash string) (*model.Device, error)
	UpdateCredential(ctx context.Context, exec sqlx.ExtContext, id int64, hash string) error
}

type DeviceService interface {
	Register(ctx context.Context, ownerID int64, deviceID, name, meta string) (*model.ProvisionedDevice, error)
	Provision(ctx context.Context, actorID int64, deviceID string) (*model.ProvisionedDevice, error)
	Authenticate(ctx context.Context, credToken string) (*model.Device, error)
}
