package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"agromind-server/internal/model"
	"agromind-server/internal/ports"
	"agromind-server/internal/security"
	"agromind-server/internal/util"

	"github.com/jmoiron/sqlx"
)

type DeviceService struct {
	db   sqlx.ExtContext
	repo ports.DeviceRepository
	log  *slog.Logger
}

func NewDeviceService(db sqlx.ExtContext, repo ports.DeviceRepository, log *slog.Logger) *DeviceService {
	return &DeviceService{
		db:   db,
		repo: repo,
		log:  log,
	}
}

// Register creates a device owned by ownerID and issues its first credential token.
// meta must be a JSON object; empty or null is stored as {}.
func (s *DeviceService) Register(ctx context.Context, ownerID int64, deviceID, name, meta string) (*model.ProvisionedDevice, error) {
	const op = "service.DeviceService.Register"

	log := s.log.With(slog.String("op", op), slog.Int64("owner_id", ownerID), slog.String("device_id", deviceID))

	meta, err := normalizeMeta(meta)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	token, hash, err := security.NewDeviceCredential()
	if err != nil {
		log.Error("failed to generate device credential", util.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	device := &model.Device{
		DeviceID:       deviceID,
		Name:           name,
		OwnerID:        ownerID,
		Meta:           meta,
		CredentialHash: hash,
	}
	if err := s.repo.Create(ctx, s.db, device); err != nil {
		if errors.Is(err, model.ErrDeviceExists) {
			log.Info("device already registered")
		} else {
			log.Error("failed to register device", util.Err(err))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("device registered", slog.Int64("id", device.ID))
	return &model.ProvisionedDevice{Device: device, CredToken: token}, nil
}

// Provision rotates the credential of deviceID. Only the owner may do it and the
// previous token stops authenticating as soon as the new digest is stored.
func (s *DeviceService) Provision(ctx context.Context, actorID int64, deviceID string) (*model.ProvisionedDevice, error) {
	const op = "service.DeviceService.Provision"

	log := s.log.With(slog.String("op", op), slog.Int64("actor_id", actorID), slog.String("device_id", deviceID))

	device, err := s.repo.FindByDeviceID(ctx, s.db, deviceID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if device.OwnerID != actorID {
		log.Warn("provision of foreign device refused", slog.Int64("owner_id", device.OwnerID))
		return nil, fmt.Errorf("%s: %w", op, model.ErrForbidden)
	}

	token, hash, err := security.NewDeviceCredential()
	if err != nil {
		log.Error("failed to generate device credential", util.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.UpdateCredential(ctx, s.db, device.ID, hash); err != nil {
		log.Error("failed to store device credential", util.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	device.CredentialHash = hash

	log.Info("device credential rotated")
	return &model.ProvisionedDevice{Device: device, CredToken: token}, nil
}

// Authenticate resolves a device credential token. Unknown tokens yield model.ErrUnauthenticated.
func (s *DeviceService) Authenticate(ctx context.Context, credToken string) (*model.Device, error) {
	const op = "service.DeviceService.Authenticate"

	if credToken == "" {
		return nil, fmt.Errorf("%s: %w", op, model.ErrUnauthenticated)
	}

	device, err := s.repo.FindByCredentialHash(ctx, s.db, security.HashDeviceCredential(credToken))
	if err != nil {
		if errors.Is(err, model.ErrDeviceNotFound) {
			return nil, fmt.Errorf("%s: %w", op, model.ErrUnauthenticated)
		}
		s.log.Error("failed to look up device credential", slog.String("op", op), util.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return device, nil
}

func normalizeMeta(meta string) (string, error) {
	meta = strings.TrimSpace(meta)
	if meta == "" || meta == "null" {
		return "{}", nil
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(meta), &obj); err != nil {
		return "", fmt.Errorf("%w: meta must be a JSON object", model.ErrValidation)
	}
	return meta, nil
}
