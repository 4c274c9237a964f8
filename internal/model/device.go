package model

import "time"

// Device : a field device owned by a user. It authenticates with its own credential token,
// of which only the SHA-256 digest is stored.
type Device struct {
	ID             int64     `db:"id"`
	DeviceID       string    `db:"device_id"`
	Name           string    `db:"name"`
	OwnerID        int64     `db:"owner_id"`
	Meta           string    `db:"meta"`
	CredentialHash string    `db:"cred_token_hash"`
	CreatedAt      time.Time `db:"created_at"`
}

// ProvisionedDevice : a device together with a freshly issued credential token.
// The token is returned once and cannot be recovered afterwards.
type ProvisionedDevice struct {
	Device    *Device
	CredToken string
}
