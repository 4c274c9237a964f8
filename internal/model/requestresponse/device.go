package requestresponse

import (
	"encoding/json"
	"time"
)

// RegisterDeviceRequest : the owner is the authenticated user
type RegisterDeviceRequest struct {
	DeviceID string          `json:"device_id" validate:"required,max=64" example:"sensor-01"`
	Name     string          `json:"name" validate:"required,max=100" example:"North field sensor"`
	Meta     json.RawMessage `json:"meta,omitempty" swaggertype:"object"`
}

// DeviceResponse : a registered device. cred_token is only present right after it was issued.
type DeviceResponse struct {
	ID        int64           `json:"id" example:"1"`
	DeviceID  string          `json:"device_id" example:"sensor-01"`
	Name      string          `json:"name" example:"North field sensor"`
	OwnerID   int64           `json:"owner_id" example:"1"`
	Meta      json.RawMessage `json:"meta" swaggertype:"object"`
	CreatedAt time.Time       `json:"created_at"`
	CredToken string          `json:"cred_token,omitempty"`
}

// DeviceCredentialResponse : a freshly rotated device credential
type DeviceCredentialResponse struct {
	DeviceID  string `json:"device_id" example:"sensor-01"`
	CredToken string `json:"cred_token"`
}
