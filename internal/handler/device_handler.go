package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"agromind-server/internal/model"
	"agromind-server/internal/model/requestresponse"
	"agromind-server/internal/ports"

	"github.com/go-chi/chi/v5"
)

// DeviceTokenHeader carries the device credential on device-authenticated requests.
const DeviceTokenHeader = "X-Device-Token"

type DeviceHandler struct {
	ports.DeviceService
	log *slog.Logger
}

func NewDeviceHandler(deviceService ports.DeviceService, log *slog.Logger) *DeviceHandler {
	return &DeviceHandler{
		DeviceService: deviceService,
		log:           log,
	}
}

// RegisterDevice godoc
// @Summary Register a device
// @Description Registers a device owned by the current user and returns its credential token. The token is shown only once.
// @Tags Devices
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body requestresponse.RegisterDeviceRequest true "Request body"
// @Success 201 {object} requestresponse.DeviceResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 409 {object} requestresponse.ErrorResponse
// @Router /devices/register [post]
func (h *DeviceHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req requestresponse.RegisterDeviceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	provisioned, err := h.DeviceService.Register(r.Context(), user.ID, req.DeviceID, req.Name, string(req.Meta))
	if err != nil {
		sendServiceError(w, r, h.log, err)
		return
	}

	resp := deviceResponse(provisioned.Device)
	resp.CredToken = provisioned.CredToken
	sendJSON(w, r, http.StatusCreated, resp)
}

// ProvisionDevice godoc
// @Summary Rotate a device credential
// @Description Issues a new credential token for a device of the current user. The previous token stops working.
// @Tags Devices
// @Produce json
// @Security ApiKeyAuth
// @Param device_id path string true "Device ID"
// @Success 200 {object} requestresponse.DeviceCredentialResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Router /devices/provision/{device_id} [post]
func (h *DeviceHandler) ProvisionDevice(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	provisioned, err := h.DeviceService.Provision(r.Context(), user.ID, chi.URLParam(r, "device_id"))
	if err != nil {
		sendServiceError(w, r, h.log, err)
		return
	}

	sendJSON(w, r, http.StatusOK, requestresponse.DeviceCredentialResponse{
		DeviceID:  provisioned.Device.DeviceID,
		CredToken: provisioned.CredToken,
	})
}

// DeviceMe godoc
// @Summary Current device
// @Description Resolves the device owning the credential in the X-Device-Token header.
// @Tags Devices
// @Produce json
// @Param X-Device-Token header string true "Device credential token"
// @Success 200 {object} requestresponse.DeviceResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Router /devices/me [get]
func (h *DeviceHandler) DeviceMe(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(DeviceTokenHeader)
	if token == "" {
		sendErrorResponse(w, http.StatusUnauthorized, "missing device token")
		return
	}

	device, err := h.DeviceService.Authenticate(r.Context(), token)
	if err != nil {
		if errors.Is(err, model.ErrUnauthenticated) {
			sendErrorResponse(w, http.StatusUnauthorized, "invalid device token")
			return
		}
		sendServiceError(w, r, h.log, err)
		return
	}

	sendJSON(w, r, http.StatusOK, deviceResponse(device))
}

func deviceResponse(d *model.Device) requestresponse.DeviceResponse {
	meta := d.Meta
	if meta == "" {
		meta = "{}"
	}
	return requestresponse.DeviceResponse{
		ID:        d.ID,
		DeviceID:  d.DeviceID,
		Name:      d.Name,
		OwnerID:   d.OwnerID,
		Meta:      json.RawMessage(meta),
		CreatedAt: d.CreatedAt,
	}
}
