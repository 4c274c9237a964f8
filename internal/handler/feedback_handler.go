package handler

import (
	"log/slog"
	"net/http"

	"agromind-server/internal/model/requestresponse"
	"agromind-server/internal/ports"
)

type FeedbackHandler struct {
	ports.FeedbackService
	log *slog.Logger
}

func NewFeedbackHandler(feedbackService ports.FeedbackService, log *slog.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		FeedbackService: feedbackService,
		log:             log,
	}
}

// SubmitFeedback godoc
// @Summary Submit feedback on a prediction
// @Description Stores feedback of the current user. When attachment_filename is set the response carries a presigned URL to PUT the file to.
// @Tags Feedback
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body requestresponse.FeedbackRequest true "Request body"
// @Success 201 {object} requestresponse.FeedbackCreatedResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Router /feedback [post]
func (h *FeedbackHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req requestresponse.FeedbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.FeedbackService.Submit(r.Context(), user.ID, req.Message, req.PredictionResult, req.AttachmentFilename)
	if err != nil {
		sendServiceError(w, r, h.log, err)
		return
	}

	sendJSON(w, r, http.StatusCreated, requestresponse.FeedbackCreatedResponse{
		Message:    "Feedback submitted successfully",
		FeedbackID: created.ID,
		UploadURL:  created.UploadURL,
	})
}

// ListFeedback godoc
// @Summary List own feedback
// @Tags Feedback
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} requestresponse.FeedbackListResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Router /feedback [get]
func (h *FeedbackHandler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	items, err := h.FeedbackService.List(r.Context(), user.ID)
	if err != nil {
		sendServiceError(w, r, h.log, err)
		return
	}

	sendJSON(w, r, http.StatusOK, requestresponse.FeedbackListResponse{Feedback: items})
}
