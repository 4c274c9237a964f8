package requestresponse

import "agromind-server/internal/model"

// FeedbackRequest : feedback body. The author is the authenticated user.
type FeedbackRequest struct {
	Message            string  `json:"message" validate:"required,max=500" example:"The disease prediction was wrong"`
	PredictionResult   *string `json:"prediction_result" validate:"omitempty,max=120" example:"leaf_blight"`
	AttachmentFilename string  `json:"attachment_filename" validate:"omitempty,max=255" example:"leaf.jpg"`
}

// FeedbackCreatedResponse : id of the stored feedback and, if requested, where to PUT the attachment
type FeedbackCreatedResponse struct {
	Message    string `json:"message" example:"Feedback submitted successfully"`
	FeedbackID int64  `json:"feedback_id" example:"1"`
	UploadURL  string `json:"upload_url,omitempty"`
}

// FeedbackListResponse : feedback of the current user, newest first
type FeedbackListResponse struct {
	Feedback []model.FeedbackView `json:"feedback"`
}
