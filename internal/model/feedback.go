package model

import "time"

type Feedback struct {
	ID               int64     `db:"id" json:"id"`
	UserID           int64     `db:"user_id" json:"user_id"`
	Message          string    `db:"message" json:"message"`
	PredictionResult *string   `db:"prediction_result" json:"prediction_result,omitempty"`
	AttachmentKey    *string   `db:"attachment_key" json:"-"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// FeedbackView : feedback as it is shown to clients, with a short-lived download link
type FeedbackView struct {
	Feedback
	AttachmentURL string `json:"attachment_url,omitempty"`
}

// CreatedFeedback : result of a submission; UploadURL is a presigned PUT for the attachment
type CreatedFeedback struct {
	ID        int64
	UploadURL string
}
