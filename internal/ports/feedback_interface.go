package ports

import (
	"context"

	"agromind-server/internal/model"

	"github.com/jmoiron/sqlx"
)

// FeedbackRepository : SQL layer
type FeedbackRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, feedback *model.Feedback) error
	ListByUser(ctx context.Context, exec sqlx.ExtContext, userID int64, limit int) ([]model.Feedback, error)
	AttachmentKeys(ctx context.Context, exec sqlx.ExtContext, userID int64) ([]string, error)
}

type FeedbackService interface {
	Submit(ctx context.Context, userID int64, message string, predictionResult *string, attachmentFilename string) (*model.CreatedFeedback, error)
	List(ctx context.Context, userID int64) ([]model.FeedbackView, error)
}
