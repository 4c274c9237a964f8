package repository

import (
	"context"

	"agromind-server/config"
	"agromind-server/internal/model"

	"github.com/jmoiron/sqlx"
)

type FeedbackRepository struct {
	*config.Database
}

func NewFeedbackRepository(database *config.Database) *FeedbackRepository {
	return &FeedbackRepository{database}
}

// Create : stores feedback and fills in its id and created_at
func (r *FeedbackRepository) Create(ctx context.Context, exec sqlx.ExtContext, feedback *model.Feedback) error {
	const op = "repository.FeedbackRepository.Create"

	query := `
	INSERT INTO feedback (user_id, message, prediction_result, attachment_key)
	VALUES ($1, $2, $3, $4)
	RETURNING id, created_at
	`

	err := exec.QueryRowxContext(ctx, query,
		feedback.UserID,
		feedback.Message,
		feedback.PredictionResult,
		feedback.AttachmentKey,
	).Scan(&feedback.ID, &feedback.CreatedAt)
	if err != nil {
		return storeError(op, err)
	}
	return nil
}

// ListByUser : newest first
func (r *FeedbackRepository) ListByUser(ctx context.Context, exec sqlx.ExtContext, userID int64, limit int) ([]model.Feedback, error) {
	const op = "repository.FeedbackRepository.ListByUser"

	query := `
	SELECT id, user_id, message, prediction_result, attachment_key, created_at
	FROM feedback
	WHERE user_id = $1
	ORDER BY created_at DESC, id DESC
	LIMIT $2
	`

	feedback := []model.Feedback{}
	if err := sqlx.SelectContext(ctx, exec, &feedback, query, userID, limit); err != nil {
		return nil, storeError(op, err)
	}
	return feedback, nil
}

// AttachmentKeys : object keys of every attachment a user uploaded
func (r *FeedbackRepository) AttachmentKeys(ctx context.Context, exec sqlx.ExtContext, userID int64) ([]string, error) {
	const op = "repository.FeedbackRepository.AttachmentKeys"

	query := `SELECT attachment_key FROM feedback WHERE user_id = $1 AND attachment_key IS NOT NULL`

	var keys []string
	if err := sqlx.SelectContext(ctx, exec, &keys, query, userID); err != nil {
		return nil, storeError(op, err)
	}
	return keys, nil
}
