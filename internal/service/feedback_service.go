package service

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"agromind-server/internal/model"
	"agromind-server/internal/ports"
	"agromind-server/internal/util"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const feedbackListLimit = 100

type FeedbackService struct {
	db         sqlx.ExtContext
	repo       ports.FeedbackRepository
	storage    ports.AttachmentStorage
	presignTTL time.Duration
	log        *slog.Logger
}

// NewFeedbackService : storage may be nil when attachments are disabled
func NewFeedbackService(
	db sqlx.ExtContext,
	repo ports.FeedbackRepository,
	storage ports.AttachmentStorage,
	presignTTL time.Duration,
	log *slog.Logger,
) *FeedbackService {
	return &FeedbackService{
		db:         db,
		repo:       repo,
		storage:    storage,
		presignTTL: presignTTL,
		log:        log,
	}
}

// Submit stores feedback of userID. With a filename it also reserves an object key and
// returns a presigned upload URL for it.
func (s *FeedbackService) Submit(
	ctx context.Context,
	userID int64,
	message string,
	predictionResult *string,
	attachmentFilename string,
) (*model.CreatedFeedback, error) {
	const op = "service.FeedbackService.Submit"

	log := s.log.With(slog.String("op", op), slog.Int64("user_id", userID))

	feedback := &model.Feedback{
		UserID:           userID,
		Message:          message,
		PredictionResult: predictionResult,
	}

	if attachmentFilename != "" {
		if s.storage == nil {
			return nil, fmt.Errorf("%s: %w: attachments are disabled", op, model.ErrValidation)
		}
		key := attachmentKey(userID, attachmentFilename)
		feedback.AttachmentKey = &key
	}

	if err := s.repo.Create(ctx, s.db, feedback); err != nil {
		log.Error("failed to save feedback", util.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	created := &model.CreatedFeedback{ID: feedback.ID}

	if feedback.AttachmentKey != nil {
		url, err := s.storage.GeneratePresignedPutURL(ctx, *feedback.AttachmentKey, s.presignTTL)
		if err != nil {
			log.Error("failed to presign upload", util.Err(err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		created.UploadURL = url
	}

	log.Info("feedback saved", slog.Int64("feedback_id", feedback.ID))
	return created, nil
}

// List returns the feedback of userID, newest first.
func (s *FeedbackService) List(ctx context.Context, userID int64) ([]model.FeedbackView, error) {
	const op = "service.FeedbackService.List"

	items, err := s.repo.ListByUser(ctx, s.db, userID, feedbackListLimit)
	if err != nil {
		s.log.Error("failed to list feedback", slog.String("op", op), util.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	views := make([]model.FeedbackView, 0, len(items))
	for _, item := range items {
		view := model.FeedbackView{Feedback: item}
		if item.AttachmentKey != nil && s.storage != nil {
			url, err := s.storage.GeneratePresignedGetURL(ctx, *item.AttachmentKey, s.presignTTL)
			if err != nil {
				s.log.Warn("failed to presign download", slog.String("op", op), util.Err(err))
			} else {
				view.AttachmentURL = url
			}
		}
		views = append(views, view)
	}

	return views, nil
}

// attachmentKey : feedback/<user>/<uuid><ext>, the client filename only contributes its extension
func attachmentKey(userID int64, filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(filename)))
	if len(ext) > 10 {
		ext = ""
	}
	return fmt.Sprintf("feedback/%d/%s%s", userID, uuid.NewString(), ext)
}
