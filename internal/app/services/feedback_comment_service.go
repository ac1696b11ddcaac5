package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/peerfeedback/internal/app/models"
	"github.com/yigit/peerfeedback/internal/pkg/apperrors"
)

// FeedbackCommentService handles feedback response comments
type FeedbackCommentService struct {
	comments CommentStore
	logger   zerolog.Logger
}

// NewFeedbackCommentService creates a new feedback comment service instance
func NewFeedbackCommentService(comments CommentStore, logger zerolog.Logger) *FeedbackCommentService {
	return &FeedbackCommentService{
		comments: comments,
		logger:   logger,
	}
}

// CreateComment stores a comment; the last editor defaults to the giver
func (s *FeedbackCommentService) CreateComment(ctx context.Context, comment *models.FeedbackResponseComment) error {
	if comment == nil || comment.CourseID == "" || comment.GiverEmail == "" {
		return apperrors.NewValidationError([]string{"A comment needs a course and a giver."})
	}
	if comment.LastEditorEmail == "" {
		comment.LastEditorEmail = comment.GiverEmail
	}
	return s.comments.CreateComment(ctx, comment)
}

// GetCommentsForCourse returns the comments of a course
func (s *FeedbackCommentService) GetCommentsForCourse(ctx context.Context, courseID string) ([]*models.FeedbackResponseComment, error) {
	comments, err := s.comments.GetCommentsForCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("error getting comments: %w", err)
	}
	return comments, nil
}

// UpdateFeedbackResponseCommentsEmails rewrites giver and last editor emails of the course's comments
func (s *FeedbackCommentService) UpdateFeedbackResponseCommentsEmails(ctx context.Context, courseID, oldEmail, newEmail string) error {
	if oldEmail == newEmail {
		return nil
	}
	if err := s.comments.UpdateCommentAuthorEmails(ctx, courseID, oldEmail, newEmail); err != nil {
		return fmt.Errorf("error updating comment emails: %w", err)
	}
	s.logger.Debug().Str("courseId", courseID).Str("oldEmail", oldEmail).Str("newEmail", newEmail).Msg("Updated comment author emails")
	return nil
}
