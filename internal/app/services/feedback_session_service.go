package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/peerfeedback/internal/app/models"
	"github.com/yigit/peerfeedback/internal/pkg/apperrors"
)

// FeedbackSessionService maintains the instructor respondent lists of feedback sessions
type FeedbackSessionService struct {
	sessions RespondentStore
	logger   zerolog.Logger
}

// NewFeedbackSessionService creates a new feedback session service instance
func NewFeedbackSessionService(sessions RespondentStore, logger zerolog.Logger) *FeedbackSessionService {
	return &FeedbackSessionService{
		sessions: sessions,
		logger:   logger,
	}
}

// CreateFeedbackSession stores an empty session
func (s *FeedbackSessionService) CreateFeedbackSession(ctx context.Context, session *models.FeedbackSession) error {
	if session == nil || strings.TrimSpace(session.Name) == "" || session.CourseID == "" {
		return apperrors.NewValidationError([]string{"A feedback session needs a course and a name."})
	}
	return s.sessions.CreateFeedbackSession(ctx, session)
}

// AddInstructorRespondent marks email as having responded to the session
func (s *FeedbackSessionService) AddInstructorRespondent(ctx context.Context, courseID, sessionName, email string) error {
	return s.sessions.AddInstructorRespondent(ctx, courseID, sessionName, email)
}

// GetFeedbackSessionsForCourse returns the sessions of a course with their respondents
func (s *FeedbackSessionService) GetFeedbackSessionsForCourse(ctx context.Context, courseID string) ([]*models.FeedbackSession, error) {
	sessions, err := s.sessions.GetFeedbackSessionsForCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("error getting feedback sessions: %w", err)
	}
	return sessions, nil
}

// UpdateRespondentsForInstructor rekeys every respondent entry of the course from oldEmail to newEmail
func (s *FeedbackSessionService) UpdateRespondentsForInstructor(ctx context.Context, oldEmail, newEmail, courseID string) error {
	if oldEmail == newEmail {
		return nil
	}
	if err := s.sessions.UpdateInstructorRespondentEmail(ctx, courseID, oldEmail, newEmail); err != nil {
		return fmt.Errorf("error updating respondents: %w", err)
	}
	s.logger.Debug().Str("courseId", courseID).Str("oldEmail", oldEmail).Str("newEmail", newEmail).Msg("Updated instructor respondents")
	return nil
}

// DeleteInstructorFromRespondentsList drops the instructor from the respondent lists of its course.
// A nil instructor is a no-op.
func (s *FeedbackSessionService) DeleteInstructorFromRespondentsList(ctx context.Context, instructor *models.Instructor) error {
	if instructor == nil {
		return nil
	}
	if err := s.sessions.DeleteInstructorRespondent(ctx, instructor.CourseID, instructor.Email); err != nil {
		return fmt.Errorf("error removing respondent: %w", err)
	}
	return nil
}
