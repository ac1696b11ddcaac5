package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/peerfeedback/internal/app/models"
	"github.com/yigit/peerfeedback/internal/db"
	"github.com/yigit/peerfeedback/internal/pkg/apperrors"
	"github.com/yigit/peerfeedback/internal/pkg/dberrors"
	"github.com/yigit/peerfeedback/internal/pkg/logger"
)

const (
	sessionsTable    = "feedback_sessions"
	respondentsTable = "feedback_session_instructor_respondents"
)

// FeedbackSessionRepository handles feedback sessions and their instructor respondent lists
type FeedbackSessionRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewFeedbackSessionRepository creates a new feedback session repository
func NewFeedbackSessionRepository(database *db.PostgresDB) *FeedbackSessionRepository {
	return &FeedbackSessionRepository{
		db: database,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateFeedbackSession inserts a session without respondents
func (r *FeedbackSessionRepository) CreateFeedbackSession(ctx context.Context, session *models.FeedbackSession) error {
	sql, args, err := r.sb.Insert(sessionsTable).
		Columns("course_id", "name").
		Values(session.CourseID, session.Name).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create session query: %w", err)
	}

	if _, err := r.db.Conn(ctx).Exec(ctx, sql, args...); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "feedback_sessions_pkey") {
			return apperrors.NewAlreadyExistsError(fmt.Sprintf("Feedback session %s already exists in course %s", session.Name, session.CourseID))
		}
		logger.Error().Err(err).Str("courseId", session.CourseID).Msg("Error creating feedback session")
		return fmt.Errorf("error creating feedback session: %w", err)
	}
	return nil
}

// AddInstructorRespondent records that an instructor responded to a session
func (r *FeedbackSessionRepository) AddInstructorRespondent(ctx context.Context, courseID, sessionName, email string) error {
	sql, args, err := r.sb.Insert(respondentsTable).
		Columns("course_id", "feedback_session_name", "email").
		Values(courseID, sessionName, email).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build add respondent query: %w", err)
	}

	if _, err := r.db.Conn(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error adding respondent: %w", err)
	}
	return nil
}

// GetFeedbackSessionsForCourse returns the sessions of a course with their respondent sets
func (r *FeedbackSessionRepository) GetFeedbackSessionsForCourse(ctx context.Context, courseID string) ([]*models.FeedbackSession, error) {
	sql, args, err := r.sb.Select("s.name", "r.email").
		From(sessionsTable + " s").
		LeftJoin(respondentsTable + " r ON r.course_id = s.course_id AND r.feedback_session_name = s.name").
		Where(squirrel.Eq{"s.course_id": courseID}).
		OrderBy("s.name", "r.email").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get sessions query: %w", err)
	}

	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying feedback sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]*models.FeedbackSession, 0)
	var current *models.FeedbackSession
	for rows.Next() {
		var name string
		var email *string
		if err := rows.Scan(&name, &email); err != nil {
			return nil, fmt.Errorf("error scanning feedback session: %w", err)
		}
		if current == nil || current.Name != name {
			current = &models.FeedbackSession{CourseID: courseID, Name: name, InstructorRespondents: map[string]bool{}}
			sessions = append(sessions, current)
		}
		if email != nil {
			current.InstructorRespondents[*email] = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feedback sessions: %w", err)
	}
	return sessions, nil
}

// UpdateInstructorRespondentEmail replaces oldEmail by newEmail in every respondent list of the course
func (r *FeedbackSessionRepository) UpdateInstructorRespondentEmail(ctx context.Context, courseID, oldEmail, newEmail string) error {
	if oldEmail == newEmail {
		return nil
	}

	return r.db.WithTransaction(ctx, func(ctx context.Context) error {
		insertSQL, insertArgs, err := r.renameInsertQuery(courseID, oldEmail, newEmail).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build respondent rename query: %w", err)
		}
		if _, err := r.db.Conn(ctx).Exec(ctx, insertSQL, insertArgs...); err != nil {
			logger.Error().Err(err).Str("courseId", courseID).Msg("Error copying respondent rows")
			return fmt.Errorf("error renaming respondent: %w", err)
		}
		return r.DeleteInstructorRespondent(ctx, courseID, oldEmail)
	})
}

// renameInsertQuery copies the old email's respondent rows under the new email; existing rows win
func (r *FeedbackSessionRepository) renameInsertQuery(courseID, oldEmail, newEmail string) squirrel.InsertBuilder {
	return r.sb.Insert(respondentsTable).
		Columns("course_id", "feedback_session_name", "email").
		Select(r.sb.Select("course_id", "feedback_session_name").
			Column("? AS email", newEmail).
			From(respondentsTable).
			Where(squirrel.Eq{"course_id": courseID, "email": oldEmail})).
		Suffix("ON CONFLICT DO NOTHING")
}

// DeleteInstructorRespondent drops an email from every respondent list of the course
func (r *FeedbackSessionRepository) DeleteInstructorRespondent(ctx context.Context, courseID, email string) error {
	sql, args, err := r.sb.Delete(respondentsTable).
		Where(squirrel.Eq{"course_id": courseID, "email": email}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete respondent query: %w", err)
	}

	if _, err := r.db.Conn(ctx).Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Str("courseId", courseID).Msg("Error deleting respondent rows")
		return fmt.Errorf("error deleting respondent: %w", err)
	}
	return nil
}
