package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/peerfeedback/internal/app/models"
	"github.com/yigit/peerfeedback/internal/db"
	"github.com/yigit/peerfeedback/internal/pkg/logger"
)

const commentsTable = "feedback_response_comments"

// FeedbackCommentRepository handles feedback response comments
type FeedbackCommentRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewFeedbackCommentRepository creates a new feedback comment repository
func NewFeedbackCommentRepository(database *db.PostgresDB) *FeedbackCommentRepository {
	return &FeedbackCommentRepository{
		db: database,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateComment inserts a comment and fills its id and creation time
func (r *FeedbackCommentRepository) CreateComment(ctx context.Context, comment *models.FeedbackResponseComment) error {
	sql, args, err := r.sb.Insert(commentsTable).
		Columns("course_id", "feedback_session_name", "comment_text", "giver_email", "last_editor_email").
		Values(comment.CourseID, comment.FeedbackSessionName, comment.CommentText, comment.GiverEmail, comment.LastEditorEmail).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create comment query: %w", err)
	}

	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&comment.ID, &comment.CreatedAt); err != nil {
		logger.Error().Err(err).Str("courseId", comment.CourseID).Msg("Error creating comment")
		return fmt.Errorf("error creating comment: %w", err)
	}
	return nil
}

// GetCommentsForCourse returns the comments of a course, oldest first
func (r *FeedbackCommentRepository) GetCommentsForCourse(ctx context.Context, courseID string) ([]*models.FeedbackResponseComment, error) {
	sql, args, err := r.sb.Select("id", "course_id", "feedback_session_name", "comment_text", "giver_email", "last_editor_email", "created_at").
		From(commentsTable).
		Where(squirrel.Eq{"course_id": courseID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get comments query: %w", err)
	}

	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying comments: %w", err)
	}
	defer rows.Close()

	comments := make([]*models.FeedbackResponseComment, 0)
	for rows.Next() {
		var c models.FeedbackResponseComment
		if err := rows.Scan(&c.ID, &c.CourseID, &c.FeedbackSessionName, &c.CommentText, &c.GiverEmail, &c.LastEditorEmail, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning comment: %w", err)
		}
		comments = append(comments, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}
	return comments, nil
}

// UpdateCommentAuthorEmails rewrites giver and last editor emails within a course
func (r *FeedbackCommentRepository) UpdateCommentAuthorEmails(ctx context.Context, courseID, oldEmail, newEmail string) error {
	if oldEmail == newEmail {
		return nil
	}

	for _, column := range []string{"giver_email", "last_editor_email"} {
		sql, args, err := r.sb.Update(commentsTable).
			Set(column, newEmail).
			Where(squirrel.Eq{"course_id": courseID, column: oldEmail}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build update comment emails query: %w", err)
		}

		if _, err := r.db.Conn(ctx).Exec(ctx, sql, args...); err != nil {
			logger.Error().Err(err).Str("courseId", courseID).Str("column", column).Msg("Error updating comment emails")
			return fmt.Errorf("error updating comment emails: %w", err)
		}
	}
	return nil
}
