package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/peerfeedback/internal/app/models"
	"github.com/yigit/peerfeedback/internal/db"
	"github.com/yigit/peerfeedback/internal/pkg/apperrors"
	"github.com/yigit/peerfeedback/internal/pkg/dberrors"
	"github.com/yigit/peerfeedback/internal/pkg/logger"
)

// CourseRepository handles database operations for courses
type CourseRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(database *db.PostgresDB) *CourseRepository {
	return &CourseRepository{
		db: database,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateCourse inserts a course
func (r *CourseRepository) CreateCourse(ctx context.Context, course *models.Course) error {
	sql, args, err := r.sb.Insert("courses").
		Columns("id", "name", "time_zone").
		Values(course.ID, course.Name, course.TimeZone).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create course query: %w", err)
	}

	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&course.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "courses_pkey") {
			return apperrors.NewAlreadyExistsError(fmt.Sprintf("Course %s already exists", course.ID))
		}
		logger.Error().Err(err).Str("courseId", course.ID).Msg("Error creating course")
		return fmt.Errorf("error creating course: %w", err)
	}
	return nil
}

// GetCourse returns nil when absent
func (r *CourseRepository) GetCourse(ctx context.Context, courseID string) (*models.Course, error) {
	sql, args, err := r.sb.Select("id", "name", "time_zone", "created_at").
		From("courses").
		Where(squirrel.Eq{"id": courseID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get course query: %w", err)
	}

	var course models.Course
	err = r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&course.ID, &course.Name, &course.TimeZone, &course.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving course: %w", err)
	}
	return &course, nil
}
