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
	"github.com/yigit/peerfeedback/internal/pkg/helpers"
	"github.com/yigit/peerfeedback/internal/pkg/logger"
)

const instructorsTable = "instructors"

var instructorColumns = []string{
	"id", "course_id", "email", "google_id", "name", "registration_key",
	"role", "display_name", "is_displayed_to_students", "is_archived", "privileges",
}

// InstructorRepository handles instructor database operations
type InstructorRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewInstructorRepository creates a new InstructorRepository
func NewInstructorRepository(database *db.PostgresDB) *InstructorRepository {
	return &InstructorRepository{
		db: database,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *InstructorRepository) selectInstructors() squirrel.SelectBuilder {
	return r.sb.Select(instructorColumns...).From(instructorsTable)
}

func scanInstructor(row pgx.Row) (*models.Instructor, error) {
	var instructor models.Instructor
	var googleID *string
	err := row.Scan(
		&instructor.ID,
		&instructor.CourseID,
		&instructor.Email,
		&googleID,
		&instructor.Name,
		&instructor.Key,
		&instructor.Role,
		&instructor.DisplayedName,
		&instructor.IsDisplayedToStudents,
		&instructor.IsArchived,
		&instructor.Privileges,
	)
	if err != nil {
		return nil, err
	}
	if googleID != nil {
		instructor.GoogleID = *googleID
	}
	return &instructor, nil
}

// getOne returns nil, nil when no row matches
func (r *InstructorRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.Instructor, error) {
	sql, args, err := r.selectInstructors().Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get instructor query: %w", err)
	}

	instructor, err := scanInstructor(r.db.Conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		logger.Error().Err(err).Msg("Error scanning instructor row")
		return nil, fmt.Errorf("error retrieving instructor: %w", err)
	}
	return instructor, nil
}

func (r *InstructorRepository) getMany(ctx context.Context, query squirrel.SelectBuilder) ([]*models.Instructor, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get instructors query: %w", err)
	}

	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing get instructors query")
		return nil, fmt.Errorf("error querying instructors: %w", err)
	}
	defer rows.Close()

	instructors := make([]*models.Instructor, 0)
	for rows.Next() {
		instructor, err := scanInstructor(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning instructor: %w", err)
		}
		instructors = append(instructors, instructor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating instructors: %w", err)
	}
	return instructors, nil
}

// CreateInstructor inserts a new instructor and returns the stored record
func (r *InstructorRepository) CreateInstructor(ctx context.Context, instructor *models.Instructor) (*models.Instructor, error) {
	if msgs := instructor.InvalidityInfo(); len(msgs) > 0 {
		return nil, apperrors.NewValidationError(msgs)
	}

	sql, args, err := r.sb.Insert(instructorsTable).
		Columns(instructorColumns[1:]...).
		Values(
			instructor.CourseID,
			instructor.Email,
			helpers.GetContentNullString(instructor.GoogleID),
			instructor.Name,
			instructor.Key,
			instructor.Role,
			instructor.DisplayedName,
			instructor.IsDisplayedToStudents,
			instructor.IsArchived,
			instructor.Privileges,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build create instructor query: %w", err)
	}

	stored := instructor.Clone()
	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&stored.ID); err != nil {
		if dberrors.IsUniqueViolation(err) {
			logger.Warn().Str("courseId", instructor.CourseID).Str("email", instructor.Email).Msg("Attempted to create duplicate instructor")
			return nil, apperrors.NewAlreadyExistsError(fmt.Sprintf("Instructor %s already exists in course %s", instructor.Email, instructor.CourseID))
		}
		logger.Error().Err(err).Str("courseId", instructor.CourseID).Msg("Error executing create instructor query")
		return nil, fmt.Errorf("error creating instructor: %w", err)
	}
	return stored, nil
}

// GetInstructorForEmail returns nil when absent
func (r *InstructorRepository) GetInstructorForEmail(ctx context.Context, courseID, email string) (*models.Instructor, error) {
	return r.getOne(ctx, squirrel.Eq{"course_id": courseID, "email": email})
}

// GetInstructorForGoogleID returns nil when absent
func (r *InstructorRepository) GetInstructorForGoogleID(ctx context.Context, courseID, googleID string) (*models.Instructor, error) {
	if googleID == "" {
		return nil, nil
	}
	return r.getOne(ctx, squirrel.Eq{"course_id": courseID, "google_id": googleID})
}

// GetInstructorForRegistrationKey returns nil when absent
func (r *InstructorRepository) GetInstructorForRegistrationKey(ctx context.Context, key string) (*models.Instructor, error) {
	return r.getOne(ctx, squirrel.Eq{"registration_key": key})
}

// GetInstructorsForCourse returns the course's instructors in stored order
func (r *InstructorRepository) GetInstructorsForCourse(ctx context.Context, courseID string) ([]*models.Instructor, error) {
	return r.getMany(ctx, r.selectInstructors().Where(squirrel.Eq{"course_id": courseID}).OrderBy("id"))
}

// GetInstructorsForGoogleID returns every instructor row of an account
func (r *InstructorRepository) GetInstructorsForGoogleID(ctx context.Context, googleID string, omitArchived bool) ([]*models.Instructor, error) {
	return r.getMany(ctx, r.forGoogleIDQuery(googleID, omitArchived))
}

func (r *InstructorRepository) forGoogleIDQuery(googleID string, omitArchived bool) squirrel.SelectBuilder {
	where := squirrel.And{squirrel.Eq{"google_id": googleID}}
	if omitArchived {
		where = append(where, squirrel.Eq{"is_archived": false})
	}
	return r.selectInstructors().Where(where).OrderBy("id")
}

// GetInstructorsDisplayedToStudents returns the course's displayed instructors
func (r *InstructorRepository) GetInstructorsDisplayedToStudents(ctx context.Context, courseID string) ([]*models.Instructor, error) {
	return r.getMany(ctx, r.selectInstructors().
		Where(squirrel.Eq{"course_id": courseID, "is_displayed_to_students": true}).
		OrderBy("id"))
}

// SearchInstructors matches query case-insensitively against name, email, course id and google id
func (r *InstructorRepository) SearchInstructors(ctx context.Context, query string, limit int) ([]*models.Instructor, error) {
	return r.getMany(ctx, r.searchQuery(query, limit))
}

func (r *InstructorRepository) searchQuery(query string, limit int) squirrel.SelectBuilder {
	pattern := "%" + helpers.EscapeLike(query) + "%"
	return r.selectInstructors().
		Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"email": pattern},
			squirrel.ILike{"course_id": pattern},
			squirrel.ILike{"google_id": pattern},
		}).
		OrderBy("course_id", "name", "id").
		Limit(uint64(limit))
}

// UpdateInstructorByGoogleID rewrites the mutable fields, including email, of the row keyed by (course, google id)
func (r *InstructorRepository) UpdateInstructorByGoogleID(ctx context.Context, instructor *models.Instructor) error {
	if msgs := instructor.InvalidityInfo(); len(msgs) > 0 {
		return apperrors.NewValidationError(msgs)
	}

	query := r.sb.Update(instructorsTable).
		Set("email", instructor.Email).
		Where(squirrel.Eq{"course_id": instructor.CourseID, "google_id": instructor.GoogleID})
	return r.execUpdate(ctx, instructor, r.setMutable(query, instructor))
}

// UpdateInstructorByEmail rewrites the mutable fields, including google id, of the row keyed by (course, email)
func (r *InstructorRepository) UpdateInstructorByEmail(ctx context.Context, instructor *models.Instructor) error {
	if msgs := instructor.InvalidityInfo(); len(msgs) > 0 {
		return apperrors.NewValidationError(msgs)
	}

	query := r.sb.Update(instructorsTable).
		Set("google_id", helpers.GetContentNullString(instructor.GoogleID)).
		Where(squirrel.Eq{"course_id": instructor.CourseID, "email": instructor.Email})
	return r.execUpdate(ctx, instructor, r.setMutable(query, instructor))
}

func (r *InstructorRepository) setMutable(query squirrel.UpdateBuilder, instructor *models.Instructor) squirrel.UpdateBuilder {
	return query.
		Set("name", instructor.Name).
		Set("role", instructor.Role).
		Set("display_name", instructor.DisplayedName).
		Set("is_displayed_to_students", instructor.IsDisplayedToStudents).
		Set("is_archived", instructor.IsArchived).
		Set("privileges", instructor.Privileges)
}

func (r *InstructorRepository) execUpdate(ctx context.Context, instructor *models.Instructor, query squirrel.UpdateBuilder) error {
	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update instructor query: %w", err)
	}

	cmdTag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return apperrors.NewAlreadyExistsError(fmt.Sprintf("Another instructor of course %s already uses these details", instructor.CourseID))
		}
		logger.Error().Err(err).Str("courseId", instructor.CourseID).Msg("Error executing update instructor query")
		return fmt.Errorf("error updating instructor: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError(fmt.Sprintf("Instructor %s does not belong to course %s", instructor.Email, instructor.CourseID))
	}
	return nil
}

// DeleteInstructor removes one instructor; deleting an absent one is a no-op
func (r *InstructorRepository) DeleteInstructor(ctx context.Context, courseID, email string) error {
	sql, args, err := r.sb.Delete(instructorsTable).
		Where(squirrel.Eq{"course_id": courseID, "email": email}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete instructor query: %w", err)
	}

	if _, err := r.db.Conn(ctx).Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Str("courseId", courseID).Str("email", email).Msg("Error deleting instructor")
		return fmt.Errorf("error deleting instructor: %w", err)
	}
	return nil
}

// DeleteInstructorsForCourse removes every instructor of a course
func (r *InstructorRepository) DeleteInstructorsForCourse(ctx context.Context, courseID string) error {
	sql, args, err := r.sb.Delete(instructorsTable).
		Where(squirrel.Eq{"course_id": courseID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete instructors query: %w", err)
	}

	cmdTag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("courseId", courseID).Msg("Error deleting instructors of course")
		return fmt.Errorf("error deleting instructors: %w", err)
	}
	logger.Info().Str("courseId", courseID).Int64("count", cmdTag.RowsAffected()).Msg("Deleted instructors of course")
	return nil
}
