package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yigit/peerfeedback/internal/app/models"
	"github.com/yigit/peerfeedback/internal/pkg/apperrors"
	"github.com/yigit/peerfeedback/internal/pkg/validation"
)

// CourseService handles course-related operations
type CourseService struct {
	courses CourseStore
}

// NewCourseService creates a new course service instance
func NewCourseService(courses CourseStore) *CourseService {
	return &CourseService{courses: courses}
}

// CreateCourse validates and stores a course
func (s *CourseService) CreateCourse(ctx context.Context, course *models.Course) error {
	if course == nil {
		return apperrors.NewValidationError([]string{"Course is required."})
	}

	fv := validation.Default()
	var msgs []string
	if msg := fv.InvalidityInfoForCourseID(course.ID); msg != "" {
		msgs = append(msgs, msg)
	}
	if strings.TrimSpace(course.Name) == "" {
		msgs = append(msgs, "The course name cannot be empty.")
	}
	if len(msgs) > 0 {
		return apperrors.NewValidationError(msgs)
	}
	if course.TimeZone == "" {
		course.TimeZone = "UTC"
	}

	return s.courses.CreateCourse(ctx, course)
}

// GetCourse returns nil when the course does not exist
func (s *CourseService) GetCourse(ctx context.Context, courseID string) (*models.Course, error) {
	course, err := s.courses.GetCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("error getting course: %w", err)
	}
	return course, nil
}

// CourseExists reports whether the course is stored
func (s *CourseService) CourseExists(ctx context.Context, courseID string) (bool, error) {
	course, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return false, err
	}
	return course != nil, nil
}

// VerifyCourseIsPresent fails with a not-found error when the course is missing
func (s *CourseService) VerifyCourseIsPresent(ctx context.Context, courseID string) error {
	exists, err := s.CourseExists(ctx, courseID)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.NewResourceNotFoundError(fmt.Sprintf("Course does not exist: %s", courseID))
	}
	return nil
}

// IsSampleCourse reports whether the course was generated for onboarding
func (s *CourseService) IsSampleCourse(courseID string) bool {
	return models.IsSampleCourseID(courseID)
}
