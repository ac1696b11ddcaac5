package repositories

import (
	"github.com/yigit/peerfeedback/internal/db"
)

// Repositories holds all the repository instances
type Repositories struct {
	InstructorRepository      *InstructorRepository
	CourseRepository          *CourseRepository
	AccountRepository         *AccountRepository
	FeedbackSessionRepository *FeedbackSessionRepository
	FeedbackCommentRepository *FeedbackCommentRepository
}

// NewRepositories initializes all repositories
func NewRepositories(database *db.PostgresDB) *Repositories {
	return &Repositories{
		InstructorRepository:      NewInstructorRepository(database),
		CourseRepository:          NewCourseRepository(database),
		AccountRepository:         NewAccountRepository(database),
		FeedbackSessionRepository: NewFeedbackSessionRepository(database),
		FeedbackCommentRepository: NewFeedbackCommentRepository(database),
	}
}
