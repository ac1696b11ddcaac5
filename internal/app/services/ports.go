package services

import (
	"context"

	"github.com/yigit/peerfeedback/internal/app/models"
)

// InstructorStore persists instructor records.
// Getters return nil, nil when nothing matches.
type InstructorStore interface {
	CreateInstructor(ctx context.Context, instructor *models.Instructor) (*models.Instructor, error)
	GetInstructorForEmail(ctx context.Context, courseID, email string) (*models.Instructor, error)
	GetInstructorForGoogleID(ctx context.Context, courseID, googleID string) (*models.Instructor, error)
	GetInstructorForRegistrationKey(ctx context.Context, key string) (*models.Instructor, error)
	GetInstructorsForCourse(ctx context.Context, courseID string) ([]*models.Instructor, error)
	GetInstructorsForGoogleID(ctx context.Context, googleID string, omitArchived bool) ([]*models.Instructor, error)
	GetInstructorsDisplayedToStudents(ctx context.Context, courseID string) ([]*models.Instructor, error)
	SearchInstructors(ctx context.Context, query string, limit int) ([]*models.Instructor, error)
	UpdateInstructorByGoogleID(ctx context.Context, instructor *models.Instructor) error
	UpdateInstructorByEmail(ctx context.Context, instructor *models.Instructor) error
	DeleteInstructor(ctx context.Context, courseID, email string) error
	DeleteInstructorsForCourse(ctx context.Context, courseID string) error
}

// CourseStore persists courses
type CourseStore interface {
	CreateCourse(ctx context.Context, course *models.Course) error
	GetCourse(ctx context.Context, courseID string) (*models.Course, error)
}

// AccountStore persists accounts
type AccountStore interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, googleID string) (*models.Account, error)
}

// RespondentStore persists feedback sessions and their instructor respondent lists
type RespondentStore interface {
	CreateFeedbackSession(ctx context.Context, session *models.FeedbackSession) error
	AddInstructorRespondent(ctx context.Context, courseID, sessionName, email string) error
	GetFeedbackSessionsForCourse(ctx context.Context, courseID string) ([]*models.FeedbackSession, error)
	UpdateInstructorRespondentEmail(ctx context.Context, courseID, oldEmail, newEmail string) error
	DeleteInstructorRespondent(ctx context.Context, courseID, email string) error
}

// CommentStore persists feedback response comments
type CommentStore interface {
	CreateComment(ctx context.Context, comment *models.FeedbackResponseComment) error
	GetCommentsForCourse(ctx context.Context, courseID string) ([]*models.FeedbackResponseComment, error)
	UpdateCommentAuthorEmails(ctx context.Context, courseID, oldEmail, newEmail string) error
}

// Transactor runs fn atomically; stores called with the ctx handed to fn join the unit of work
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// KeyCipher encrypts registration keys handed out in join links
type KeyCipher interface {
	Encrypt(plain string) (string, error)
	Decrypt(token string) (string, error)
}
