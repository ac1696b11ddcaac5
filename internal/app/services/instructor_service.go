package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/peerfeedback/internal/app/models"
	"github.com/yigit/peerfeedback/internal/pkg/apperrors"
	"github.com/yigit/peerfeedback/internal/pkg/validation"
)

// CourseLogic answers course existence questions for the instructor service
type CourseLogic interface {
	VerifyCourseIsPresent(ctx context.Context, courseID string) error
	IsSampleCourse(courseID string) bool
}

// AccountLogic answers account questions for the instructor service
type AccountLogic interface {
	IsAccountAnInstructor(ctx context.Context, googleID string) (bool, error)
}

// FeedbackSessionLogic keeps respondent lists in step with instructor emails
type FeedbackSessionLogic interface {
	UpdateRespondentsForInstructor(ctx context.Context, oldEmail, newEmail, courseID string) error
	DeleteInstructorFromRespondentsList(ctx context.Context, instructor *models.Instructor) error
}

// FeedbackResponseCommentLogic keeps comment authors in step with instructor emails
type FeedbackResponseCommentLogic interface {
	UpdateFeedbackResponseCommentsEmails(ctx context.Context, courseID, oldEmail, newEmail string) error
}

// InstructorService defines the interface for instructor-related operations
type InstructorService interface {
	CreateInstructor(ctx context.Context, instructor *models.Instructor) (*models.Instructor, error)
	SetArchiveStatusOfInstructor(ctx context.Context, googleID, courseID string, archived bool) error

	GetInstructorForEmail(ctx context.Context, courseID, email string) (*models.Instructor, error)
	GetInstructorForGoogleID(ctx context.Context, courseID, googleID string) (*models.Instructor, error)
	GetInstructorForRegistrationKey(ctx context.Context, encryptedKey string) (*models.Instructor, error)
	GetInstructorsForCourse(ctx context.Context, courseID string) ([]*models.Instructor, error)
	GetInstructorsForGoogleID(ctx context.Context, googleID string, omitArchived bool) ([]*models.Instructor, error)
	GetCoOwnersForCourse(ctx context.Context, courseID string) ([]*models.Instructor, error)
	GetEncryptedKeyForInstructor(ctx context.Context, courseID, email string) (string, error)
	SearchInstructorsInWholeSystem(ctx context.Context, query string) ([]*models.Instructor, error)

	IsGoogleIDOfInstructorOfCourse(ctx context.Context, googleID, courseID string) (bool, error)
	IsEmailOfInstructorOfCourse(ctx context.Context, email, courseID string) (bool, error)
	IsNewInstructor(ctx context.Context, googleID string) (bool, error)

	VerifyInstructorExists(ctx context.Context, googleID string) error
	VerifyIsEmailOfInstructorOfCourse(ctx context.Context, email, courseID string) error
	VerifyAtLeastOneInstructorIsDisplayed(ctx context.Context, wasDisplayed bool, courseID string, willBeDisplayed bool) error

	UpdateInstructorByGoogleID(ctx context.Context, googleID string, instructor *models.Instructor) error
	UpdateInstructorByEmail(ctx context.Context, email string, instructor *models.Instructor) error
	ResetInstructorGoogleID(ctx context.Context, email, courseID string) error

	GetInvalidityInfoForNewInstructorData(name, institute, email string) []string

	DeleteInstructorCascade(ctx context.Context, courseID, email string) error
	DeleteInstructorsForGoogleIDAndCascade(ctx context.Context, googleID string) error
	DeleteInstructorsForCourse(ctx context.Context, courseID string) error
}

// InstructorServiceDeps groups the collaborators of the instructor service
type InstructorServiceDeps struct {
	Store      InstructorStore
	Tx         Transactor
	Courses    CourseLogic
	Accounts   AccountLogic
	Sessions   FeedbackSessionLogic
	Comments   FeedbackResponseCommentLogic
	KeyCipher  KeyCipher
	MaxResults int
	Logger     zerolog.Logger
}

// instructorServiceImpl implements the InstructorService interface
type instructorServiceImpl struct {
	store      InstructorStore
	tx         Transactor
	courses    CourseLogic
	accounts   AccountLogic
	sessions   FeedbackSessionLogic
	comments   FeedbackResponseCommentLogic
	keyCipher  KeyCipher
	maxResults int
	validator  *validation.FieldValidator
	logger     zerolog.Logger
}

// NewInstructorService creates a new instructor service instance
func NewInstructorService(deps InstructorServiceDeps) InstructorService {
	return &instructorServiceImpl{
		store:      deps.Store,
		tx:         deps.Tx,
		courses:    deps.Courses,
		accounts:   deps.Accounts,
		sessions:   deps.Sessions,
		comments:   deps.Comments,
		keyCipher:  deps.KeyCipher,
		maxResults: deps.MaxResults,
		validator:  validation.Default(),
		logger:     deps.Logger.With().Str("component", "instructor_service").Logger(),
	}
}

// CreateInstructor fills in a registration key, display defaults and role privileges, then stores the record
func (s *instructorServiceImpl) CreateInstructor(ctx context.Context, instructor *models.Instructor) (*models.Instructor, error) {
	if instructor == nil {
		return nil, apperrors.NewValidationError([]string{"Supplied instructor was nil."})
	}

	toAdd := instructor.Clone()
	if toAdd.Key == "" {
		toAdd.Key = uuid.NewString()
	}
	if toAdd.DisplayedName == "" {
		toAdd.DisplayedName = models.DefaultDisplayedName
	}
	if len(toAdd.Privileges.CourseLevel) == 0 {
		toAdd.Privileges = models.NewPrivilegesForRole(toAdd.Role)
	}
	if msgs := toAdd.InvalidityInfo(); len(msgs) > 0 {
		return nil, apperrors.NewValidationError(msgs)
	}

	s.logger.Info().Str("courseId", toAdd.CourseID).Str("email", toAdd.Email).Str("role", string(toAdd.Role)).Msg("Creating instructor")

	created, err := s.store.CreateInstructor(ctx, toAdd)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// SetArchiveStatusOfInstructor archives or unarchives the course for one instructor
func (s *instructorServiceImpl) SetArchiveStatusOfInstructor(ctx context.Context, googleID, courseID string, archived bool) error {
	instructor, err := s.store.GetInstructorForGoogleID(ctx, courseID, googleID)
	if err != nil {
		return fmt.Errorf("error getting instructor: %w", err)
	}
	if instructor == nil {
		return apperrors.NewResourceNotFoundError(fmt.Sprintf("Instructor %s does not belong to course %s", googleID, courseID))
	}

	instructor.IsArchived = archived
	if err := s.store.UpdateInstructorByGoogleID(ctx, instructor); err != nil {
		return err
	}

	s.logger.Info().Str("courseId", courseID).Str("googleId", googleID).Bool("archived", archived).Msg("Updated archive status")
	return nil
}

// GetInstructorForEmail returns nil when absent
func (s *instructorServiceImpl) GetInstructorForEmail(ctx context.Context, courseID, email string) (*models.Instructor, error) {
	return s.store.GetInstructorForEmail(ctx, courseID, email)
}

// GetInstructorForGoogleID returns nil when absent
func (s *instructorServiceImpl) GetInstructorForGoogleID(ctx context.Context, courseID, googleID string) (*models.Instructor, error) {
	return s.store.GetInstructorForGoogleID(ctx, courseID, googleID)
}

// GetInstructorForRegistrationKey resolves an encrypted join-link key. Unknown or undecryptable keys yield nil.
func (s *instructorServiceImpl) GetInstructorForRegistrationKey(ctx context.Context, encryptedKey string) (*models.Instructor, error) {
	key, err := s.keyCipher.Decrypt(strings.TrimSpace(encryptedKey))
	if err != nil {
		s.logger.Debug().Err(err).Msg("Registration key could not be decrypted")
		return nil, nil
	}
	return s.store.GetInstructorForRegistrationKey(ctx, key)
}

// GetInstructorsForCourse returns the course's instructors sorted by name
func (s *instructorServiceImpl) GetInstructorsForCourse(ctx context.Context, courseID string) ([]*models.Instructor, error) {
	instructors, err := s.store.GetInstructorsForCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("error getting instructors of course: %w", err)
	}
	models.SortByName(instructors)
	return instructors, nil
}

// GetInstructorsForGoogleID returns the instructor rows of an account
func (s *instructorServiceImpl) GetInstructorsForGoogleID(ctx context.Context, googleID string, omitArchived bool) ([]*models.Instructor, error) {
	instructors, err := s.store.GetInstructorsForGoogleID(ctx, googleID, omitArchived)
	if err != nil {
		return nil, fmt.Errorf("error getting instructors of account: %w", err)
	}
	return instructors, nil
}

// GetCoOwnersForCourse returns the name-sorted instructors holding co-owner privileges
func (s *instructorServiceImpl) GetCoOwnersForCourse(ctx context.Context, courseID string) ([]*models.Instructor, error) {
	instructors, err := s.GetInstructorsForCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	coOwners := make([]*models.Instructor, 0, len(instructors))
	for _, instructor := range instructors {
		if instructor.HasCoownerPrivileges() {
			coOwners = append(coOwners, instructor)
		}
	}
	return coOwners, nil
}

// GetEncryptedKeyForInstructor returns the join-link form of an instructor's registration key
func (s *instructorServiceImpl) GetEncryptedKeyForInstructor(ctx context.Context, courseID, email string) (string, error) {
	if err := s.VerifyIsEmailOfInstructorOfCourse(ctx, email, courseID); err != nil {
		return "", err
	}

	instructor, err := s.store.GetInstructorForEmail(ctx, courseID, email)
	if err != nil {
		return "", fmt.Errorf("error getting instructor: %w", err)
	}
	if instructor == nil {
		return "", apperrors.NewResourceNotFoundError(fmt.Sprintf("Instructor %s does not belong to course %s", email, courseID))
	}

	encrypted, err := s.keyCipher.Encrypt(instructor.Key)
	if err != nil {
		return "", fmt.Errorf("error encrypting registration key: %w", err)
	}
	return encrypted, nil
}

// SearchInstructorsInWholeSystem searches every course; callers must restrict it to admins
func (s *instructorServiceImpl) SearchInstructorsInWholeSystem(ctx context.Context, query string) ([]*models.Instructor, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*models.Instructor{}, nil
	}

	instructors, err := s.store.SearchInstructors(ctx, query, s.maxResults)
	if err != nil {
		return nil, fmt.Errorf("error searching instructors: %w", err)
	}
	return instructors, nil
}

// IsGoogleIDOfInstructorOfCourse reports whether the account teaches the course
func (s *instructorServiceImpl) IsGoogleIDOfInstructorOfCourse(ctx context.Context, googleID, courseID string) (bool, error) {
	instructor, err := s.store.GetInstructorForGoogleID(ctx, courseID, googleID)
	if err != nil {
		return false, err
	}
	return instructor != nil, nil
}

// IsEmailOfInstructorOfCourse reports whether the email belongs to an instructor of the course
func (s *instructorServiceImpl) IsEmailOfInstructorOfCourse(ctx context.Context, email, courseID string) (bool, error) {
	instructor, err := s.store.GetInstructorForEmail(ctx, courseID, email)
	if err != nil {
		return false, err
	}
	return instructor != nil, nil
}

// IsNewInstructor reports whether the account has no course, or only its sample course
func (s *instructorServiceImpl) IsNewInstructor(ctx context.Context, googleID string) (bool, error) {
	instructors, err := s.GetInstructorsForGoogleID(ctx, googleID, false)
	if err != nil {
		return false, err
	}
	return len(instructors) == 0 ||
		len(instructors) == 1 && s.courses.IsSampleCourse(instructors[0].CourseID), nil
}

// VerifyInstructorExists fails when the account has no instructor role
func (s *instructorServiceImpl) VerifyInstructorExists(ctx context.Context, googleID string) error {
	isInstructor, err := s.accounts.IsAccountAnInstructor(ctx, googleID)
	if err != nil {
		return fmt.Errorf("error checking account: %w", err)
	}
	if !isInstructor {
		return apperrors.NewResourceNotFoundError(fmt.Sprintf("Instructor does not exist: %s", googleID))
	}
	return nil
}

// VerifyIsEmailOfInstructorOfCourse fails when the email is not an instructor of the course
func (s *instructorServiceImpl) VerifyIsEmailOfInstructorOfCourse(ctx context.Context, email, courseID string) error {
	isInstructor, err := s.IsEmailOfInstructorOfCourse(ctx, email, courseID)
	if err != nil {
		return fmt.Errorf("error checking instructor: %w", err)
	}
	if !isInstructor {
		return apperrors.NewResourceNotFoundError(fmt.Sprintf("Instructor %s does not belong to course %s", email, courseID))
	}
	return nil
}

// VerifyAtLeastOneInstructorIsDisplayed rejects edits that would hide the last displayed instructor
func (s *instructorServiceImpl) VerifyAtLeastOneInstructorIsDisplayed(ctx context.Context, wasDisplayed bool, courseID string, willBeDisplayed bool) error {
	displayed, err := s.store.GetInstructorsDisplayedToStudents(ctx, courseID)
	if err != nil {
		return fmt.Errorf("error getting displayed instructors: %w", err)
	}
	if violatesDisplayedInstructorRule(len(displayed), wasDisplayed, willBeDisplayed) {
		return apperrors.NewInvalidStateError("At least one instructor must be displayed to students")
	}
	return nil
}

// violatesDisplayedInstructorRule is the visibility guard used by both update paths.
// The first branch also rejects making a hidden instructor visible in a course where nobody is displayed.
func violatesDisplayedInstructorRule(displayedCount int, wasDisplayed, willBeDisplayed bool) bool {
	turnsOnInEmptyCourse := displayedCount == 0 && !wasDisplayed && willBeDisplayed
	hidesLastDisplayed := displayedCount == 1 && wasDisplayed && !willBeDisplayed
	return turnsOnInEmptyCourse || hidesLastDisplayed
}

// UpdateInstructorByGoogleID updates the instructor linked to googleID. An email change is
// carried into comment authors and respondent lists in the same transaction as the record write.
func (s *instructorServiceImpl) UpdateInstructorByGoogleID(ctx context.Context, googleID string, instructor *models.Instructor) error {
	if instructor == nil {
		return apperrors.NewValidationError([]string{"Supplied instructor was nil."})
	}

	updated := instructor.Clone()
	updated.GoogleID = googleID
	if msgs := updated.InvalidityInfo(); len(msgs) > 0 {
		return apperrors.NewValidationError(msgs)
	}

	if err := s.courses.VerifyCourseIsPresent(ctx, updated.CourseID); err != nil {
		return err
	}

	current, err := s.store.GetInstructorForGoogleID(ctx, updated.CourseID, googleID)
	if err != nil {
		return fmt.Errorf("error getting instructor: %w", err)
	}
	if current == nil {
		return apperrors.NewResourceNotFoundError(fmt.Sprintf("Instructor %s does not belong to course %s", googleID, updated.CourseID))
	}

	if err := s.VerifyAtLeastOneInstructorIsDisplayed(ctx, current.IsDisplayedToStudents, updated.CourseID, updated.IsDisplayedToStudents); err != nil {
		return err
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if current.Email != updated.Email {
			if err := s.comments.UpdateFeedbackResponseCommentsEmails(ctx, updated.CourseID, current.Email, updated.Email); err != nil {
				return err
			}
			if err := s.sessions.UpdateRespondentsForInstructor(ctx, current.Email, updated.Email, updated.CourseID); err != nil {
				return err
			}
		}
		return s.store.UpdateInstructorByGoogleID(ctx, updated)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("courseId", updated.CourseID).Str("googleId", googleID).
		Str("oldEmail", current.Email).Str("newEmail", updated.Email).Msg("Updated instructor by google id")
	return nil
}

// UpdateInstructorByEmail updates the instructor with the given email; the google id may change
func (s *instructorServiceImpl) UpdateInstructorByEmail(ctx context.Context, email string, instructor *models.Instructor) error {
	if instructor == nil {
		return apperrors.NewValidationError([]string{"Supplied instructor was nil."})
	}

	updated := instructor.Clone()
	updated.Email = email
	if msgs := updated.InvalidityInfo(); len(msgs) > 0 {
		return apperrors.NewValidationError(msgs)
	}

	if err := s.courses.VerifyCourseIsPresent(ctx, updated.CourseID); err != nil {
		return err
	}

	current, err := s.store.GetInstructorForEmail(ctx, updated.CourseID, email)
	if err != nil {
		return fmt.Errorf("error getting instructor: %w", err)
	}
	if current == nil {
		return apperrors.NewResourceNotFoundError(fmt.Sprintf("Instructor %s does not belong to course %s", email, updated.CourseID))
	}

	if err := s.VerifyAtLeastOneInstructorIsDisplayed(ctx, current.IsDisplayedToStudents, updated.CourseID, updated.IsDisplayedToStudents); err != nil {
		return err
	}

	if err := s.store.UpdateInstructorByEmail(ctx, updated); err != nil {
		return err
	}

	s.logger.Info().Str("courseId", updated.CourseID).Str("email", email).Str("googleId", updated.GoogleID).Msg("Updated instructor by email")
	return nil
}

// ResetInstructorGoogleID unlinks the account of an instructor so another one can join
func (s *instructorServiceImpl) ResetInstructorGoogleID(ctx context.Context, email, courseID string) error {
	instructor, err := s.store.GetInstructorForEmail(ctx, courseID, email)
	if err != nil {
		return fmt.Errorf("error getting instructor: %w", err)
	}
	if instructor == nil {
		return apperrors.NewResourceNotFoundError(fmt.Sprintf("Instructor %s does not belong to course %s", email, courseID))
	}

	instructor.GoogleID = ""
	if err := s.store.UpdateInstructorByEmail(ctx, instructor); err != nil {
		if apperrors.Is(err, apperrors.ErrValidationFailed) {
			// the stored record was valid and only the google id changed
			panic(fmt.Sprintf("unexpected invalid instructor while resetting google id: %v", err))
		}
		return err
	}

	s.logger.Info().Str("courseId", courseID).Str("email", email).Msg("Reset instructor google id")
	return nil
}

// GetInvalidityInfoForNewInstructorData returns the messages for name, email and institute, in that order
func (s *instructorServiceImpl) GetInvalidityInfoForNewInstructorData(name, institute, email string) []string {
	errs := make([]string, 0, 3)
	for _, msg := range []string{
		s.validator.InvalidityInfoForPersonName(name),
		s.validator.InvalidityInfoForEmail(email),
		s.validator.InvalidityInfoForInstituteName(institute),
	} {
		if msg != "" {
			errs = append(errs, msg)
		}
	}
	return errs
}

// DeleteInstructorCascade removes the instructor from respondent lists and deletes it; absent instructors are ignored
func (s *instructorServiceImpl) DeleteInstructorCascade(ctx context.Context, courseID, email string) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		instructor, err := s.store.GetInstructorForEmail(ctx, courseID, email)
		if err != nil {
			return fmt.Errorf("error getting instructor: %w", err)
		}
		if err := s.sessions.DeleteInstructorFromRespondentsList(ctx, instructor); err != nil {
			return err
		}
		if err := s.store.DeleteInstructor(ctx, courseID, email); err != nil {
			return err
		}
		if instructor != nil {
			s.logger.Info().Str("courseId", courseID).Str("email", email).Msg("Deleted instructor")
		}
		return nil
	})
}

// DeleteInstructorsForGoogleIDAndCascade cascade-deletes every instructor row of an account
func (s *instructorServiceImpl) DeleteInstructorsForGoogleIDAndCascade(ctx context.Context, googleID string) error {
	if googleID == "" {
		return nil
	}

	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		instructors, err := s.store.GetInstructorsForGoogleID(ctx, googleID, false)
		if err != nil {
			return fmt.Errorf("error getting instructors of account: %w", err)
		}
		for _, instructor := range instructors {
			if err := s.DeleteInstructorCascade(ctx, instructor.CourseID, instructor.Email); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteInstructorsForCourse removes every instructor of a course without touching
// respondents or comments; only course deletion should call it
func (s *instructorServiceImpl) DeleteInstructorsForCourse(ctx context.Context, courseID string) error {
	return s.store.DeleteInstructorsForCourse(ctx, courseID)
}
