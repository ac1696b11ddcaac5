// Package memory is an in-process implementation of every store port, used by the
// "memory" database driver and by tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/yigit/peerfeedback/internal/app/models"
	"github.com/yigit/peerfeedback/internal/pkg/apperrors"
)

type txKey struct{}

type sessionKey struct {
	courseID string
	name     string
}

type state struct {
	instructors []*models.Instructor
	courses     map[string]models.Course
	accounts    map[string]models.Account
	sessions    map[sessionKey]*models.FeedbackSession
	comments    []*models.FeedbackResponseComment
	nextID      int64
}

func (s *state) clone() *state {
	c := &state{
		instructors: make([]*models.Instructor, 0, len(s.instructors)),
		courses:     make(map[string]models.Course, len(s.courses)),
		accounts:    make(map[string]models.Account, len(s.accounts)),
		sessions:    make(map[sessionKey]*models.FeedbackSession, len(s.sessions)),
		comments:    make([]*models.FeedbackResponseComment, 0, len(s.comments)),
		nextID:      s.nextID,
	}
	for _, i := range s.instructors {
		c.instructors = append(c.instructors, i.Clone())
	}
	for k, v := range s.courses {
		c.courses[k] = v
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.sessions {
		c.sessions[k] = cloneSession(v)
	}
	for _, cm := range s.comments {
		copied := *cm
		c.comments = append(c.comments, &copied)
	}
	return c
}

func cloneSession(s *models.FeedbackSession) *models.FeedbackSession {
	c := &models.FeedbackSession{CourseID: s.CourseID, Name: s.Name, InstructorRespondents: make(map[string]bool, len(s.InstructorRespondents))}
	for email, ok := range s.InstructorRespondents {
		c.InstructorRespondents[email] = ok
	}
	return c
}

// Store keeps all records in memory. Records handed out are copies.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	data *state
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		data: &state{
			courses:  make(map[string]models.Course),
			accounts: make(map[string]models.Account),
			sessions: make(map[sessionKey]*models.FeedbackSession),
			nextID:   1,
		},
	}
}

// WithTransaction runs fn against a snapshot that is restored when fn fails or panics.
// Transactions are serialized; nested calls join the outer one.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	defer func() {
		if r := recover(); r != nil {
			s.restore(snapshot)
			panic(r)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, struct{}{})); err != nil {
		s.restore(snapshot)
	}
	return err
}

// lockForWrite takes the write lock. Outside a transaction it also waits for any open
// transaction, so a rollback can only discard writes made inside it.
func (s *Store) lockForWrite(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		s.mu.Lock()
		return s.mu.Unlock
	}
	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

func (s *Store) restore(snapshot *state) {
	s.mu.Lock()
	s.data = snapshot
	s.mu.Unlock()
}

// Instructors

func (s *Store) findInstructor(match func(*models.Instructor) bool) (int, *models.Instructor) {
	for idx, i := range s.data.instructors {
		if match(i) {
			return idx, i
		}
	}
	return -1, nil
}

func (s *Store) conflicts(candidate *models.Instructor, skip *models.Instructor) bool {
	_, existing := s.findInstructor(func(i *models.Instructor) bool {
		if i == skip {
			return false
		}
		if i.CourseID == candidate.CourseID && i.Email == candidate.Email {
			return true
		}
		if candidate.GoogleID != "" && i.CourseID == candidate.CourseID && i.GoogleID == candidate.GoogleID {
			return true
		}
		return candidate.Key != "" && i.Key == candidate.Key
	})
	return existing != nil
}

// CreateInstructor stores a copy and returns it with its id set
func (s *Store) CreateInstructor(ctx context.Context, instructor *models.Instructor) (*models.Instructor, error) {
	if msgs := instructor.InvalidityInfo(); len(msgs) > 0 {
		return nil, apperrors.NewValidationError(msgs)
	}

	defer s.lockForWrite(ctx)()

	if s.conflicts(instructor, nil) {
		return nil, apperrors.NewAlreadyExistsError(fmt.Sprintf("Instructor %s already exists in course %s", instructor.Email, instructor.CourseID))
	}

	stored := instructor.Clone()
	stored.ID = s.data.nextID
	s.data.nextID++
	s.data.instructors = append(s.data.instructors, stored)
	return stored.Clone(), nil
}

func (s *Store) getOne(match func(*models.Instructor) bool) *models.Instructor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, found := s.findInstructor(match)
	return found.Clone()
}

func (s *Store) getMany(match func(*models.Instructor) bool) []*models.Instructor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*models.Instructor, 0)
	for _, i := range s.data.instructors {
		if match(i) {
			result = append(result, i.Clone())
		}
	}
	return result
}

// GetInstructorForEmail returns nil when absent
func (s *Store) GetInstructorForEmail(_ context.Context, courseID, email string) (*models.Instructor, error) {
	return s.getOne(func(i *models.Instructor) bool { return i.CourseID == courseID && i.Email == email }), nil
}

// GetInstructorForGoogleID returns nil when absent
func (s *Store) GetInstructorForGoogleID(_ context.Context, courseID, googleID string) (*models.Instructor, error) {
	if googleID == "" {
		return nil, nil
	}
	return s.getOne(func(i *models.Instructor) bool { return i.CourseID == courseID && i.GoogleID == googleID }), nil
}

// GetInstructorForRegistrationKey returns nil when absent
func (s *Store) GetInstructorForRegistrationKey(_ context.Context, key string) (*models.Instructor, error) {
	if key == "" {
		return nil, nil
	}
	return s.getOne(func(i *models.Instructor) bool { return i.Key == key }), nil
}

// GetInstructorsForCourse returns the course's instructors in stored order
func (s *Store) GetInstructorsForCourse(_ context.Context, courseID string) ([]*models.Instructor, error) {
	return s.getMany(func(i *models.Instructor) bool { return i.CourseID == courseID }), nil
}

// GetInstructorsForGoogleID returns every instructor row of an account
func (s *Store) GetInstructorsForGoogleID(_ context.Context, googleID string, omitArchived bool) ([]*models.Instructor, error) {
	if googleID == "" {
		return []*models.Instructor{}, nil
	}
	return s.getMany(func(i *models.Instructor) bool {
		return i.GoogleID == googleID && !(omitArchived && i.IsArchived)
	}), nil
}

// GetInstructorsDisplayedToStudents returns the course's displayed instructors
func (s *Store) GetInstructorsDisplayedToStudents(_ context.Context, courseID string) ([]*models.Instructor, error) {
	return s.getMany(func(i *models.Instructor) bool { return i.CourseID == courseID && i.IsDisplayedToStudents }), nil
}

// SearchInstructors matches query case-insensitively against name, email, course id and google id
func (s *Store) SearchInstructors(_ context.Context, query string, limit int) ([]*models.Instructor, error) {
	needle := strings.ToLower(query)
	result := s.getMany(func(i *models.Instructor) bool {
		for _, field := range []string{i.Name, i.Email, i.CourseID, i.GoogleID} {
			if strings.Contains(strings.ToLower(field), needle) {
				return true
			}
		}
		return false
	})
	slices.SortStableFunc(result, func(a, b *models.Instructor) int {
		if c := strings.Compare(a.CourseID, b.CourseID); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	if limit >= 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) update(ctx context.Context, instructor *models.Instructor, match func(*models.Instructor) bool, apply func(stored *models.Instructor)) error {
	if msgs := instructor.InvalidityInfo(); len(msgs) > 0 {
		return apperrors.NewValidationError(msgs)
	}

	defer s.lockForWrite(ctx)()

	idx, stored := s.findInstructor(match)
	if stored == nil {
		return apperrors.NewResourceNotFoundError(fmt.Sprintf("Instructor %s does not belong to course %s", instructor.Email, instructor.CourseID))
	}

	updated := stored.Clone()
	apply(updated)
	updated.Name = instructor.Name
	updated.Role = instructor.Role
	updated.DisplayedName = instructor.DisplayedName
	updated.IsDisplayedToStudents = instructor.IsDisplayedToStudents
	updated.IsArchived = instructor.IsArchived
	updated.Privileges = instructor.Privileges.Clone()

	candidate := updated.Clone()
	candidate.Key = ""
	if s.conflicts(candidate, stored) {
		return apperrors.NewAlreadyExistsError(fmt.Sprintf("Another instructor of course %s already uses these details", instructor.CourseID))
	}
	s.data.instructors[idx] = updated
	return nil
}

// UpdateInstructorByGoogleID rewrites the mutable fields, including email, of the row keyed by (course, google id)
func (s *Store) UpdateInstructorByGoogleID(ctx context.Context, instructor *models.Instructor) error {
	return s.update(ctx, instructor,
		func(i *models.Instructor) bool {
			return instructor.GoogleID != "" && i.CourseID == instructor.CourseID && i.GoogleID == instructor.GoogleID
		},
		func(stored *models.Instructor) { stored.Email = instructor.Email })
}

// UpdateInstructorByEmail rewrites the mutable fields, including google id, of the row keyed by (course, email)
func (s *Store) UpdateInstructorByEmail(ctx context.Context, instructor *models.Instructor) error {
	return s.update(ctx, instructor,
		func(i *models.Instructor) bool { return i.CourseID == instructor.CourseID && i.Email == instructor.Email },
		func(stored *models.Instructor) { stored.GoogleID = instructor.GoogleID })
}

// DeleteInstructor removes one instructor; deleting an absent one is a no-op
func (s *Store) DeleteInstructor(ctx context.Context, courseID, email string) error {
	defer s.lockForWrite(ctx)()
	s.data.instructors = slices.DeleteFunc(s.data.instructors, func(i *models.Instructor) bool {
		return i.CourseID == courseID && i.Email == email
	})
	return nil
}

// DeleteInstructorsForCourse removes every instructor of a course
func (s *Store) DeleteInstructorsForCourse(ctx context.Context, courseID string) error {
	defer s.lockForWrite(ctx)()
	s.data.instructors = slices.DeleteFunc(s.data.instructors, func(i *models.Instructor) bool {
		return i.CourseID == courseID
	})
	return nil
}

// Courses

// CreateCourse stores a course
func (s *Store) CreateCourse(ctx context.Context, course *models.Course) error {
	defer s.lockForWrite(ctx)()
	if _, ok := s.data.courses[course.ID]; ok {
		return apperrors.NewAlreadyExistsError(fmt.Sprintf("Course %s already exists", course.ID))
	}
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now().UTC()
	}
	s.data.courses[course.ID] = *course
	return nil
}

// GetCourse returns nil when absent
func (s *Store) GetCourse(_ context.Context, courseID string) (*models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	course, ok := s.data.courses[courseID]
	if !ok {
		return nil, nil
	}
	return &course, nil
}

// Accounts

// CreateAccount inserts an account, replacing an existing one with the same google id
func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	defer s.lockForWrite(ctx)()
	s.data.accounts[account.GoogleID] = *account
	return nil
}

// GetAccount returns nil when absent
func (s *Store) GetAccount(_ context.Context, googleID string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.data.accounts[googleID]
	if !ok {
		return nil, nil
	}
	return &account, nil
}

// Feedback sessions

// CreateFeedbackSession stores a session without respondents
func (s *Store) CreateFeedbackSession(ctx context.Context, session *models.FeedbackSession) error {
	defer s.lockForWrite(ctx)()
	key := sessionKey{session.CourseID, session.Name}
	if _, ok := s.data.sessions[key]; ok {
		return apperrors.NewAlreadyExistsError(fmt.Sprintf("Feedback session %s already exists in course %s", session.Name, session.CourseID))
	}
	s.data.sessions[key] = &models.FeedbackSession{CourseID: session.CourseID, Name: session.Name, InstructorRespondents: map[string]bool{}}
	return nil
}

// AddInstructorRespondent records that an instructor responded to a session
func (s *Store) AddInstructorRespondent(ctx context.Context, courseID, sessionName, email string) error {
	defer s.lockForWrite(ctx)()
	session, ok := s.data.sessions[sessionKey{courseID, sessionName}]
	if !ok {
		return apperrors.NewResourceNotFoundError(fmt.Sprintf("Feedback session %s does not exist in course %s", sessionName, courseID))
	}
	session.InstructorRespondents[email] = true
	return nil
}

// GetFeedbackSessionsForCourse returns the sessions of a course ordered by name
func (s *Store) GetFeedbackSessionsForCourse(_ context.Context, courseID string) ([]*models.FeedbackSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessions := make([]*models.FeedbackSession, 0)
	for key, session := range s.data.sessions {
		if key.courseID == courseID {
			sessions = append(sessions, cloneSession(session))
		}
	}
	slices.SortFunc(sessions, func(a, b *models.FeedbackSession) int { return strings.Compare(a.Name, b.Name) })
	return sessions, nil
}

// UpdateInstructorRespondentEmail replaces oldEmail by newEmail in every respondent list of the course
func (s *Store) UpdateInstructorRespondentEmail(ctx context.Context, courseID, oldEmail, newEmail string) error {
	if oldEmail == newEmail {
		return nil
	}
	defer s.lockForWrite(ctx)()
	for key, session := range s.data.sessions {
		if key.courseID != courseID || !session.InstructorRespondents[oldEmail] {
			continue
		}
		delete(session.InstructorRespondents, oldEmail)
		session.InstructorRespondents[newEmail] = true
	}
	return nil
}

// DeleteInstructorRespondent drops an email from every respondent list of the course
func (s *Store) DeleteInstructorRespondent(ctx context.Context, courseID, email string) error {
	defer s.lockForWrite(ctx)()
	for key, session := range s.data.sessions {
		if key.courseID == courseID {
			delete(session.InstructorRespondents, email)
		}
	}
	return nil
}

// Comments

// CreateComment stores a comment and fills its id and creation time
func (s *Store) CreateComment(ctx context.Context, comment *models.FeedbackResponseComment) error {
	defer s.lockForWrite(ctx)()
	comment.ID = s.data.nextID
	s.data.nextID++
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	copied := *comment
	s.data.comments = append(s.data.comments, &copied)
	return nil
}

// GetCommentsForCourse returns the comments of a course, oldest first
func (s *Store) GetCommentsForCourse(_ context.Context, courseID string) ([]*models.FeedbackResponseComment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	comments := make([]*models.FeedbackResponseComment, 0)
	for _, c := range s.data.comments {
		if c.CourseID == courseID {
			copied := *c
			comments = append(comments, &copied)
		}
	}
	return comments, nil
}

// UpdateCommentAuthorEmails rewrites giver and last editor emails within a course
func (s *Store) UpdateCommentAuthorEmails(ctx context.Context, courseID, oldEmail, newEmail string) error {
	defer s.lockForWrite(ctx)()
	for _, c := range s.data.comments {
		if c.CourseID != courseID {
			continue
		}
		if c.GiverEmail == oldEmail {
			c.GiverEmail = newEmail
		}
		if c.LastEditorEmail == oldEmail {
			c.LastEditorEmail = newEmail
		}
	}
	return nil
}
