package services

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/yigit/peerfeedback/internal/app/models"
	"github.com/yigit/peerfeedback/internal/app/repositories/memory"
	"github.com/yigit/peerfeedback/internal/pkg/apperrors"
	"github.com/yigit/peerfeedback/internal/pkg/keycrypt"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	store    *memory.Store
	courses  *CourseService
	accounts *AccountService
	sessions *FeedbackSessionService
	comments *FeedbackCommentService
	service  InstructorService
	cipher   *keycrypt.Cipher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	cipher, err := keycrypt.New("test-registration-secret")
	require.NoError(t, err)

	f := &fixture{
		store:    store,
		courses:  NewCourseService(store),
		accounts: NewAccountService(store),
		sessions: NewFeedbackSessionService(store, zerolog.Nop()),
		comments: NewFeedbackCommentService(store, zerolog.Nop()),
		cipher:   cipher,
	}
	f.service = NewInstructorService(InstructorServiceDeps{
		Store:      store,
		Tx:         store,
		Courses:    f.courses,
		Accounts:   f.accounts,
		Sessions:   f.sessions,
		Comments:   f.comments,
		KeyCipher:  cipher,
		MaxResults: 2,
		Logger:     zerolog.Nop(),
	})
	return f
}

func (f *fixture) course(t *testing.T, courseID string) {
	t.Helper()
	require.NoError(t, f.courses.CreateCourse(context.Background(), &models.Course{ID: courseID, Name: "Course " + courseID}))
}

func (f *fixture) instructor(t *testing.T, courseID, email, googleID, name string, role models.InstructorRole, displayed bool) *models.Instructor {
	t.Helper()
	created, err := f.service.CreateInstructor(context.Background(), &models.Instructor{
		CourseID:              courseID,
		Email:                 email,
		GoogleID:              googleID,
		Name:                  name,
		Role:                  role,
		IsDisplayedToStudents: displayed,
	})
	require.NoError(t, err)
	return created
}

func TestCreateThenLookupByEveryKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.course(t, "CS101")

	created := f.instructor(t, "CS101", "jane@uni.edu", "jane", "Jane Doe", models.RoleCoowner, true)
	assert.NotEmpty(t, created.Key)
	assert.Equal(t, models.DefaultDisplayedName, created.DisplayedName)
	assert.True(t, created.HasCoownerPrivileges())

	byEmail, err := f.service.GetInstructorForEmail(ctx, "CS101", "jane@uni.edu")
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(created, byEmail))

	byGoogleID, err := f.service.GetInstructorForGoogleID(ctx, "CS101", "jane")
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(created, byGoogleID))

	encrypted, err := f.service.GetEncryptedKeyForInstructor(ctx, "CS101", "jane@uni.edu")
	require.NoError(t, err)
	byKey, err := f.service.GetInstructorForRegistrationKey(ctx, encrypted)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(created, byKey))

	forAccount, err := f.service.GetInstructorsForGoogleID(ctx, "jane", false)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff([]*models.Instructor{created}, forAccount))
}

func TestLookupsReturnNilWhenAbsent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	byEmail, err := f.service.GetInstructorForEmail(ctx, "CS101", "ghost@uni.edu")
	require.NoError(t, err)
	assert.Nil(t, byEmail)

	byKey, err := f.service.GetInstructorForRegistrationKey(ctx, "not-a-token")
	require.NoError(t, err)
	assert.Nil(t, byKey)

	list, err := f.service.GetInstructorsForGoogleID(ctx, "ghost", true)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateDuplicateFailsWithoutMutation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.course(t, "CS101")
	first := f.instructor(t, "CS101", "jane@uni.edu", "jane", "Jane Doe", models.RoleCoowner, true)

	_, err := f.service.CreateInstructor(ctx, &models.Instructor{
		CourseID: "CS101",
		Email:    "jane@uni.edu",
		Name:     "Someone Else",
		Role:     models.RoleObserver,
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrResourceAlreadyExists))

	all, err := f.service.GetInstructorsForCourse(ctx, "CS101")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Empty(t, cmp.Diff(first, all[0]))
}

func TestCreateRejectsNilAndInvalidRecords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.service.CreateInstructor(ctx, nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidationFailed))

	_, err = f.service.CreateInstructor(ctx, &models.Instructor{CourseID: "CS101", Email: "bad", Name: "Jane", Role: models.RoleTutor})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidationFailed))
	assert.Len(t, apperrors.ValidationMessages(err), 1)
}

func TestUpdateByGoogleIDCascadesEmailChange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.course(t, "CS101")
	f.course(t, "CS102")
	instructor := f.instructor(t, "CS101", "old@uni.edu", "jane", "Jane Doe", models.RoleCoowner, true)

	for _, courseID := range []string{"CS101", "CS102"} {
		require.NoError(t, f.sessions.CreateFeedbackSession(ctx, &models.FeedbackSession{CourseID: courseID, Name: "Week 1"}))
		require.NoError(t, f.sessions.AddInstructorRespondent(ctx, courseID, "Week 1", "old@uni.edu"))
		require.NoError(t, f.comments.CreateComment(ctx, &models.FeedbackResponseComment{
			CourseID: courseID, FeedbackSessionName: "Week 1", CommentText: "Nice work", GiverEmail: "old@uni.edu",
		}))
	}

	instructor.Email = "new@uni.edu"
	instructor.Name = "Jane Q. Doe"
	require.NoError(t, f.service.UpdateInstructorByGoogleID(ctx, "jane", instructor))

	stored, err := f.service.GetInstructorForGoogleID(ctx, "CS101", "jane")
	require.NoError(t, err)
	assert.Equal(t, "new@uni.edu", stored.Email)
	assert.Equal(t, "Jane Q. Doe", stored.Name)

	sessions, err := f.sessions.GetFeedbackSessionsForCourse(ctx, "CS101")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"new@uni.edu": true}, sessions[0].InstructorRespondents)

	comments, err := f.comments.GetCommentsForCourse(ctx, "CS101")
	require.NoError(t, err)
	assert.Equal(t, "new@uni.edu", comments[0].GiverEmail)
	assert.Equal(t, "new@uni.edu", comments[0].LastEditorEmail)

	otherSessions, err := f.sessions.GetFeedbackSessionsForCourse(ctx, "CS102")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"old@uni.edu": true}, otherSessions[0].InstructorRespondents)
	otherComments, err := f.comments.GetCommentsForCourse(ctx, "CS102")
	require.NoError(t, err)
	assert.Equal(t, "old@uni.edu", otherComments[0].GiverEmail)
}

func TestUpdateByGoogleIDRollsBackCascadeWhenWriteFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.course(t, "CS101")
	jane := f.instructor(t, "CS101", "jane@uni.edu", "jane", "Jane Doe", models.RoleCoowner, true)
	f.instructor(t, "CS101", "bob@uni.edu", "bob", "Bob", models.RoleCoowner, true)

	require.NoError(t, f.sessions.CreateFeedbackSession(ctx, &models.FeedbackSession{CourseID: "CS101", Name: "Week 1"}))
	require.NoError(t, f.sessions.AddInstructorRespondent(ctx, "CS101", "Week 1", "jane@uni.edu"))
	require.NoError(t, f.comments.CreateComment(ctx, &models.FeedbackResponseComment{
		CourseID: "CS101", FeedbackSessionName: "Week 1", CommentText: "Hi", GiverEmail: "jane@uni.edu",
	}))

	jane.Email = "bob@uni.edu"
	err := f.service.UpdateInstructorByGoogleID(ctx, "jane", jane)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrResourceAlreadyExists))

	sessions, err := f.sessions.GetFeedbackSessionsForCourse(ctx, "CS101")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"jane@uni.edu": true}, sessions[0].InstructorRespondents)

	comments, err := f.comments.GetCommentsForCourse(ctx, "CS101")
	require.NoError(t, err)
	assert.Equal(t, "jane@uni.edu", comments[0].GiverEmail)
}

func TestUpdateByGoogleIDNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	instructor := &models.Instructor{CourseID: "CS404", Email: "jane@uni.edu", Name: "Jane", Role: models.RoleCoowner}
	err := f.service.UpdateInstructorByGoogleID(ctx, "jane", instructor)
	assert.True(t, apperrors.Is(err, apperrors.ErrResourceNotFound))

	f.course(t, "CS404")
	err = f.service.UpdateInstructorByGoogleID(ctx, "jane", instructor)
	assert.True(t, apperrors.Is(err, apperrors.ErrResourceNotFound))
}

func TestHidingLastDisplayedInstructorFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.course(t, "CS101")
	jane := f.instructor(t, "CS101", "jane@uni.edu", "jane", "Jane Doe", models.RoleCoowner, true)
	f.instructor(t, "CS101", "bob@uni.edu", "bob", "Bob", models.RoleTutor, false)

	before, err := f.service.GetInstructorsForCourse(ctx, "CS101")
	require.NoError(t, err)

	hidden := jane.Clone()
	hidden.IsDisplayedToStudents = false
	err = f.service.UpdateInstructorByGoogleID(ctx, "jane", hidden)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))

	err = f.service.UpdateInstructorByEmail(ctx, "jane@uni.edu", hidden)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))

	after, err := f.service.GetInstructorsForCourse(ctx, "CS101")
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(before, after))
}

func TestHidingOneOfTwoDisplayedInstructorsSucceeds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.course(t, "CS101")
	jane := f.instructor(t, "CS101", "jane@uni.edu", "jane", "Jane Doe", models.RoleCoowner, true)
	f.instructor(t, "CS101", "bob@uni.edu", "bob", "Bob", models.RoleTutor, true)

	jane.IsDisplayedToStudents = false
	require.NoError(t, f.service.UpdateInstructorByGoogleID(ctx, "jane", jane))
}

func TestViolatesDisplayedInstructorRule(t *testing.T) {
	tests := []struct {
		name      string
		displayed int
		was, will bool
		want      bool
	}{
		{"turn on in course without displayed instructors", 0, false, true, true},
		{"keep hidden in course without displayed instructors", 0, false, false, false},
		{"hide the only displayed instructor", 1, true, false, true},
		{"keep the only displayed instructor", 1, true, true, false},
		{"hide one of two", 2, true, false, false},
		{"turn on a second", 1, false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, violatesDisplayedInstructorRule(tt.displayed, tt.was, tt.will))
		})
	}
}

func TestUpdateByEmailLinksGoogleID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.course(t, "CS101")
	pending := f.instructor(t, "CS101", "jane@uni.edu", "", "Jane Doe", models.RoleCoowner, true)
	assert.False(t, pending.IsRegistered())

	pending.GoogleID = "jane"
	require.NoError(t, f.service.UpdateInstructorByEmail(ctx, "jane@uni.edu", pending))

	linked, err := f.service.IsGoogleIDOfInstructorOfCourse(ctx, "jane", "CS101")
	require.NoError(t, err)
	assert.True(t, linked)

	err = f.service.UpdateInstructorByEmail(ctx, "ghost@uni.edu", pending)
	assert.True(t, apperrors.Is(err, apperrors.ErrResourceNotFound))
}

func TestDeleteInstructorCascadeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.course(t, "CS101")
	f.instructor(t, "CS101", "jane@uni.edu", "jane", "Jane Doe", models.RoleCoowner, true)
	require.NoError(t, f.sessions.CreateFeedbackSession(ctx, &models.FeedbackSession{CourseID: "CS101", Name: "Week 1"}))
	require.NoError(t, f.sessions.AddInstructorRespondent(ctx, "CS101", "Week 1", "jane@uni.edu"))

	require.NoError(t, f.service.DeleteInstructorCascade(ctx, "CS101", "jane@uni.edu"))
	require.NoError(t, f.service.DeleteInstructorCascade(ctx, "CS101", "jane@uni.edu"))

	gone, err := f.service.GetInstructorForEmail(ctx, "CS101", "jane@uni.edu")
	require.NoError(t, err)
	assert.Nil(t, gone)

	sessions, err := f.sessions.GetFeedbackSessionsForCourse(ctx, "CS101")
	require.NoError(t, err)
	assert.Empty(t, sessions[0].InstructorRespondents)
}

func TestDeleteInstructorsForGoogleIDAndCascade(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, courseID := range []string{"CS101", "CS102"} {
		f.course(t, courseID)
		f.instructor(t, courseID, "jane@uni.edu", "jane", "Jane Doe", models.RoleCoowner, true)
		require.NoError(t, f.sessions.CreateFeedbackSession(ctx, &models.FeedbackSession{CourseID: courseID, Name: "Week 1"}))
		require.NoError(t, f.sessions.AddInstructorRespondent(ctx, courseID, "Week 1", "jane@uni.edu"))
	}
	f.instructor(t, "CS101", "bob@uni.edu", "bob", "Bob", models.RoleTutor, true)

	require.NoError(t, f.service.DeleteInstructorsForGoogleIDAndCascade(ctx, "jane"))

	left, err := f.service.GetInstructorsForGoogleID(ctx, "jane", false)
	require.NoError(t, err)
	assert.Empty(t, left)

	for _, courseID := range []string{"CS101", "CS102"} {
		sessions, err := f.sessions.GetFeedbackSessionsForCourse(ctx, courseID)
		require.NoError(t, err)
		assert.Empty(t, sessions[0].InstructorRespondents)
	}

	bob, err := f.service.GetInstructorForEmail(ctx, "CS101", "bob@uni.edu")
	require.NoError(t, err)
	assert.NotNil(t, bob)
}

func TestDeleteInstructorsForCourseLeavesRespondents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.course(t, "CS101")
	f.instructor(t, "CS101", "jane@uni.edu", "jane", "Jane Doe", models.RoleCoowner, true)
	require.NoError(t, f.sessions.CreateFeedbackSession(ctx, &models.FeedbackSession{CourseID: "CS101", Name: "Week 1"}))
	require.NoError(t, f.sessions.AddInstructorRespondent(ctx, "CS101", "Week 1", "jane@uni.edu"))

	require.NoError(t, f.service.DeleteInstructorsForCourse(ctx, "CS101"))

	all, err := f.service.GetInstructorsForCourse(ctx, "CS101")
	require.NoError(t, err)
	assert.Empty(t, all)

	sessions, err := f.sessions.GetFeedbackSessionsForCourse(ctx, "CS101")
	require.NoError(t, err)
	assert.True(t, sessions[0].InstructorRespondents["jane@uni.edu"])
}

func TestIsNewInstructor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	isNew, err := f.service.IsNewInstructor(ctx, "jane")
	require.NoError(t, err)
	assert.True(t, isNew)

	sample := models.SampleCourseIDFor("jane")
	f.course(t, sample)
	f.instructor(t, sample, "jane@uni.edu", "jane", "Jane Doe", models.RoleCoowner, true)
	isNew, err = f.service.IsNewInstructor(ctx, "jane")
	require.NoError(t, err)
	assert.True(t, isNew)

	f.course(t, "CS101")
	f.instructor(t, "CS101", "jane@uni.edu", "jane", "Jane Doe", models.RoleCoowner, true)
	isNew, err = f.service.IsNewInstructor(ctx, "jane")
	require.NoError(t, err)
	assert.False(t, isNew)
}

func TestIsNewInstructorWithSingleRealCourse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.course(t, "CS101")
	f.instructor(t, "CS101", "jane@uni.edu", "jane", "Jane Doe", models.RoleCoowner, true)

	isNew, err := f.service.IsNewInstructor(ctx, "jane")
	require.NoError(t, err)
	assert.False(t, isNew)
}

func TestCoOwnersAreFilteredAndSorted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.course(t, "CS101")
	f.instructor(t, "CS101", "zed@uni.edu", "zed", "Zed", models.RoleCoowner, true)
	f.instructor(t, "CS101", "tom@uni.edu", "tom", "Tom", models.RoleTutor, true)
	f.instructor(t, "CS101", "amy@uni.edu", "amy", "Amy", models.RoleCoowner, true)
	f.instructor(t, "CS101", "max@uni.edu", "max", "Max", models.RoleManager, true)

	coOwners, err := f.service.GetCoOwnersForCourse(ctx, "CS101")
	require.NoError(t, err)

	names := make([]string, 0, len(coOwners))
	for _, i := range coOwners {
		names = append(names, i.Name)
	}
	assert.Equal(t, []string{"Amy", "Zed"}, names)

	all, err := f.service.GetInstructorsForCourse(ctx, "CS101")
	require.NoError(t, err)
	assert.Equal(t, "Amy", all[0].Name)
	assert.Equal(t, "Zed", all[3].Name)
}

func TestResetInstructorGoogleID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.course(t, "CS101")
	f.instructor(t, "CS101", "jane@uni.edu", "jane", "Jane Doe", models.RoleCoowner, true)

	require.NoError(t, f.service.ResetInstructorGoogleID(ctx, "jane@uni.edu", "CS101"))

	reset, err := f.service.GetInstructorForEmail(ctx, "CS101", "jane@uni.edu")
	require.NoError(t, err)
	assert.False(t, reset.IsRegistered())

	byGoogleID, err := f.service.GetInstructorForGoogleID(ctx, "CS101", "jane")
	require.NoError(t, err)
	assert.Nil(t, byGoogleID)

	err = f.service.ResetInstructorGoogleID(ctx, "ghost@uni.edu", "CS101")
	assert.True(t, apperrors.Is(err, apperrors.ErrResourceNotFound))
}

func TestSetArchiveStatusOfInstructor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.course(t, "CS101")
	f.course(t, "CS102")
	f.instructor(t, "CS101", "jane@uni.edu", "jane", "Jane Doe", models.RoleCoowner, true)
	f.instructor(t, "CS102", "jane@uni.edu", "jane", "Jane Doe", models.RoleCoowner, true)

	require.NoError(t, f.service.SetArchiveStatusOfInstructor(ctx, "jane", "CS101", true))

	active, err := f.service.GetInstructorsForGoogleID(ctx, "jane", true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "CS102", active[0].CourseID)

	all, err := f.service.GetInstructorsForGoogleID(ctx, "jane", false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	err = f.service.SetArchiveStatusOfInstructor(ctx, "ghost", "CS101", true)
	assert.True(t, apperrors.Is(err, apperrors.ErrResourceNotFound))
}

func TestVerifyHelpers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.course(t, "CS101")
	f.instructor(t, "CS101", "jane@uni.edu", "jane", "Jane Doe", models.RoleCoowner, true)
	require.NoError(t, f.accounts.CreateAccount(ctx, &models.Account{GoogleID: "jane", Name: "Jane Doe", Email: "jane@uni.edu", IsInstructor: true}))
	require.NoError(t, f.accounts.CreateAccount(ctx, &models.Account{GoogleID: "stu", Name: "Stu Dent", Email: "stu@uni.edu"}))

	assert.NoError(t, f.service.VerifyInstructorExists(ctx, "jane"))
	assert.True(t, apperrors.Is(f.service.VerifyInstructorExists(ctx, "stu"), apperrors.ErrResourceNotFound))
	assert.True(t, apperrors.Is(f.service.VerifyInstructorExists(ctx, "ghost"), apperrors.ErrResourceNotFound))

	assert.NoError(t, f.service.VerifyIsEmailOfInstructorOfCourse(ctx, "jane@uni.edu", "CS101"))
	assert.True(t, apperrors.Is(f.service.VerifyIsEmailOfInstructorOfCourse(ctx, "jane@uni.edu", "CS102"), apperrors.ErrResourceNotFound))

	_, err := f.service.GetEncryptedKeyForInstructor(ctx, "CS101", "ghost@uni.edu")
	assert.True(t, apperrors.Is(err, apperrors.ErrResourceNotFound))
}

func TestGetInvalidityInfoForNewInstructorData(t *testing.T) {
	f := newFixture(t)

	assert.Empty(t, f.service.GetInvalidityInfoForNewInstructorData("Jane Doe", "National University", "jane@uni.edu"))

	msgs := f.service.GetInvalidityInfoForNewInstructorData("", "|bad", "not-an-email")
	require.Len(t, msgs, 3)
	assert.Contains(t, msgs[0], "person name")
	assert.Contains(t, msgs[1], "email")
	assert.Contains(t, msgs[2], "institute name")
}

func TestSearchInstructorsInWholeSystemIsCapped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.course(t, "CS101")
	f.instructor(t, "CS101", "ann@uni.edu", "ann", "Ann", models.RoleCoowner, true)
	f.instructor(t, "CS101", "anna@uni.edu", "anna", "Anna", models.RoleTutor, true)
	f.instructor(t, "CS101", "annie@uni.edu", "annie", "Annie", models.RoleTutor, true)

	found, err := f.service.SearchInstructorsInWholeSystem(ctx, "ann")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	none, err := f.service.SearchInstructorsInWholeSystem(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, none)
}
