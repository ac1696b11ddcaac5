package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/peerfeedback/internal/app/models"
	"github.com/yigit/peerfeedback/internal/app/repositories/memory"
	"github.com/yigit/peerfeedback/internal/pkg/apperrors"
)

func TestCreateCourseValidatesAndDefaultsTimeZone(t *testing.T) {
	ctx := context.Background()
	svc := NewCourseService(memory.NewStore())

	err := svc.CreateCourse(ctx, &models.Course{ID: "CS 101", Name: " "})
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Len(t, apperrors.ValidationMessages(err), 2)

	course := &models.Course{ID: "CS101", Name: "Software Engineering"}
	require.NoError(t, svc.CreateCourse(ctx, course))
	assert.Equal(t, "UTC", course.TimeZone)

	err = svc.CreateCourse(ctx, &models.Course{ID: "CS101", Name: "Again"})
	assert.ErrorIs(t, err, apperrors.ErrResourceAlreadyExists)
}

func TestVerifyCourseIsPresent(t *testing.T) {
	ctx := context.Background()
	svc := NewCourseService(memory.NewStore())
	require.NoError(t, svc.CreateCourse(ctx, &models.Course{ID: "CS101", Name: "SE"}))

	assert.NoError(t, svc.VerifyCourseIsPresent(ctx, "CS101"))
	assert.ErrorIs(t, svc.VerifyCourseIsPresent(ctx, "MA101"), apperrors.ErrResourceNotFound)
	assert.True(t, svc.IsSampleCourse("jane-demo3"))
	assert.False(t, svc.IsSampleCourse("CS101"))
}

func TestAccountService(t *testing.T) {
	ctx := context.Background()
	svc := NewAccountService(memory.NewStore())

	assert.ErrorIs(t, svc.CreateAccount(ctx, &models.Account{}), apperrors.ErrValidationFailed)

	require.NoError(t, svc.CreateAccount(ctx, &models.Account{GoogleID: "jane", Name: "Jane Doe", Email: "jane@uni.edu", IsInstructor: true}))
	ok, err := svc.IsAccountAnInstructor(ctx, "jane")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsAccountAnInstructor(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFeedbackCommentDefaultsLastEditor(t *testing.T) {
	ctx := context.Background()
	svc := NewFeedbackCommentService(memory.NewStore(), zerolog.Nop())

	require.NoError(t, svc.CreateComment(ctx, &models.FeedbackResponseComment{
		CourseID: "CS101", FeedbackSessionName: "s1", CommentText: "ok", GiverEmail: "jane@uni.edu",
	}))
	comments, err := svc.GetCommentsForCourse(ctx, "CS101")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "jane@uni.edu", comments[0].LastEditorEmail)
}
