package seed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	appModels "github.com/yigit/peerfeedback/internal/app/models"
	appServices "github.com/yigit/peerfeedback/internal/app/services"
	"github.com/yigit/peerfeedback/internal/config"
	pkgAuth "github.com/yigit/peerfeedback/internal/pkg/auth"
	"github.com/yigit/peerfeedback/internal/pkg/apperrors"
)

// Services are the collaborators needed to create the demo data
type Services struct {
	Courses     *appServices.CourseService
	Accounts    *appServices.AccountService
	Sessions    *appServices.FeedbackSessionService
	Comments    *appServices.FeedbackCommentService
	Instructors appServices.InstructorService
	JWT         *pkgAuth.JWTService
}

const demoSessionName = "First team feedback"

// CreateDefaultData creates a demo account with its sample course if they don't exist.
// Errors are collected so one failing step does not stop the rest.
func CreateDefaultData(ctx context.Context, cfg *config.Config, svc Services, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default data (demo instructor and sample course)...")
	var finalErr error

	account := &appModels.Account{
		GoogleID:     cfg.Seed.GoogleID,
		Name:         cfg.Seed.InstructorName,
		Email:        cfg.Seed.InstructorEmail,
		Institute:    "Demo Institute",
		IsInstructor: true,
	}
	if err := svc.Accounts.CreateAccount(ctx, account); err != nil {
		lgr.Error().Err(err).Msg("Error creating demo account")
		return err
	}

	courseID := appModels.SampleCourseIDFor(account.GoogleID)
	course := &appModels.Course{ID: courseID, Name: "Sample Course", TimeZone: "UTC"}
	if err := svc.Courses.CreateCourse(ctx, course); err != nil && !errors.Is(err, apperrors.ErrResourceAlreadyExists) {
		lgr.Error().Err(err).Str("courseId", courseID).Msg("Error creating sample course")
		finalErr = errors.Join(finalErr, err)
	}

	instructor := &appModels.Instructor{
		CourseID:              courseID,
		Email:                 account.Email,
		GoogleID:              account.GoogleID,
		Name:                  account.Name,
		Role:                  appModels.RoleCoowner,
		IsDisplayedToStudents: true,
	}
	if _, err := svc.Instructors.CreateInstructor(ctx, instructor); err != nil {
		if errors.Is(err, apperrors.ErrResourceAlreadyExists) {
			lgr.Info().Str("courseId", courseID).Msg("Demo instructor already exists, skipping creation")
		} else {
			lgr.Error().Err(err).Msg("Error creating demo instructor")
			finalErr = errors.Join(finalErr, err)
		}
	}

	session := &appModels.FeedbackSession{CourseID: courseID, Name: demoSessionName}
	if err := svc.Sessions.CreateFeedbackSession(ctx, session); err != nil && !errors.Is(err, apperrors.ErrResourceAlreadyExists) {
		lgr.Error().Err(err).Msg("Error creating demo feedback session")
		finalErr = errors.Join(finalErr, err)
	} else if err == nil {
		if err := svc.Sessions.AddInstructorRespondent(ctx, courseID, demoSessionName, account.Email); err != nil {
			lgr.Error().Err(err).Msg("Error adding demo respondent")
			finalErr = errors.Join(finalErr, err)
		}
		comment := &appModels.FeedbackResponseComment{
			CourseID:            courseID,
			FeedbackSessionName: demoSessionName,
			CommentText:         "Great teamwork this week.",
			GiverEmail:          account.Email,
		}
		if err := svc.Comments.CreateComment(ctx, comment); err != nil {
			lgr.Error().Err(err).Msg("Error creating demo comment")
			finalErr = errors.Join(finalErr, err)
		}
	}

	if svc.JWT != nil {
		token, expiresIn, err := svc.JWT.GenerateToken(account, appModels.UserRoleInstructor)
		if err != nil {
			finalErr = errors.Join(finalErr, err)
		} else {
			lgr.Info().Str("googleId", account.GoogleID).Int("expiresIn", expiresIn).Msg("Demo instructor token issued")
			lgr.Debug().Str("googleId", account.GoogleID).Str("token", token).Msg("Demo instructor token")
		}
	}

	lgr.Info().Msg("Default data check/creation finished.")
	return finalErr
}
