package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/peerfeedback/internal/app/controllers"
	"github.com/yigit/peerfeedback/internal/app/models"
	"github.com/yigit/peerfeedback/internal/app/models/dto"
	"github.com/yigit/peerfeedback/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	instructorController *controllers.InstructorController,
	authMiddleware *middleware.AuthMiddleware,
) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ok"}, ""))
	})

	// API version group
	v1 := router.Group("/api/v1")

	// --- Public routes ---
	v1.GET("/join", instructorController.JoinByKey)
	v1.POST("/instructors/validate",
		middleware.ValidateRequest[dto.ValidateInstructorDataRequest](),
		instructorController.ValidateInstructorData)

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	me := authenticated.Group("/instructors/me")
	me.Use(authMiddleware.RoleRequired(models.UserRoleInstructor, models.UserRoleAdmin))
	{
		me.GET("/courses", instructorController.GetMyInstructors)
		me.GET("/is-new", instructorController.IsNewInstructor)
	}

	courseInstructors := authenticated.Group("/courses/:courseId/instructors")
	courseInstructors.Use(
		authMiddleware.RoleRequired(models.UserRoleInstructor, models.UserRoleAdmin),
		authMiddleware.CourseInstructorRequired(),
	)
	canModifyInstructor := authMiddleware.CoursePrivilegeRequired(models.PrivilegeModifyInstructor)
	{
		courseInstructors.GET("", instructorController.GetInstructorsForCourse)
		courseInstructors.GET("/co-owners", instructorController.GetCoOwners)
		courseInstructors.GET("/lookup", instructorController.LookupByEmail)
		courseInstructors.GET("/key", canModifyInstructor, instructorController.GetRegistrationKey)
		courseInstructors.POST("",
			canModifyInstructor,
			middleware.ValidateRequest[dto.CreateInstructorRequest](),
			instructorController.CreateInstructor)
		courseInstructors.PUT("/me",
			middleware.ValidateRequest[dto.UpdateInstructorRequest](),
			instructorController.UpdateMe)
		courseInstructors.PUT("/me/archive",
			middleware.ValidateRequest[dto.ArchiveRequest](),
			instructorController.ArchiveMe)
		courseInstructors.PUT("/by-email",
			canModifyInstructor,
			middleware.ValidateRequest[dto.UpdateInstructorByEmailRequest](),
			instructorController.UpdateByEmail)
		courseInstructors.DELETE("", canModifyInstructor, instructorController.DeleteInstructor)

		// Admin only
		courseInstructors.POST("/reset-google-id",
			authMiddleware.RoleRequired(models.UserRoleAdmin),
			middleware.ValidateRequest[dto.ResetGoogleIDRequest](),
			instructorController.ResetGoogleID)
	}

	admin := authenticated.Group("/admin")
	admin.Use(authMiddleware.RoleRequired(models.UserRoleAdmin))
	{
		admin.GET("/instructors/search", instructorController.SearchInstructors)
		admin.DELETE("/accounts/:googleId/instructors", instructorController.DeleteAccountInstructors)
	}
}
