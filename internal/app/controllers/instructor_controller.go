package controllers

import (
	"fmt"
	"maps"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/peerfeedback/internal/app/models"
	"github.com/yigit/peerfeedback/internal/app/models/dto"
	"github.com/yigit/peerfeedback/internal/app/services"
	"github.com/yigit/peerfeedback/internal/middleware"
	"github.com/yigit/peerfeedback/internal/pkg/apperrors"
)

// InstructorController handles instructor related operations
type InstructorController struct {
	instructorService services.InstructorService
}

// NewInstructorController creates a new instructor controller
func NewInstructorController(instructorService services.InstructorService) *InstructorController {
	return &InstructorController{
		instructorService: instructorService,
	}
}

func badRequest(ctx *gin.Context, message, details string) {
	errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, message).WithDetails(details)
	ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
}

func notFound(ctx *gin.Context, details string) {
	errorDetail := dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Instructor not found").WithDetails(details)
	ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(errorDetail))
}

func privilegesFrom(role models.InstructorRole, requested map[string]bool) models.InstructorPrivileges {
	if role != models.RoleCustom || len(requested) == 0 {
		return models.NewPrivilegesForRole(role)
	}
	p := models.NewPrivilegesForRole(models.RoleCustom)
	for name, allowed := range requested {
		if _, known := p.CourseLevel[name]; known {
			p.CourseLevel[name] = allowed
		}
	}
	return p
}

// changesAccess reports whether an edit alters the role or privileges on file
func changesAccess(current *models.Instructor, role models.InstructorRole, privileges models.InstructorPrivileges) bool {
	return current.Role != role || !maps.Equal(current.Privileges.CourseLevel, privileges.CourseLevel)
}

// JoinByKey resolves an encrypted registration key
// @Summary Look up an instructor by registration key
// @Tags instructors
// @Produce json
// @Param key query string true "Encrypted registration key"
// @Success 200 {object} dto.APIResponse{data=dto.InstructorResponse}
// @Failure 404 {object} dto.ErrorResponse
// @Router /join [get]
func (c *InstructorController) JoinByKey(ctx *gin.Context) {
	key := ctx.Query("key")
	if key == "" {
		badRequest(ctx, "Missing registration key", "The key query parameter is required")
		return
	}

	instructor, err := c.instructorService.GetInstructorForRegistrationKey(ctx.Request.Context(), key)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if instructor == nil {
		notFound(ctx, "No instructor matches this registration key")
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewInstructorResponse(instructor), "Instructor retrieved successfully"))
}

// ValidateInstructorData checks sign-up data without storing it
// @Summary Validate new instructor data
// @Tags instructors
// @Accept json
// @Produce json
// @Param request body dto.ValidateInstructorDataRequest true "Data to validate"
// @Success 200 {object} dto.APIResponse{data=dto.ValidationResultResponse}
// @Router /instructors/validate [post]
func (c *InstructorController) ValidateInstructorData(ctx *gin.Context) {
	req := middleware.ValidatedBody[dto.ValidateInstructorDataRequest](ctx)

	msgs := c.instructorService.GetInvalidityInfoForNewInstructorData(req.Name, req.Institute, req.Email)
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ValidationResultResponse{
		Valid:    len(msgs) == 0,
		Messages: msgs,
	}, "Validation completed"))
}

// GetMyInstructors lists the caller's instructor records
// @Summary List the caller's courses as instructor
// @Tags instructors
// @Produce json
// @Security BearerAuth
// @Param omitArchived query bool false "Skip archived courses"
// @Success 200 {object} dto.APIResponse{data=dto.InstructorsResponse}
// @Router /instructors/me/courses [get]
func (c *InstructorController) GetMyInstructors(ctx *gin.Context) {
	omitArchived := false
	if raw := ctx.Query("omitArchived"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(ctx, "Invalid omitArchived", "omitArchived must be true or false")
			return
		}
		omitArchived = parsed
	}

	googleID := ctx.GetString(middleware.ContextGoogleID)
	instructors, err := c.instructorService.GetInstructorsForGoogleID(ctx.Request.Context(), googleID, omitArchived)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewInstructorsResponse(instructors), "Instructors retrieved successfully"))
}

// IsNewInstructor reports whether the caller only has a sample course
// @Summary New instructor check
// @Tags instructors
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.IsNewInstructorResponse}
// @Router /instructors/me/is-new [get]
func (c *InstructorController) IsNewInstructor(ctx *gin.Context) {
	isNew, err := c.instructorService.IsNewInstructor(ctx.Request.Context(), ctx.GetString(middleware.ContextGoogleID))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.IsNewInstructorResponse{IsNew: isNew}, ""))
}

// GetInstructorsForCourse lists a course's instructors by name
// @Summary List course instructors
// @Tags instructors
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "Course ID"
// @Success 200 {object} dto.APIResponse{data=dto.InstructorsResponse}
// @Router /courses/{courseId}/instructors [get]
func (c *InstructorController) GetInstructorsForCourse(ctx *gin.Context) {
	instructors, err := c.instructorService.GetInstructorsForCourse(ctx.Request.Context(), ctx.Param("courseId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewInstructorsResponse(instructors), "Instructors retrieved successfully"))
}

// GetCoOwners lists the co-owners of a course
// @Summary List course co-owners
// @Tags instructors
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "Course ID"
// @Success 200 {object} dto.APIResponse{data=dto.InstructorsResponse}
// @Router /courses/{courseId}/instructors/co-owners [get]
func (c *InstructorController) GetCoOwners(ctx *gin.Context) {
	instructors, err := c.instructorService.GetCoOwnersForCourse(ctx.Request.Context(), ctx.Param("courseId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewInstructorsResponse(instructors), "Co-owners retrieved successfully"))
}

// LookupByEmail returns one instructor of a course
// @Summary Look up an instructor by email
// @Tags instructors
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "Course ID"
// @Param email query string true "Instructor email"
// @Success 200 {object} dto.APIResponse{data=dto.InstructorResponse}
// @Failure 404 {object} dto.ErrorResponse
// @Router /courses/{courseId}/instructors/lookup [get]
func (c *InstructorController) LookupByEmail(ctx *gin.Context) {
	email := ctx.Query("email")
	if email == "" {
		badRequest(ctx, "Missing email", "The email query parameter is required")
		return
	}

	instructor, err := c.instructorService.GetInstructorForEmail(ctx.Request.Context(), ctx.Param("courseId"), email)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if instructor == nil {
		notFound(ctx, "Instructor "+email+" does not belong to course "+ctx.Param("courseId"))
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewInstructorResponse(instructor), "Instructor retrieved successfully"))
}

// CreateInstructor adds an instructor to a course
// @Summary Add an instructor
// @Tags instructors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "Course ID"
// @Param request body dto.CreateInstructorRequest true "Instructor"
// @Success 201 {object} dto.APIResponse{data=dto.InstructorResponse}
// @Failure 409 {object} dto.ErrorResponse
// @Router /courses/{courseId}/instructors [post]
func (c *InstructorController) CreateInstructor(ctx *gin.Context) {
	req := middleware.ValidatedBody[dto.CreateInstructorRequest](ctx)
	role := models.InstructorRole(req.Role)

	created, err := c.instructorService.CreateInstructor(ctx.Request.Context(), &models.Instructor{
		CourseID:              ctx.Param("courseId"),
		Email:                 req.Email,
		GoogleID:              req.GoogleID,
		Name:                  req.Name,
		Role:                  role,
		DisplayedName:         req.DisplayedName,
		IsDisplayedToStudents: *req.IsDisplayedToStudents,
		Privileges:            privilegesFrom(role, req.Privileges),
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewInstructorResponse(created), "Instructor created successfully"))
}

// UpdateMe updates the caller's record in a course, cascading an email change
// @Summary Update own instructor record
// @Tags instructors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "Course ID"
// @Param request body dto.UpdateInstructorRequest true "New values"
// @Success 200 {object} dto.APIResponse
// @Failure 422 {object} dto.ErrorResponse "Last displayed instructor"
// @Router /courses/{courseId}/instructors/me [put]
func (c *InstructorController) UpdateMe(ctx *gin.Context) {
	req := middleware.ValidatedBody[dto.UpdateInstructorRequest](ctx)
	reqCtx := ctx.Request.Context()
	googleID := ctx.GetString(middleware.ContextGoogleID)
	courseID := ctx.Param("courseId")
	role := models.InstructorRole(req.Role)
	privileges := privilegesFrom(role, req.Privileges)

	current, err := c.instructorService.GetInstructorForGoogleID(reqCtx, courseID, googleID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if current == nil {
		middleware.HandleAPIError(ctx, apperrors.NewResourceNotFoundError(fmt.Sprintf("You are not an instructor of course %s", courseID)))
		return
	}
	isAdmin := ctx.GetString(middleware.ContextRole) == string(models.UserRoleAdmin)
	if !isAdmin && changesAccess(current, role, privileges) && !current.Privileges.IsAllowed(models.PrivilegeModifyInstructor) {
		middleware.HandleAPIError(ctx, apperrors.NewForbiddenError("Changing your role or privileges requires the "+models.PrivilegeModifyInstructor+" privilege"))
		return
	}

	err = c.instructorService.UpdateInstructorByGoogleID(reqCtx, googleID, &models.Instructor{
		CourseID:              courseID,
		Email:                 req.Email,
		GoogleID:              googleID,
		Name:                  req.Name,
		Role:                  role,
		DisplayedName:         req.DisplayedName,
		IsDisplayedToStudents: *req.IsDisplayedToStudents,
		IsArchived:            current.IsArchived,
		Privileges:            privileges,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Instructor updated successfully"))
}

// ArchiveMe sets the archive status of a course for the caller
// @Summary Archive or unarchive a course for oneself
// @Tags instructors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "Course ID"
// @Param request body dto.ArchiveRequest true "Archive status"
// @Success 200 {object} dto.APIResponse
// @Router /courses/{courseId}/instructors/me/archive [put]
func (c *InstructorController) ArchiveMe(ctx *gin.Context) {
	req := middleware.ValidatedBody[dto.ArchiveRequest](ctx)

	err := c.instructorService.SetArchiveStatusOfInstructor(ctx.Request.Context(),
		ctx.GetString(middleware.ContextGoogleID), ctx.Param("courseId"), *req.Archived)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Archive status updated successfully"))
}

// UpdateByEmail updates an instructor identified by email
// @Summary Update an instructor by email
// @Tags instructors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "Course ID"
// @Param request body dto.UpdateInstructorByEmailRequest true "New values"
// @Success 200 {object} dto.APIResponse
// @Router /courses/{courseId}/instructors/by-email [put]
func (c *InstructorController) UpdateByEmail(ctx *gin.Context) {
	req := middleware.ValidatedBody[dto.UpdateInstructorByEmailRequest](ctx)
	reqCtx := ctx.Request.Context()
	courseID := ctx.Param("courseId")
	role := models.InstructorRole(req.Role)

	current, err := c.instructorService.GetInstructorForEmail(reqCtx, courseID, req.Email)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if current == nil {
		middleware.HandleAPIError(ctx, apperrors.NewResourceNotFoundError(fmt.Sprintf("Instructor %s does not belong to course %s", req.Email, courseID)))
		return
	}

	err = c.instructorService.UpdateInstructorByEmail(reqCtx, req.Email, &models.Instructor{
		CourseID:              courseID,
		Email:                 req.Email,
		GoogleID:              req.GoogleID,
		Name:                  req.Name,
		Role:                  role,
		DisplayedName:         req.DisplayedName,
		IsDisplayedToStudents: *req.IsDisplayedToStudents,
		IsArchived:            current.IsArchived,
		Privileges:            privilegesFrom(role, req.Privileges),
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Instructor updated successfully"))
}

// ResetGoogleID unlinks an instructor's account
// @Summary Reset an instructor's Google ID
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "Course ID"
// @Param request body dto.ResetGoogleIDRequest true "Instructor"
// @Success 200 {object} dto.APIResponse
// @Router /courses/{courseId}/instructors/reset-google-id [post]
func (c *InstructorController) ResetGoogleID(ctx *gin.Context) {
	req := middleware.ValidatedBody[dto.ResetGoogleIDRequest](ctx)

	if err := c.instructorService.ResetInstructorGoogleID(ctx.Request.Context(), req.Email, ctx.Param("courseId")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Google ID reset successfully"))
}

// GetRegistrationKey returns an instructor's encrypted join key
// @Summary Get encrypted registration key
// @Tags instructors
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "Course ID"
// @Param email query string true "Instructor email"
// @Success 200 {object} dto.APIResponse{data=dto.RegistrationKeyResponse}
// @Router /courses/{courseId}/instructors/key [get]
func (c *InstructorController) GetRegistrationKey(ctx *gin.Context) {
	email := ctx.Query("email")
	if email == "" {
		badRequest(ctx, "Missing email", "The email query parameter is required")
		return
	}

	key, err := c.instructorService.GetEncryptedKeyForInstructor(ctx.Request.Context(), ctx.Param("courseId"), email)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.RegistrationKeyResponse{Key: key}, ""))
}

// DeleteInstructor removes an instructor and its respondent entries
// @Summary Delete an instructor
// @Tags instructors
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "Course ID"
// @Param email query string true "Instructor email"
// @Success 200 {object} dto.APIResponse
// @Router /courses/{courseId}/instructors [delete]
func (c *InstructorController) DeleteInstructor(ctx *gin.Context) {
	email := ctx.Query("email")
	if email == "" {
		badRequest(ctx, "Missing email", "The email query parameter is required")
		return
	}

	if err := c.instructorService.DeleteInstructorCascade(ctx.Request.Context(), ctx.Param("courseId"), email); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Instructor deleted successfully"))
}

// SearchInstructors searches instructors across all courses
// @Summary Search instructors
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param q query string true "Search text"
// @Success 200 {object} dto.APIResponse{data=dto.InstructorsResponse}
// @Router /admin/instructors/search [get]
func (c *InstructorController) SearchInstructors(ctx *gin.Context) {
	instructors, err := c.instructorService.SearchInstructorsInWholeSystem(ctx.Request.Context(), ctx.Query("q"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewInstructorsResponse(instructors), "Search completed"))
}

// DeleteAccountInstructors removes every instructor record of an account
// @Summary Delete all instructor records of an account
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param googleId path string true "Google ID"
// @Success 200 {object} dto.APIResponse
// @Router /admin/accounts/{googleId}/instructors [delete]
func (c *InstructorController) DeleteAccountInstructors(ctx *gin.Context) {
	if err := c.instructorService.DeleteInstructorsForGoogleIDAndCascade(ctx.Request.Context(), ctx.Param("googleId")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Instructors deleted successfully"))
}
