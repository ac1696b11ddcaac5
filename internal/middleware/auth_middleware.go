package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/peerfeedback/internal/app/models"
	"github.com/yigit/peerfeedback/internal/app/models/dto"
	"github.com/yigit/peerfeedback/internal/pkg/apperrors"
	"github.com/yigit/peerfeedback/internal/pkg/auth"
)

// Context keys set by JWTAuth
const (
	ContextGoogleID = "googleID"
	ContextEmail    = "email"
	ContextRole     = "role"
)

// ContextCourseInstructor holds the caller's *models.Instructor, set by CourseInstructorRequired for non-admins
const ContextCourseInstructor = "courseInstructor"

// CourseMembership looks up the caller's instructor record in a course
type CourseMembership interface {
	GetInstructorForGoogleID(ctx context.Context, courseID, googleID string) (*models.Instructor, error)
}

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService *auth.JWTService
	membership CourseMembership
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService, membership CourseMembership) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		membership: membership,
	}
}

func abortUnauthorized(c *gin.Context, code dto.ErrorCode, details string) {
	errorDetail := dto.NewErrorDetail(code, "Authentication required").WithDetails(details)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
}

func abortForbidden(c *gin.Context, details string) {
	errorDetail := dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied").WithDetails(details)
	c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(errorDetail))
}

// JWTAuth middleware for JWT token validation
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authorization header missing")
			return
		}

		tokenString, err := auth.ExtractBearerToken(authHeader)
		if err != nil {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Invalid token format")
			return
		}

		claims, err := m.jwtService.ValidateAndExtractClaims(tokenString)
		if err != nil {
			if errors.Is(err, apperrors.ErrTokenExpired) {
				abortUnauthorized(c, dto.ErrorCodeExpiredToken, "Token has expired")
				return
			}
			abortUnauthorized(c, dto.ErrorCodeInvalidToken, "Invalid token")
			return
		}

		c.Set(ContextGoogleID, claims.GoogleID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)

		c.Next()
	}
}

// RoleRequired middleware to check if user has one of the allowed roles
func (m *AuthMiddleware) RoleRequired(allowed ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if role == "" {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "User role not found")
			return
		}

		for _, r := range allowed {
			if role == string(r) {
				c.Next()
				return
			}
		}
		abortForbidden(c, "You don't have sufficient permissions for this operation")
	}
}

// CourseInstructorRequired lets admins through and requires everyone else to teach :courseId
func (m *AuthMiddleware) CourseInstructorRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextRole) == string(models.UserRoleAdmin) {
			c.Next()
			return
		}

		googleID := c.GetString(ContextGoogleID)
		courseID := c.Param("courseId")
		instructor, err := m.membership.GetInstructorForGoogleID(c.Request.Context(), courseID, googleID)
		if err != nil {
			HandleAPIError(c, err)
			c.Abort()
			return
		}
		if instructor == nil {
			abortForbidden(c, "You are not an instructor of this course")
			return
		}
		c.Set(ContextCourseInstructor, instructor)
		c.Next()
	}
}

// CoursePrivilegeRequired must run after CourseInstructorRequired. Admins pass; instructors need privilege.
func (m *AuthMiddleware) CoursePrivilegeRequired(privilege string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextRole) == string(models.UserRoleAdmin) {
			c.Next()
			return
		}

		instructor, ok := CourseInstructorFrom(c)
		if !ok || !instructor.Privileges.IsAllowed(privilege) {
			abortForbidden(c, "You don't have the "+privilege+" privilege in this course")
			return
		}
		c.Next()
	}
}

// CourseInstructorFrom returns the caller's instructor record stored by CourseInstructorRequired
func CourseInstructorFrom(c *gin.Context) (*models.Instructor, bool) {
	value, ok := c.Get(ContextCourseInstructor)
	if !ok {
		return nil, false
	}
	instructor, ok := value.(*models.Instructor)
	return instructor, ok && instructor != nil
}
