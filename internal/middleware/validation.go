package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/yigit/peerfeedback/internal/app/models/dto"
)

var validate = validator.New()

// ValidatedBodyKey holds the bound request body
const ValidatedBodyKey = "validatedBody"

// ValidateRequest binds the JSON body into a fresh T and validates its `validate` tags
func ValidateRequest[T any]() gin.HandlerFunc {
	return func(c *gin.Context) {
		body := new(T)
		if err := c.ShouldBindJSON(body); err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request format").WithDetails(err.Error())
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}

		if err := validate.Struct(body); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
			return
		}

		c.Set(ValidatedBodyKey, body)
		c.Next()
	}
}

// ValidatedBody returns the body bound by ValidateRequest
func ValidatedBody[T any](c *gin.Context) *T {
	return c.MustGet(ValidatedBodyKey).(*T)
}
