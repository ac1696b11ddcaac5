package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/peerfeedback/internal/app/models/dto"
	"github.com/yigit/peerfeedback/internal/pkg/apperrors"
	"github.com/yigit/peerfeedback/internal/pkg/logger"
)

// HandleAPIError maps an error kind to its status code and writes the error envelope
func HandleAPIError(c *gin.Context, err error) {
	status, detail := errorDetailFor(err)
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled error")
	}
	c.JSON(status, dto.NewErrorResponse(detail))
}

func errorDetailFor(err error) (int, *dto.ErrorDetail) {
	message := err.Error()
	var ce *apperrors.CustomError
	hasMessage := errors.As(err, &ce) && ce.Message != ""

	switch {
	case errors.Is(err, apperrors.ErrResourceNotFound):
		return http.StatusNotFound, withMessage(dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Resource not found"), hasMessage, message)
	case errors.Is(err, apperrors.ErrResourceAlreadyExists):
		return http.StatusConflict, withMessage(dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, "Resource already exists"), hasMessage, message)
	case errors.Is(err, apperrors.ErrInvalidState):
		return http.StatusUnprocessableEntity, withMessage(dto.NewErrorDetail(dto.ErrorCodeInvalidState, "Invalid state"), hasMessage, message)
	case errors.Is(err, apperrors.ErrValidationFailed):
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed")
		if msgs := apperrors.ValidationMessages(err); len(msgs) > 0 {
			return http.StatusBadRequest, detail.WithDetails(msgs)
		}
		return http.StatusBadRequest, withMessage(detail, hasMessage, message)
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return http.StatusForbidden, withMessage(dto.NewErrorDetail(dto.ErrorCodeForbidden, "Permission denied"), hasMessage, message)
	case errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired")
	case errors.Is(err, apperrors.ErrTokenInvalid), errors.Is(err, apperrors.ErrInvalidFormat):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token")
	default:
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
	}
}

func withMessage(detail *dto.ErrorDetail, ok bool, message string) *dto.ErrorDetail {
	if ok {
		return detail.WithDetails(message)
	}
	return detail
}
