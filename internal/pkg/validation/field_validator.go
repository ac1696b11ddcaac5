package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldValidator produces human-readable messages for user-supplied fields.
// Every method returns "" when the value is acceptable.
type FieldValidator struct {
	validate *validator.Validate
}

// NewFieldValidator creates a FieldValidator
func NewFieldValidator() *FieldValidator {
	return &FieldValidator{validate: validator.New()}
}

// sizeCappedMessage is shared by the name-like fields
const sizeCappedMessage = "%q is not acceptable as %s because it %s. The value of %s should be no longer than %d characters. " +
	"It should not be empty. It must start with an alphanumeric character, and cannot contain any vertical bar (|) or percent sign (%%)."

const emailMessage = "%q is not acceptable as an email because it %s. An email address contains some text followed by one '@' sign " +
	"followed by some more text, and should end with a top level domain address like .com. It cannot be longer than %d characters, " +
	"cannot be empty and cannot contain spaces."

// InvalidityInfoForPersonName validates a person name
func (f *FieldValidator) InvalidityInfoForPersonName(name string) string {
	return f.nameLike(name, "a person name", PersonNameMaxLength)
}

// InvalidityInfoForInstituteName validates an institute name
func (f *FieldValidator) InvalidityInfoForInstituteName(institute string) string {
	return f.nameLike(institute, "an institute name", InstituteNameMaxLength)
}

// InvalidityInfoForCourseID validates a course id
func (f *FieldValidator) InvalidityInfoForCourseID(courseID string) string {
	failure := NewStringValidation(courseID).
		WithMaxLength(CourseIDMaxLength).
		WithPattern(CompiledPatterns.CourseID).
		Check()
	if failure == FailureNone {
		return ""
	}
	return fmt.Sprintf("%q is not acceptable as a course ID because it %s. A course ID can contain letters, numbers, "+
		"fullstops, hyphens, underscores, and dollar signs. It cannot be longer than %d characters, cannot be empty and cannot contain spaces.",
		courseID, failure, CourseIDMaxLength)
}

// InvalidityInfoForEmail validates an email address
func (f *FieldValidator) InvalidityInfoForEmail(email string) string {
	var failure Failure
	switch {
	case email == "":
		failure = FailureEmpty
	case len(email) > EmailMaxLength:
		failure = FailureTooLong
	case strings.TrimSpace(email) != email || f.validate.Var(email, "email") != nil:
		failure = "is not in the correct format"
	default:
		return ""
	}
	return fmt.Sprintf(emailMessage, email, failure, EmailMaxLength)
}

func (f *FieldValidator) nameLike(value, fieldName string, maxLen int) string {
	failure := NewStringValidation(value).
		WithMaxLength(maxLen).
		WithPattern(CompiledPatterns.Name).
		Check()
	if failure == FailureNone {
		return ""
	}
	return fmt.Sprintf(sizeCappedMessage, value, fieldName, failure, fieldName, maxLen)
}

var defaultFieldValidator = NewFieldValidator()

// Default returns a shared FieldValidator
func Default() *FieldValidator {
	return defaultFieldValidator
}
