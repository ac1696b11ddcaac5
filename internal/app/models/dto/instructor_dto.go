package dto

import "github.com/yigit/peerfeedback/internal/app/models"

// InstructorResponse is the public view of an instructor; the registration key is never exposed
type InstructorResponse struct {
	ID                    int64           `json:"id" example:"1"`
	CourseID              string          `json:"courseId" example:"CS101-2025"`
	Email                 string          `json:"email" example:"jane.doe@uni.edu"`
	GoogleID              string          `json:"googleId,omitempty" example:"jane.doe"`
	Name                  string          `json:"name" example:"Jane Doe"`
	Role                  string          `json:"role" example:"Co-owner"`
	DisplayedName         string          `json:"displayedName" example:"Instructor"`
	IsDisplayedToStudents bool            `json:"isDisplayedToStudents" example:"true"`
	IsArchived            bool            `json:"isArchived" example:"false"`
	IsRegistered          bool            `json:"isRegistered" example:"true"`
	Privileges            map[string]bool `json:"privileges"`
}

// InstructorsResponse represents a list of instructors
type InstructorsResponse struct {
	Instructors []InstructorResponse `json:"instructors"`
}

// NewInstructorResponse maps a model to its response
func NewInstructorResponse(i *models.Instructor) InstructorResponse {
	return InstructorResponse{
		ID:                    i.ID,
		CourseID:              i.CourseID,
		Email:                 i.Email,
		GoogleID:              i.GoogleID,
		Name:                  i.Name,
		Role:                  string(i.Role),
		DisplayedName:         i.DisplayedName,
		IsDisplayedToStudents: i.IsDisplayedToStudents,
		IsArchived:            i.IsArchived,
		IsRegistered:          i.IsRegistered(),
		Privileges:            i.Privileges.Clone().CourseLevel,
	}
}

// NewInstructorsResponse maps a list of models, keeping their order
func NewInstructorsResponse(list []*models.Instructor) InstructorsResponse {
	resp := InstructorsResponse{Instructors: make([]InstructorResponse, 0, len(list))}
	for _, i := range list {
		resp.Instructors = append(resp.Instructors, NewInstructorResponse(i))
	}
	return resp
}

// CreateInstructorRequest adds an instructor to a course
type CreateInstructorRequest struct {
	Email                 string          `json:"email" validate:"required,email,max=254" example:"jane.doe@uni.edu"`
	Name                  string          `json:"name" validate:"required,max=100" example:"Jane Doe"`
	GoogleID              string          `json:"googleId,omitempty" example:"jane.doe"`
	Role                  string          `json:"role" validate:"required,oneof=Co-owner Manager Observer Tutor Custom" example:"Co-owner"`
	DisplayedName         string          `json:"displayedName,omitempty" example:"Instructor"`
	IsDisplayedToStudents *bool           `json:"isDisplayedToStudents" validate:"required" example:"true"`
	Privileges            map[string]bool `json:"privileges,omitempty"`
}

// UpdateInstructorRequest updates the caller's own instructor record; email may change
type UpdateInstructorRequest struct {
	Email                 string          `json:"email" validate:"required,email,max=254" example:"jane.doe@uni.edu"`
	Name                  string          `json:"name" validate:"required,max=100" example:"Jane Doe"`
	Role                  string          `json:"role" validate:"required,oneof=Co-owner Manager Observer Tutor Custom" example:"Co-owner"`
	DisplayedName         string          `json:"displayedName,omitempty" example:"Instructor"`
	IsDisplayedToStudents *bool           `json:"isDisplayedToStudents" validate:"required" example:"true"`
	Privileges            map[string]bool `json:"privileges,omitempty"`
}

// UpdateInstructorByEmailRequest updates the instructor with the given email; google id may change
type UpdateInstructorByEmailRequest struct {
	Email                 string          `json:"email" validate:"required,email,max=254" example:"jane.doe@uni.edu"`
	GoogleID              string          `json:"googleId,omitempty" example:"jane.doe"`
	Name                  string          `json:"name" validate:"required,max=100" example:"Jane Doe"`
	Role                  string          `json:"role" validate:"required,oneof=Co-owner Manager Observer Tutor Custom" example:"Co-owner"`
	DisplayedName         string          `json:"displayedName,omitempty" example:"Instructor"`
	IsDisplayedToStudents *bool           `json:"isDisplayedToStudents" validate:"required" example:"true"`
	Privileges            map[string]bool `json:"privileges,omitempty"`
}

// ArchiveRequest sets the archive status of the caller's course
type ArchiveRequest struct {
	Archived *bool `json:"archived" validate:"required" example:"true"`
}

// ResetGoogleIDRequest names the instructor whose account link is cleared
type ResetGoogleIDRequest struct {
	Email string `json:"email" validate:"required,email" example:"jane.doe@uni.edu"`
}

// ValidateInstructorDataRequest carries unvalidated sign-up data
type ValidateInstructorDataRequest struct {
	Name      string `json:"name" example:"Jane Doe"`
	Institute string `json:"institute" example:"National University"`
	Email     string `json:"email" example:"jane.doe@uni.edu"`
}

// ValidationResultResponse lists the problems found, in field order
type ValidationResultResponse struct {
	Valid    bool     `json:"valid" example:"false"`
	Messages []string `json:"messages"`
}

// IsNewInstructorResponse reports the onboarding state of the caller
type IsNewInstructorResponse struct {
	IsNew bool `json:"isNew" example:"true"`
}

// RegistrationKeyResponse carries an encrypted join-link key
type RegistrationKeyResponse struct {
	Key string `json:"key" example:"eyJhbGciOi..."`
}
