package models

import (
	"slices"
	"strings"

	"github.com/yigit/peerfeedback/internal/pkg/validation"
)

// Instructor defines a course-scoped instructor record based on the 'instructors' table.
// (CourseID, Email) identifies the record; (CourseID, GoogleID) does too once an account is linked.
type Instructor struct {
	ID                    int64                `json:"id" db:"id" example:"1"`
	CourseID              string               `json:"courseId" db:"course_id" example:"CS101-2025"`
	Email                 string               `json:"email" db:"email" example:"jane.doe@uni.edu"`
	GoogleID              string               `json:"googleId,omitempty" db:"google_id" example:"jane.doe"` // empty: account not linked yet
	Name                  string               `json:"name" db:"name" example:"Jane Doe"`
	Key                   string               `json:"-" db:"registration_key"`
	Role                  InstructorRole       `json:"role" db:"role" example:"Co-owner"`
	DisplayedName         string               `json:"displayedName" db:"display_name" example:"Instructor"`
	IsDisplayedToStudents bool                 `json:"isDisplayedToStudents" db:"is_displayed_to_students" example:"true"`
	IsArchived            bool                 `json:"isArchived" db:"is_archived" example:"false"`
	Privileges            InstructorPrivileges `json:"privileges" db:"privileges"`
}

// DefaultDisplayedName is shown to students when no display name is set
const DefaultDisplayedName = "Instructor"

// IsRegistered reports whether a Google account has been linked
func (i *Instructor) IsRegistered() bool {
	return i.GoogleID != ""
}

// HasCoownerPrivileges reports whether the instructor holds every course-level privilege
func (i *Instructor) HasCoownerPrivileges() bool {
	return i.Privileges.IsCoowner()
}

// Clone returns a deep copy
func (i *Instructor) Clone() *Instructor {
	if i == nil {
		return nil
	}
	c := *i
	c.Privileges = i.Privileges.Clone()
	return &c
}

// CompareByName orders instructors by name, case-sensitive
func CompareByName(a, b *Instructor) int {
	return strings.Compare(a.Name, b.Name)
}

// SortByName sorts in place by name; equal names keep their stored order
func SortByName(instructors []*Instructor) {
	slices.SortStableFunc(instructors, CompareByName)
}

// InvalidityInfo returns the validation messages for a stored instructor; empty means valid
func (i *Instructor) InvalidityInfo() []string {
	fv := validation.Default()
	var errs []string
	for _, msg := range []string{
		fv.InvalidityInfoForCourseID(i.CourseID),
		fv.InvalidityInfoForPersonName(i.Name),
		fv.InvalidityInfoForEmail(i.Email),
	} {
		if msg != "" {
			errs = append(errs, msg)
		}
	}
	if i.Role == "" {
		errs = append(errs, "An instructor role is required.")
	}
	return errs
}
