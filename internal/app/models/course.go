package models

import (
	"regexp"
	"time"
)

// sampleCourseIDPattern matches system-generated onboarding courses, e.g. "jane.doe-demo" or "jane.doe-demo3"
var sampleCourseIDPattern = regexp.MustCompile(`^.*-demo\d*$`)

// Course represents a course based on the 'courses' table
type Course struct {
	ID        string    `json:"id" db:"id" example:"CS101-2025"`
	Name      string    `json:"name" db:"name" example:"Software Engineering"`
	TimeZone  string    `json:"timeZone" db:"time_zone" example:"UTC"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// IsSampleCourseID reports whether the course id belongs to a system-generated sample course
func IsSampleCourseID(courseID string) bool {
	return sampleCourseIDPattern.MatchString(courseID)
}

// SampleCourseIDFor derives the sample course id for an account
func SampleCourseIDFor(googleID string) string {
	return googleID + "-demo"
}
