package models

import "time"

// FeedbackSession carries the instructor respondent list of one session.
// Respondents are keyed by instructor email.
type FeedbackSession struct {
	CourseID              string          `json:"courseId" db:"course_id"`
	Name                  string          `json:"name" db:"name"`
	InstructorRespondents map[string]bool `json:"instructorRespondents"`
}

// RespondentEmails returns the respondent emails
func (s *FeedbackSession) RespondentEmails() []string {
	emails := make([]string, 0, len(s.InstructorRespondents))
	for email := range s.InstructorRespondents {
		emails = append(emails, email)
	}
	return emails
}

// FeedbackResponseComment based on the 'feedback_response_comments' table
type FeedbackResponseComment struct {
	ID                  int64     `json:"id" db:"id"`
	CourseID            string    `json:"courseId" db:"course_id"`
	FeedbackSessionName string    `json:"feedbackSessionName" db:"feedback_session_name"`
	CommentText         string    `json:"commentText" db:"comment_text"`
	GiverEmail          string    `json:"giverEmail" db:"giver_email"`
	LastEditorEmail     string    `json:"lastEditorEmail" db:"last_editor_email"`
	CreatedAt           time.Time `json:"createdAt" db:"created_at"`
}
