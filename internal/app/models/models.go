package models

// UserRole is the platform role carried in access tokens
type UserRole string

const (
	UserRoleInstructor UserRole = "INSTRUCTOR"
	UserRoleAdmin      UserRole = "ADMIN"
)
