package models

// Account is a Google-account-backed user based on the 'accounts' table
type Account struct {
	GoogleID     string `json:"googleId" db:"google_id" example:"jane.doe"`
	Name         string `json:"name" db:"name" example:"Jane Doe"`
	Email        string `json:"email" db:"email" example:"jane.doe@uni.edu"`
	Institute    string `json:"institute" db:"institute" example:"National University"`
	IsInstructor bool   `json:"isInstructor" db:"is_instructor" example:"true"`
}
