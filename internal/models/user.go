package models

import (
	"time"
)

type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleStudent UserRole = "student"
)

// User is the local identity record. Credential material lives here because
// the service hashes and verifies passwords itself; there is no external IdP.
type User struct {
	ID           string   `json:"id" gorm:"primaryKey;size:255"`
	UserName     string   `json:"user_name" gorm:"not null;size:255"` // always set to the email at registration
	FullName     string   `json:"full_name" gorm:"not null;size:100"`
	Email        string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	PasswordHash string   `json:"-" gorm:"not null;size:255"`
	Role         UserRole `json:"role" gorm:"not null;default:student;size:20;index"`

	// Password reset state. Nil token means no reset is pending.
	ResetToken        *string    `json:"-" gorm:"size:64;index"`
	ResetTokenExpires *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	CreatedExams []Exam    `json:"created_exams,omitempty" gorm:"foreignKey:CreatedBy"`
	Attempts     []Attempt `json:"attempts,omitempty" gorm:"foreignKey:UserID"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
