package models

import (
	"time"

	"gorm.io/datatypes"
)

// Attempt is one scored submission. Rows are append-only: an attempt is
// written exactly once at submission time and never updated.
type Attempt struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"not null;index;size:255"`
	ExamID uint   `json:"exam_id" gorm:"not null;index"`

	// Score is the count of correct answers, in [0, question count].
	Score int `json:"score" gorm:"not null"`

	// Answers is the submitted question-id -> letter map, kept so an
	// attempt can be reviewed after the exam's questions change.
	Answers datatypes.JSON `json:"answers" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	User User `json:"user" gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT"`
	Exam Exam `json:"exam" gorm:"foreignKey:ExamID;constraint:OnDelete:RESTRICT"`
}

func (Attempt) TableName() string {
	return "attempts"
}
