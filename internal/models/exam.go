package models

import (
	"time"
)

type EducationLevel string

const (
	LevelPrimary    EducationLevel = "primary"
	LevelSecondary  EducationLevel = "secondary"
	LevelHighSchool EducationLevel = "high_school"
	LevelUniversity EducationLevel = "university"
)

type Exam struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	Title            string         `json:"title" gorm:"not null;size:100;index" validate:"required,min=1,max=100"`
	Description      string         `json:"description" gorm:"type:text"`
	TimeLimitMinutes int            `json:"time_limit_minutes" gorm:"not null;default:60" validate:"required,min=1,max=180"`
	AccessCode       string         `json:"access_code" gorm:"uniqueIndex;not null;size:8"`
	IsPublished      bool           `json:"is_published" gorm:"not null;default:false;index"`
	Level            EducationLevel `json:"level" gorm:"size:20;default:university"`

	// Metadata
	CreatedBy string    `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations. Questions and attempts restrict deletion of their exam;
	// the exam restricts deletion of its creator.
	Creator   User       `json:"creator" gorm:"foreignKey:CreatedBy;constraint:OnDelete:RESTRICT"`
	Questions []Question `json:"questions" gorm:"foreignKey:ExamID;constraint:OnDelete:RESTRICT"`
	Attempts  []Attempt  `json:"attempts" gorm:"foreignKey:ExamID;constraint:OnDelete:RESTRICT"`

	// Computed fields (not stored)
	QuestionCount int     `json:"question_count" gorm:"-"`
	AttemptCount  int     `json:"attempt_count" gorm:"-"`
	AvgScore      float64 `json:"avg_score" gorm:"-"`
}

func (Exam) TableName() string {
	return "exams"
}
