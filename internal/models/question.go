package models

import (
	"time"
)

type AnswerLetter string

const (
	AnswerA AnswerLetter = "A"
	AnswerB AnswerLetter = "B"
	AnswerC AnswerLetter = "C"
	AnswerD AnswerLetter = "D"
)

// Question is a four-option multiple choice item owned by exactly one exam.
type Question struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	ExamID uint   `json:"exam_id" gorm:"not null;index"`
	Text   string `json:"text" gorm:"type:text;not null" validate:"required"`

	OptionA string `json:"option_a" gorm:"not null;type:text" validate:"required"`
	OptionB string `json:"option_b" gorm:"not null;type:text" validate:"required"`
	OptionC string `json:"option_c" gorm:"not null;type:text" validate:"required"`
	OptionD string `json:"option_d" gorm:"not null;type:text" validate:"required"`

	CorrectAnswer AnswerLetter `json:"correct_answer" gorm:"not null;size:1" validate:"required,oneof=A B C D"`

	// Optional media for math/science diagrams and reading-comprehension passages.
	ImageURL       *string `json:"image_url" gorm:"size:500"`
	ReadingPassage *string `json:"reading_passage" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Exam Exam `json:"-" gorm:"foreignKey:ExamID"`
}

func (Question) TableName() string {
	return "questions"
}
