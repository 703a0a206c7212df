package validator

import (
	"github.com/examcore/exam-service/internal/models"
)

// ExamCreateRequest carries the fields an admin supplies when authoring an
// exam. AccessCode may be blank, in which case one is generated.
type ExamCreateRequest struct {
	Title            string                `json:"title" validate:"required,min=1,max=100"`
	Description      string                `json:"description" validate:"omitempty,max=2000"`
	TimeLimitMinutes int                   `json:"time_limit_minutes" validate:"required,exam_duration"`
	AccessCode       string                `json:"access_code" validate:"omitempty,access_code"`
	IsPublished      bool                  `json:"is_published"`
	Level            models.EducationLevel `json:"level" validate:"omitempty,oneof=primary secondary high_school university"`
}

// ExamUpdateRequest replaces the editable exam fields. The access code is
// re-checked for uniqueness only when it differs from the stored one.
type ExamUpdateRequest struct {
	Title            *string                `json:"title" validate:"omitempty,min=1,max=100"`
	Description      *string                `json:"description" validate:"omitempty,max=2000"`
	TimeLimitMinutes *int                   `json:"time_limit_minutes" validate:"omitempty,exam_duration"`
	AccessCode       *string                `json:"access_code" validate:"omitempty,access_code"`
	IsPublished      *bool                  `json:"is_published"`
	Level            *models.EducationLevel `json:"level" validate:"omitempty,oneof=primary secondary high_school university"`
}

type QuestionCreateRequest struct {
	ExamID         uint    `json:"exam_id" validate:"required"`
	Text           string  `json:"text" validate:"required,max=2000"`
	OptionA        string  `json:"option_a" validate:"required,max=1000"`
	OptionB        string  `json:"option_b" validate:"required,max=1000"`
	OptionC        string  `json:"option_c" validate:"required,max=1000"`
	OptionD        string  `json:"option_d" validate:"required,max=1000"`
	CorrectAnswer  string  `json:"correct_answer" validate:"required,answer_letter"`
	ImageURL       *string `json:"image_url" validate:"omitempty,url,max=500"`
	ReadingPassage *string `json:"reading_passage" validate:"omitempty,max=10000"`
}

// QuestionUpdateRequest replaces editable fields while preserving identity
// and exam ownership.
type QuestionUpdateRequest struct {
	Text           *string `json:"text" validate:"omitempty,max=2000"`
	OptionA        *string `json:"option_a" validate:"omitempty,max=1000"`
	OptionB        *string `json:"option_b" validate:"omitempty,max=1000"`
	OptionC        *string `json:"option_c" validate:"omitempty,max=1000"`
	OptionD        *string `json:"option_d" validate:"omitempty,max=1000"`
	CorrectAnswer  *string `json:"correct_answer" validate:"omitempty,answer_letter"`
	ImageURL       *string `json:"image_url" validate:"omitempty,url,max=500"`
	ReadingPassage *string `json:"reading_passage" validate:"omitempty,max=10000"`
}

type RegisterRequest struct {
	FullName string `json:"full_name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=admin student"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// SubmitAttemptRequest maps question ids to the student's chosen letters.
// Keys need not cover every question; missing answers score zero.
type SubmitAttemptRequest struct {
	ExamID  uint            `json:"exam_id" validate:"required"`
	Answers map[uint]string `json:"answers" validate:"dive,answer_letter"`
}
