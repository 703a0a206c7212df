package validator

import (
	"errors"
	"testing"
)

func TestValidator_ExamCreateRequest(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		req     ExamCreateRequest
		wantErr bool
	}{
		{
			name:    "valid with generated code",
			req:     ExamCreateRequest{Title: "Quiz", TimeLimitMinutes: 30},
			wantErr: false,
		},
		{
			name:    "valid with explicit code",
			req:     ExamCreateRequest{Title: "Quiz", TimeLimitMinutes: 30, AccessCode: "ABCD1234"},
			wantErr: false,
		},
		{
			name:    "missing title",
			req:     ExamCreateRequest{TimeLimitMinutes: 30},
			wantErr: true,
		},
		{
			name:    "duration too long",
			req:     ExamCreateRequest{Title: "Quiz", TimeLimitMinutes: 240},
			wantErr: true,
		},
		{
			name:    "duration zero",
			req:     ExamCreateRequest{Title: "Quiz"},
			wantErr: true,
		},
		{
			name:    "lowercase access code",
			req:     ExamCreateRequest{Title: "Quiz", TimeLimitMinutes: 30, AccessCode: "abcd1234"},
			wantErr: true,
		},
		{
			name:    "short access code",
			req:     ExamCreateRequest{Title: "Quiz", TimeLimitMinutes: 30, AccessCode: "ABC"},
			wantErr: true,
		},
		{
			name:    "bad level",
			req:     ExamCreateRequest{Title: "Quiz", TimeLimitMinutes: 30, Level: "kindergarten"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidator_AnswerLetter(t *testing.T) {
	v := New()

	for _, letter := range []string{"A", "b", "C", "d"} {
		req := QuestionCreateRequest{
			ExamID: 1, Text: "q", OptionA: "1", OptionB: "2", OptionC: "3", OptionD: "4",
			CorrectAnswer: letter,
		}
		if err := v.Validate(&req); err != nil {
			t.Errorf("letter %q should validate, got %v", letter, err)
		}
	}

	for _, letter := range []string{"E", "AB", "", "1"} {
		req := QuestionCreateRequest{
			ExamID: 1, Text: "q", OptionA: "1", OptionB: "2", OptionC: "3", OptionD: "4",
			CorrectAnswer: letter,
		}
		if err := v.Validate(&req); err == nil {
			t.Errorf("letter %q should be rejected", letter)
		}
	}
}

func TestValidator_SubmitAttemptRequest(t *testing.T) {
	v := New()

	t.Run("empty answers allowed", func(t *testing.T) {
		req := SubmitAttemptRequest{ExamID: 1, Answers: map[uint]string{}}
		if err := v.Validate(&req); err != nil {
			t.Errorf("empty answers should validate, got %v", err)
		}
	})

	t.Run("bad letter in map rejected", func(t *testing.T) {
		req := SubmitAttemptRequest{ExamID: 1, Answers: map[uint]string{1: "Z"}}
		if err := v.Validate(&req); err == nil {
			t.Error("answer Z should be rejected")
		}
	})

	t.Run("missing exam id rejected", func(t *testing.T) {
		req := SubmitAttemptRequest{Answers: map[uint]string{}}
		if err := v.Validate(&req); err == nil {
			t.Error("missing exam id should be rejected")
		}
	})
}

func TestValidationErrors_Shape(t *testing.T) {
	v := New()

	err := v.Validate(&RegisterRequest{Email: "not-an-email", Password: "tiny"})
	if err == nil {
		t.Fatal("expected validation errors")
	}

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(verrs) < 3 {
		t.Errorf("expected failures on full_name, email and password, got %v", verrs)
	}
	for _, ve := range verrs {
		if ve.Field == "" || ve.Message == "" || ve.Rule == "" {
			t.Errorf("incomplete validation error: %+v", ve)
		}
	}
}
