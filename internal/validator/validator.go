package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// accessCodeRe matches the 8-character uppercase alphanumeric code format.
var accessCodeRe = regexp.MustCompile(`^[A-Z0-9]{8}$`)

// Validator wraps go-playground/validator with the exam-domain rules.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	validate := validator.New()

	v := &Validator{validate: validate}
	v.registerDomainRules()

	return v
}

// Validate validates struct tags and returns ValidationErrors, or nil.
func (v *Validator) Validate(s interface{}) error {
	err := v.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

func (v *Validator) registerDomainRules() {
	// answer_letter: single letter A-D, case preserved on storage but
	// accepted in either case on input.
	_ = v.validate.RegisterValidation("answer_letter", func(fl validator.FieldLevel) bool {
		s := strings.ToUpper(fl.Field().String())
		return s == "A" || s == "B" || s == "C" || s == "D"
	})

	// exam_duration: informational time limit in minutes.
	_ = v.validate.RegisterValidation("exam_duration", func(fl validator.FieldLevel) bool {
		d := fl.Field().Int()
		return d >= 1 && d <= 180
	})

	// access_code: 8 uppercase alphanumerics.
	_ = v.validate.RegisterValidation("access_code", func(fl validator.FieldLevel) bool {
		return accessCodeRe.MatchString(fl.Field().String())
	})
}

// ValidationError describes a single failed rule on a field.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return strings.Join(msgs, "; ")
}

// ToValidationErrors converts validator.ValidationErrors into the domain shape.
func ToValidationErrors(err error) ValidationErrors {
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{Field: "", Message: err.Error(), Rule: "struct"}}
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Message: messageForTag(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return out
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "answer_letter":
		return "must be a letter A through D"
	case "exam_duration":
		return "must be between 1 and 180 minutes"
	case "access_code":
		return "must be 8 uppercase letters or digits"
	default:
		return fmt.Sprintf("failed rule %q", fe.Tag())
	}
}
