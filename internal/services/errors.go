package services

import (
	"errors"
	"fmt"
)

// ===== ERROR TYPES =====

// NotFoundError reports a missing resource.
type NotFoundError struct {
	Resource string
	ID       interface{}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

func NewNotFoundError(resource string, id interface{}) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError reports rejected input.
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// ConflictError reports an operation blocked by current state, such as a
// duplicate access code or a delete with dependents.
type ConflictError struct {
	Resource string
	Reason   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Resource, e.Reason)
}

func NewConflictError(resource, reason string) *ConflictError {
	return &ConflictError{Resource: resource, Reason: reason}
}

// AuthError reports failed authentication. The reason is logged but the
// message stays generic so responses do not reveal which factor failed.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return "authentication failed"
}

func NewAuthError(reason string) *AuthError {
	return &AuthError{Reason: reason}
}

// PermissionError reports an authenticated actor lacking rights on a
// resource.
type PermissionError struct {
	UserID   string
	Resource string
	ID       interface{}
	Action   string
	Reason   string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s may not %s %s %v: %s", e.UserID, e.Action, e.Resource, e.ID, e.Reason)
}

func NewPermissionError(userID string, resource string, id interface{}, action, reason string) *PermissionError {
	return &PermissionError{UserID: userID, Resource: resource, ID: id, Action: action, Reason: reason}
}

// ===== PREDICATES =====

func IsNotFoundError(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

func IsValidationError(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsConflictError(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

func IsAuthError(err error) bool {
	var e *AuthError
	return errors.As(err, &e)
}

func IsPermissionError(err error) bool {
	var e *PermissionError
	return errors.As(err, &e)
}
