package service

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the services. The API layer maps them to
// status codes with errors.Is.
var (
	// ErrInvalidCredentials is returned by Authenticate for both an unknown
	// email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmptyCardBatch is returned when CreateCards receives no cards.
	ErrEmptyCardBatch = errors.New("at least one card is required")
)

// ServiceError adds the failing service operation to an underlying error.
type ServiceError struct {
	Service   string
	Operation string
	Message   string
	Err       error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewCardServiceError wraps err for a card service operation.
func NewCardServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{Service: "card", Operation: operation, Message: message, Err: err}
}

// NewDeckServiceError wraps err for a deck service operation.
func NewDeckServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{Service: "deck", Operation: operation, Message: message, Err: err}
}

// NewUserServiceError wraps err for a user service operation.
func NewUserServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{Service: "user", Operation: operation, Message: message, Err: err}
}
