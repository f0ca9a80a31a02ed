package errors

import "fmt"

var (
	ErrValidation        = fmt.Errorf("username and room are required")
	ErrDuplicateUsername = fmt.Errorf("username is in use")
	ErrUserNotFound      = fmt.Errorf("user not found")
	ErrProfanity         = fmt.Errorf("profanity is not allowed")
	ErrWorkerPanic       = fmt.Errorf("worker panic")
	ErrEmptyWords        = fmt.Errorf("no words have been found")
)
