package member

import "errors"

var (
	ErrMemberNotFound     = errors.New("member not found")
	ErrConflict           = errors.New("member with this email or phone already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrValidation         = errors.New("validation failed")
	ErrUpload             = errors.New("upload failed")
)

// ValidationError carries a message safe to show to the client.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(message string) error {
	return &ValidationError{Message: message}
}

type UploadError struct {
	Field string
	Err   error
}

func (e *UploadError) Error() string {
	return "failed to upload " + e.Field + ": " + e.Err.Error()
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

func (e *UploadError) Is(target error) bool {
	return target == ErrUpload
}
