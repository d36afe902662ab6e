package app

import "fmt"

// DomainError is the error shape the HTTP layer serializes. Codes in use:
// VALIDATION_ERROR (422), FORBIDDEN (403), NOT_FOUND (404), CONFLICT (409),
// RENDER_ERROR (500). Details carries structured context, such as the list
// of missing fields on a failed finalize.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}
