package backend

import (
	"errors"
	"fmt"

	"github.com/navikt/studyroom/internal/datasource"
)

// AppError is returned when the backend answers success=false
type AppError struct {
	Action  datasource.Action
	Message string
}

func (e *AppError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s failed", e.Action)
	}
	return e.Message
}

// MessageOf returns the backend message carried by err, or fallback
// when err is not an application error or has no message
func MessageOf(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
