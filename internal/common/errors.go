package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound            = errors.New("requested resource not found")
	ErrUnauthorized        = errors.New("unauthorized access")
	ErrForbidden           = errors.New("forbidden access")
	ErrBadRequest          = errors.New("bad request")
	ErrConflict            = errors.New("resource conflict") // e.g., problem title already exists
	ErrInternalServer      = errors.New("internal server error")
	ErrValidation          = errors.New("validation failed")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrUpstreamJudge       = errors.New("code execution service failed")
	ErrJudgeTimeout        = errors.New("code execution service timed out")
	ErrLockHeld            = errors.New("a submission for this problem is already being judged")
)

// ReferenceSolutionFailedError is returned when a reference solution does not
// produce the expected output for one of the declared test cases.
type ReferenceSolutionFailedError struct {
	Language      string `json:"language"`
	TestCase      int    `json:"test_case"` // 1-based
	Status        string `json:"status"`
	Stdout        string `json:"stdout,omitempty"`
	Stderr        string `json:"stderr,omitempty"`
	CompileOutput string `json:"compile_output,omitempty"`
}

func (e *ReferenceSolutionFailedError) Error() string {
	return fmt.Sprintf("reference solution for %s failed on test case %d: %s", e.Language, e.TestCase, e.Status)
}

func (e *ReferenceSolutionFailedError) Unwrap() error {
	return ErrValidation
}

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrValidation) || errors.Is(err, ErrUnsupportedLanguage) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrLockHeld) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrJudgeTimeout) {
		return http.StatusGatewayTimeout
	}
	if errors.Is(err, ErrUpstreamJudge) {
		return http.StatusBadGateway
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" { // Unique violation
			return http.StatusConflict
		}
	}

	return http.StatusInternalServerError
}

// PublicMessage is the error text safe to show a client. Server-side and
// upstream failures collapse to a generic message.
func PublicMessage(err error) string {
	switch HTTPStatusFromError(err) {
	case http.StatusInternalServerError:
		return ErrInternalServer.Error()
	case http.StatusBadGateway:
		return ErrUpstreamJudge.Error()
	case http.StatusGatewayTimeout:
		return ErrJudgeTimeout.Error()
	}
	return err.Error()
}

// Errorf creates a new error with formatting, useful for wrapping.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
