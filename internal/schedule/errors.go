package schedule

import (
	"errors"
	"fmt"
	"net/http"
)

// Machine-readable error codes.
const (
	CodeValidation           = "validation_error"
	CodeForbidden            = "forbidden"
	CodeNotFound             = "not_found"
	CodeDatesUnrecognized    = "DATES_UNRECOGNIZED"
	CodeProposalActive       = "PROPOSAL_ACTIVE"
	CodeDatesLocked          = "DATES_LOCKED"
	CodeUserWindowCapReached = "USER_WINDOW_CAP_REACHED"
	CodeRequiresConcrete     = "REQUIRES_CONCRETE_DATES"
	CodeInsufficientApproval = "INSUFFICIENT_APPROVALS"
	CodeNotEnoughSupport     = "NOT_ENOUGH_SUPPORT"
	CodeBlockerWindow        = "BLOCKER_WINDOW"
	CodeNoProposal           = "NO_PROPOSAL"
	CodeWindowNotProposed    = "WINDOW_NOT_PROPOSED"
	CodeAlreadySupported     = "ALREADY_SUPPORTED"
	CodeNotSupported         = "NOT_SUPPORTED"
	CodeCreatorSupport       = "CREATOR_SUPPORT"
	CodeStaleState           = "STALE_STATE"
)

// Error is the error type returned by every scheduling operation that fails
// for a reason the caller can act on.
type Error struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// HasCode reports whether err is a scheduling error with the given code.
func HasCode(err error, code string) bool {
	se, ok := AsError(err)
	return ok && se.Code == code
}

func validationError(format string, args ...any) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func forbidden(message string) *Error {
	return &Error{Status: http.StatusForbidden, Code: CodeForbidden, Message: message}
}

func notFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Code: CodeNotFound, Message: message}
}

func conflict(code, message string, details any) *Error {
	return &Error{Status: http.StatusBadRequest, Code: code, Message: message, Details: details}
}

// StaleDetails accompanies CodeStaleState.
type StaleDetails struct {
	CurrentVersion int64 `json:"currentVersion"`
}

func staleState(current int64) *Error {
	return &Error{
		Status:  http.StatusConflict,
		Code:    CodeStaleState,
		Message: "The schedule changed while your request was in flight; reload and try again",
		Details: StaleDetails{CurrentVersion: current},
	}
}
