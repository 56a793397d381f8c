package errors

import "fmt"

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code, message string, cause ...error) *AppError {
	var c error
	if len(cause) > 0 {
		c = cause[0]
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   c,
	}
}

var (
	ErrConfigNotFound = &AppError{Code: "CONFIG_001", Message: "configuration not found"}
	ErrConfigInvalid  = &AppError{Code: "CONFIG_002", Message: "invalid configuration"}

	ErrParseNoDateTime = &AppError{Code: "PARSE_001", Message: "no date or time found in message"}
	ErrParseLowSignal  = &AppError{Code: "PARSE_002", Message: "message too short to parse"}
	ErrParseFailed     = &AppError{Code: "PARSE_003", Message: "could not extract event from message"}

	ErrStateExpired   = &AppError{Code: "STATE_001", Message: "conversation state expired"}
	ErrStateCorrupted = &AppError{Code: "STATE_002", Message: "conversation state corrupted"}

	ErrCalendarNotConnected = &AppError{Code: "CAL_001", Message: "google calendar not connected"}
	ErrCalendarNotFound     = &AppError{Code: "CAL_002", Message: "calendar not found"}
	ErrCalendarUnavailable  = &AppError{Code: "CAL_003", Message: "calendar service unavailable"}
	ErrTokenExpired         = &AppError{Code: "CAL_004", Message: "calendar credentials expired"}

	ErrMessageSendFailed = &AppError{Code: "MSG_001", Message: "message delivery failed"}
	ErrMessageRateLimit  = &AppError{Code: "MSG_002", Message: "message rate limit exceeded"}

	ErrUserNotFound = &AppError{Code: "USER_001", Message: "user not found"}

	ErrUnauthorized = &AppError{Code: "AUTH_001", Message: "unauthorized"}
	ErrForbidden    = &AppError{Code: "AUTH_002", Message: "forbidden"}

	ErrNotFound   = &AppError{Code: "GEN_001", Message: "resource not found"}
	ErrBadRequest = &AppError{Code: "GEN_002", Message: "bad request"}
	ErrInternal   = &AppError{Code: "GEN_003", Message: "internal error"}
)

func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}
