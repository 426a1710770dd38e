package cardmarket

import (
	"errors"
	"fmt"
)

// AuthError means the site answered but did not accept the credentials.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("cardmarket: auth: %s", e.Message)
}

// ConnectionError means a page could not be retrieved: a transport failure,
// a non-200 status or an anti-bot challenge that was not passed.
type ConnectionError struct {
	Message string
	// StatusCode is 0 when no response was received.
	StatusCode int
	Err        error
}

func (e *ConnectionError) Error() string {
	msg := fmt.Sprintf("cardmarket: connection: %s", e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err.Error())
	}
	return msg
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

var (
	ErrScraperClosed = errors.New("cardmarket: scraper closed")
	ErrChallenge     = errors.New("anti-bot challenge not passed")
)

func IsAuthError(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

func IsConnectionError(err error) bool {
	var target *ConnectionError
	return errors.As(err, &target)
}

const (
	KindInvalidAuth   = "invalid_auth"
	KindCannotConnect = "cannot_connect"
	KindUnknown       = "unknown"
)

// ErrorKind classifies err into the vocabulary used when validating
// credentials: invalid_auth, cannot_connect or unknown.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsAuthError(err):
		return KindInvalidAuth
	case IsConnectionError(err):
		return KindCannotConnect
	default:
		return KindUnknown
	}
}
