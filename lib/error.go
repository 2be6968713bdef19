package awsivy

import "github.com/pkg/errors"

type Errtype int

const (
	Unhandled Errtype = iota
	KeyNotFound
	InvalidURI
	Configuration
	StoreAccess
)

type Error struct {
	Errtype Errtype
	Message string
	OrigErr error
}

func newErrorKeyNotFound(origerr error, key ObjectKey) *Error {
	return &Error{
		Errtype: KeyNotFound,
		Message: "KeyNotFound: " + string(key),
		OrigErr: origerr,
	}
}

func newErrorInvalidURI(uri, reason string) *Error {
	return &Error{
		Errtype: InvalidURI,
		Message: "InvalidURI: " + uri + ": " + reason,
	}
}

func newErrorConfiguration(message string) *Error {
	return &Error{
		Errtype: Configuration,
		Message: "Configuration: " + message,
	}
}

// newErrorStoreAccess wraps a failure of the object store client. origerr is
// always kept so callers can inspect the transport error.
func newErrorStoreAccess(origerr error, message string) *Error {
	return &Error{
		Errtype: StoreAccess,
		Message: "StoreAccess: " + message,
		OrigErr: origerr,
	}
}

func isErrtype(err error, t Errtype) bool {
	var berr *Error
	if errors.As(err, &berr) {
		return berr.Errtype == t
	}
	return false
}

func IsKeyNotFound(err error) bool { return isErrtype(err, KeyNotFound) }

func IsInvalidURI(err error) bool { return isErrtype(err, InvalidURI) }

func IsConfiguration(err error) bool { return isErrtype(err, Configuration) }

func IsStoreAccess(err error) bool { return isErrtype(err, StoreAccess) }

func (e *Error) Error() string {
	if e.OrigErr != nil {
		return e.Message + ": " + e.OrigErr.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.OrigErr }
