package session

import "errors"

var (
	// ErrDenied matches every *DeniedError.
	ErrDenied = errors.New("access denied")

	// ErrWriteTokenExists is returned by the registry while a live write
	// token is on file for the id.
	ErrWriteTokenExists = errors.New("write token already exists")
)

// Reason tells why an authentication attempt was denied. It is for logs and
// tests; callers only ever see a generic message.
type Reason int

const (
	ReasonBadCredentials Reason = iota + 1
	ReasonNoToken
	ReasonInvalidToken
	ReasonUnknownSubject
	ReasonStaleSubject
	ReasonExpiredSubject
	ReasonWrongMode
)

func (r Reason) String() string {
	switch r {
	case ReasonBadCredentials:
		return "bad credentials"
	case ReasonNoToken:
		return "no token"
	case ReasonInvalidToken:
		return "invalid token"
	case ReasonUnknownSubject:
		return "unknown subject"
	case ReasonStaleSubject:
		return "stale subject"
	case ReasonExpiredSubject:
		return "expired subject"
	case ReasonWrongMode:
		return "wrong mode"
	default:
		return "unknown reason"
	}
}

type DeniedError struct {
	Reason Reason
}

func (e *DeniedError) Error() string { return "access denied: " + e.Reason.String() }

func (e *DeniedError) Is(target error) bool { return target == ErrDenied }

func deny(r Reason) error { return &DeniedError{Reason: r} }

// ReasonOf extracts the denial reason from err, if any.
func ReasonOf(err error) (Reason, bool) {
	var d *DeniedError
	if errors.As(err, &d) {
		return d.Reason, true
	}
	return 0, false
}
