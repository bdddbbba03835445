// Package session is the core of lip: it owns address lifecycles, bearer
// tokens for reading and writing endpoints, and the lazy expiry of both.
//
// Every operation returns a Result whose Status is one of a small, coarse
// set of categories. Transports map the category to their own codes and
// send the Message to the caller as is.
package session

import "fmt"

// Status is the externally visible outcome category of an operation.
type Status int

const (
	StatusOK Status = iota
	StatusBadInput
	StatusConflict
	StatusUnauthorized
	StatusRateLimited
	StatusInternalError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusBadInput:
		return "bad_input"
	case StatusConflict:
		return "conflict"
	case StatusUnauthorized:
		return "unauthorized"
	case StatusRateLimited:
		return "rate_limited"
	case StatusInternalError:
		return "internal_error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is what every engine operation produces.
//
// LastUpdate is set by update and retrieve, Lifetime (seconds left, -1 for
// unlimited) only by retrieve.
type Result struct {
	Message    string
	Status     Status
	LastUpdate *int64
	Lifetime   *int64
}

// Caller-facing messages.
const (
	MsgIDEmpty             = "id cannot be empty"
	MsgAccessPasswordEmpty = "access password cannot be empty"
	MsgMasterPasswordEmpty = "master password cannot be empty"
	MsgInvalidLifetime     = "invalid lifetime setting"
	MsgIDExists            = "id already exists"
	MsgBadCredentials      = "invalid combination of id and password"
	MsgInvalidMode         = "invalid jwt mode"
	MsgTooManyReadTokens   = "too many read jwt requests"
	MsgWriteTokenExists    = "write jwt already exists"
	MsgInvalidJWT          = "invalid jwt"
	MsgInvalidatedJWT      = "invalidated jwt"
	MsgInvalidEndpoint     = "invalid ip address"
	MsgInvalidAuth         = "invalid authentication"
	MsgInvalidTokenMode    = "invalid token mode"
	MsgInternal            = "internal server error"
)

func ok(msg string) Result { return Result{Message: msg, Status: StatusOK} }

func fail(status Status, msg string) Result { return Result{Message: msg, Status: status} }

func internal() Result { return fail(StatusInternalError, MsgInternal) }
