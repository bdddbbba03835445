// Package common contains shared constants, sentinel errors and small
// helpers used across lip components.
package common

// RequestIDHeaderName is the HTTP header (and gRPC metadata key, lowercased)
// carrying the request correlation id.
const RequestIDHeaderName = "X-Request-Id"

// MaxLifetimeSeconds is the longest lifetime an address may be created with.
const MaxLifetimeSeconds int64 = 31536000
