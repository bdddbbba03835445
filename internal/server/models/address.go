// Package models holds the server-side records persisted by the
// repositories.
package models

// Never marks a timestamp that has not happened (LastUpdate) or a deadline
// that does not exist (Expiry).
const Never int64 = -1

// Address is the single persisted record: one published endpoint per id.
// All timestamps are milliseconds since the Unix epoch.
type Address struct {
	ID                 string
	AccessPasswordHash string
	MasterPasswordHash string
	Endpoint           string
	CreatedOn          int64
	LastUpdate         int64
	Expiry             int64
}
