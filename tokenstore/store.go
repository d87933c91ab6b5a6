// Package tokenstore holds the single bearer-token slot the client owns.
package tokenstore

import "errors"

// ErrNoToken is returned by Get when no token is stored.
var ErrNoToken = errors.New("no token stored")

// Store is the single persisted token slot. At most one token is held at a
// time; Set replaces any previous value.
type Store interface {
	Get() (string, error)
	Set(token string) error
	Clear() error
}
