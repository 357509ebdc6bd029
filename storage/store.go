// Package storage defines the entity store shared by all backends.
package storage

import (
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/analytics"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

// ErrInvalidInput is the cause of the validation error a backend returns for a record
// that lacks a required field.
var ErrInvalidInput = errors.New("invalid input")

// Store bundles the repositories of one backend. It is opened once at startup and passed to whoever needs it.
type Store interface {
	Users() user.Repository
	School() school.Repository
	Analytics() analytics.Repository
	Close() error
}
