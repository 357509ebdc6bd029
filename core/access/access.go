// Package access decides which callers may run which operations.
package access

import (
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/user"
)

var (
	ErrUnauthenticated = errors.New("user not authenticated")
	ErrForbidden       = errors.New("permission denied")
)

type Operation string

// Operations
const (
	CreateClass      Operation = "class:create"
	CreateAssignment Operation = "assignment:create"
	CreateGrade      Operation = "grade:create"
	CreateAttendance Operation = "attendance:create"
	CreateUser       Operation = "user:create"
	CreateUsers      Operation = "user:create-bulk"
	ListUsers        Operation = "user:list"
	ViewAnalytics    Operation = "analytics:view"
	ViewProfile      Operation = "user:profile"

	ReadClasses     Operation = "class:list"
	ReadClass       Operation = "class:read"
	ReadAssignments Operation = "assignment:list"
	ReadGrades      Operation = "grade:list"
	ReadAttendance  Operation = "attendance:list"
)

// Identity is the caller resolved from the request session.
type Identity struct {
	UserID int
	Role   user.Role
}

type rule struct {
	authenticated bool
	roles         []user.Role // empty: any authenticated caller
}

var rules = map[Operation]rule{
	CreateClass:      {authenticated: true, roles: []user.Role{user.RoleAdmin}},
	CreateAssignment: {authenticated: true, roles: []user.Role{user.RoleTeacher}},
	CreateGrade:      {authenticated: true, roles: []user.Role{user.RoleTeacher}},
	CreateAttendance: {authenticated: true, roles: []user.Role{user.RoleTeacher}},
	CreateUser:       {authenticated: true, roles: []user.Role{user.RoleAdmin}},
	CreateUsers:      {authenticated: true, roles: []user.Role{user.RoleAdmin}},
	ListUsers:        {authenticated: true, roles: []user.Role{user.RoleAdmin}},
	ViewAnalytics:    {authenticated: true, roles: []user.Role{user.RoleAdmin}},
	ViewProfile:      {authenticated: true},

	ReadClasses:     {},
	ReadClass:       {},
	ReadAssignments: {},
	ReadGrades:      {},
	ReadAttendance:  {},
}

// Check returns nil when the caller may run op.
// A nil id means no caller could be resolved. Unknown operations are forbidden.
func Check(op Operation, id *Identity) error {
	r, ok := rules[op]
	if !ok {
		return ErrForbidden
	}
	if !r.authenticated {
		return nil
	}
	if id == nil {
		return ErrUnauthenticated
	}
	if len(r.roles) == 0 {
		return nil
	}
	for _, role := range r.roles {
		if id.Role == role {
			return nil
		}
	}
	return ErrForbidden
}
