package main

import (
	"context"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

// addUser creates a user.User through the same validation as the API.
func (cli *commandLine) addUser(ctx context.Context, uname, fullName string, role user.Role, pwd string) (user.User, error) {
	nu := user.NewUser{
		Username: uname,
		Password: pwd,
		Role:     role,
		FullName: fullName,
	}
	if err := nu.Validate(cli.validate); err != nil {
		if flds, ok := core.TranslateFieldErrors(err, cli.translator); ok {
			return user.User{}, core.NewValidationError(nil, flds...)
		}
		return user.User{}, err
	}
	return cli.usrSvc.Create(ctx, nu)
}
