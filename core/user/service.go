package user

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrUsernameExists = errors.New("a user with this username already exists")
)

type (
	// Repository stores users. Implementations assign IDs and enforce username uniqueness.
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		// CreateUsers persists all users or none of them.
		CreateUsers(ctx context.Context, users []User) ([]User, error)
		// GetUserByID reports false, without error, when no user has the given id.
		GetUserByID(ctx context.Context, id int) (User, bool, error)
		GetUserByUsername(ctx context.Context, username string) (User, bool, error)
		QueryUsers(ctx context.Context) ([]User, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func newUser(nu NewUser) (User, error) {
	usr := User{
		Username: nu.Username,
		Role:     nu.Role,
		FullName: nu.FullName,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return usr, nil
}

// Create expects a validated NewUser.
func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	usr, err := newUser(nu)
	if err != nil {
		return User{}, err
	}
	usr, err = svc.repo.CreateUser(ctx, usr)
	if err != nil {
		if errors.Cause(err) == ErrUsernameExists {
			return User{}, core.NewValidationError(err, core.FieldError{Field: "username", Error: err.Error()})
		}
		return User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

// CreateMany creates all users in one atomic batch. Every NewUser is expected to be validated.
func (svc *Service) CreateMany(ctx context.Context, nus []NewUser) ([]User, error) {
	seen := make(map[string]int, len(nus))
	for i, nu := range nus {
		if _, dup := seen[nu.Username]; dup {
			return nil, core.NewValidationError(
				ErrUsernameExists,
				core.FieldError{Field: fmt.Sprintf("[%d].username", i), Error: ErrUsernameExists.Error()},
			)
		}
		seen[nu.Username] = i
	}

	users := make([]User, 0, len(nus))
	for _, nu := range nus {
		usr, err := newUser(nu)
		if err != nil {
			return nil, err
		}
		users = append(users, usr)
	}

	created, err := svc.repo.CreateUsers(ctx, users)
	if err != nil {
		if errors.Cause(err) == ErrUsernameExists {
			return nil, core.NewValidationError(err, svc.conflictingFields(ctx, nus)...)
		}
		return nil, errors.Wrap(err, "creating users")
	}
	if created == nil {
		created = []User{}
	}
	return created, nil
}

// conflictingFields best-effort reports which batch entries clash with stored users.
func (svc *Service) conflictingFields(ctx context.Context, nus []NewUser) []core.FieldError {
	var flds []core.FieldError
	for i, nu := range nus {
		if _, found, err := svc.repo.GetUserByUsername(ctx, nu.Username); err == nil && found {
			flds = append(flds, core.FieldError{Field: fmt.Sprintf("[%d].username", i), Error: ErrUsernameExists.Error()})
		}
	}
	return flds
}

// Bootstrap creates the user unless one with the same username already exists.
func (svc *Service) Bootstrap(ctx context.Context, nu NewUser) (User, bool, error) {
	usr, found, err := svc.repo.GetUserByUsername(ctx, nu.Username)
	if err != nil {
		return User{}, false, errors.Wrap(err, "finding user by username")
	}
	if found {
		return usr, false, nil
	}
	usr, err = svc.Create(ctx, nu)
	if err != nil {
		return User{}, false, err
	}
	return usr, true, nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	users, err := svc.repo.QueryUsers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	usr, found, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, errors.Wrap(err, "finding user by ID")
	}
	if !found {
		return User{}, ErrNotFound
	}
	return usr, nil
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (User, error) {
	usr, found, err := svc.repo.GetUserByUsername(ctx, core.CleanString(uname, true /* lower */))
	if err != nil {
		return User{}, errors.Wrap(err, "finding user by username")
	}
	if !found {
		return User{}, ErrNotFound
	}
	return usr, nil
}
