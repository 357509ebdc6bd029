package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

var userColumns = []string{"id", "username", "password_hash", "role", "full_name"}

type userRepository struct {
	db core.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db core.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) insert(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	id, err := insertReturningID(ctx, getExec(repo.db, exec...), psql.Insert("users").
		Columns("username", "password_hash", "role", "full_name").
		Values(usr.Username, usr.PasswordHash, usr.Role, usr.FullName))
	if err != nil {
		return user.User{}, err
	}
	usr.ID = id
	return usr, nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	return repo.insert(ctx, usr)
}

func (repo *userRepository) CreateUsers(ctx context.Context, users []user.User) (created []user.User, err error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	created = make([]user.User, 0, len(users))
	for _, usr := range users {
		if usr, err = repo.insert(ctx, usr, tx); err != nil {
			return nil, err
		}
		created = append(created, usr)
	}
	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing users")
	}
	return created, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id int) (user.User, bool, error) {
	var usr user.User
	found, err := getOne(ctx, repo.db, &usr, psql.Select(userColumns...).From("users").Where(sq.Eq{"id": id}))
	return usr, found, err
}

func (repo *userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, bool, error) {
	var usr user.User
	found, err := getOne(ctx, repo.db, &usr, psql.Select(userColumns...).From("users").Where(sq.Eq{"username": username}))
	return usr, found, err
}

func (repo *userRepository) QueryUsers(ctx context.Context) ([]user.User, error) {
	users := make([]user.User, 0)
	err := selectAll(ctx, repo.db, &users, psql.Select(userColumns...).From("users"))
	return users, err
}
