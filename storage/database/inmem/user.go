package inmemdb

import (
	"context"

	"github.com/trezcool/shule/core/user"
)

type userRepository struct {
	db *table[user.User]
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func setUserID(u *user.User, id int) { u.ID = id }

// taken must be called with the lock held.
func (repo *userRepository) taken(username string) bool {
	for _, usr := range repo.db.rows {
		if usr.Username == username {
			return true
		}
	}
	return false
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.taken(usr.Username) {
		return user.User{}, user.ErrUsernameExists
	}
	return repo.db.insert(usr, setUserID), nil
}

func (repo *userRepository) CreateUsers(_ context.Context, users []user.User) ([]user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// check the whole batch before inserting anything
	seen := make(map[string]struct{}, len(users))
	for _, usr := range users {
		if _, dup := seen[usr.Username]; dup || repo.taken(usr.Username) {
			return nil, user.ErrUsernameExists
		}
		seen[usr.Username] = struct{}{}
	}

	created := make([]user.User, 0, len(users))
	for _, usr := range users {
		created = append(created, repo.db.insert(usr, setUserID))
	}
	return created, nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id int) (user.User, bool, error) {
	usr, ok := repo.db.get(id)
	return usr, ok, nil
}

func (repo *userRepository) GetUserByUsername(_ context.Context, username string) (user.User, bool, error) {
	users := repo.db.filter(func(u user.User) bool { return u.Username == username })
	if len(users) == 0 {
		return user.User{}, false, nil
	}
	return users[0], true, nil
}

func (repo *userRepository) QueryUsers(_ context.Context) ([]user.User, error) {
	return repo.db.filter(nil), nil
}
