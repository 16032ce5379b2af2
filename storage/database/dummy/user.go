package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/ecodeclub/ekit/slice"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/user"
)

type userRepository struct {
	db *table[user.User]
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedUsers ...user.User) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excluded := core.NewStringSet(slice.Map(excludedUsers, func(_ int, u user.User) string { return u.ID })...)
	for _, usr := range repo.db.filter(nil) {
		if usr.Email == email && !excluded.Exist(usr.ID) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, u := range repo.db.filter(nil) {
		if u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}
	usr.Roles = append([]string(nil), usr.Roles...)
	repo.db.put(usr.ID, usr)
	return usr, nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.get(id); ok {
		return usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.db.filter(nil) {
		if usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

var userSortKeys = map[string]func(a, b user.User) int{
	"name":       func(a, b user.User) int { return strings.Compare(a.Name, b.Name) },
	"email":      func(a, b user.User) int { return strings.Compare(a.Email, b.Email) },
	"created_at": func(a, b user.User) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"updated_at": func(a, b user.User) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := repo.db.filter(func(u user.User) bool { return filter == nil || filter.Match(u) })
	if len(ordering) > 0 {
		sort.SliceStable(users, func(i, j int) bool {
			for _, ord := range ordering {
				cmp, ok := userSortKeys[ord.Field]
				if !ok {
					continue
				}
				c := cmp(users[i], users[j])
				if c == 0 {
					continue
				}
				if ord.Ascending {
					return c < 0
				}
				return c > 0
			}
			return false
		})
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.get(usr.ID); !ok {
		return user.User{}, user.ErrNotFound
	}
	usr.Roles = append([]string(nil), usr.Roles...)
	repo.db.put(usr.ID, usr)
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		repo.db.delete(id)
	}
	return nil
}

func (repo *userRepository) UserIDsWithRole(_ context.Context, role string) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var ids []string
	for _, u := range repo.db.filter(func(u user.User) bool { return u.HasRole(role) }) {
		ids = append(ids, u.ID)
	}
	return ids, nil
}
