// Package dummyrepos provides in-memory repositories for tests and local hacking.
package dummyrepos

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/romangrishanov/ditado/core"
	"github.com/romangrishanov/ditado/core/user"
)

type userRepository struct {
	mutex sync.RWMutex
	db    map[string]*user.User
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository() *userRepository {
	return &userRepository{db: make(map[string]*user.User)}
}

func (repo *userRepository) CheckUsernameUniqueness(_ context.Context, username, email string, excludedUsers ...user.User) error {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	excluded := func(usr *user.User) bool {
		for _, excl := range excludedUsers {
			if usr.ID == excl.ID {
				return true
			}
		}
		return false
	}

	for _, usr := range repo.db {
		if excluded(usr) {
			continue
		}
		if username != "" && usr.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	repo.db[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	for _, usr := range repo.db {
		if filter.ID != "" && usr.ID == filter.ID {
			return *usr, nil
		}
		if filter.Username != "" && usr.Username == filter.Username {
			return *usr, nil
		}
		if filter.Email != "" && usr.Email == filter.Email {
			return *usr, nil
		}
		for _, v := range filter.UsernameOrEmail {
			if v != "" && (usr.Username == v || usr.Email == v) {
				return *usr, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) FilterUsers(_ context.Context, filter user.QueryFilter, orderings ...core.DBOrdering) ([]user.User, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	matches := func(usr *user.User) bool {
		if filter.Search != "" {
			search := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(usr.Name), search) &&
				!strings.Contains(strings.ToLower(usr.Username), search) &&
				!strings.Contains(strings.ToLower(usr.Email), search) {
				return false
			}
		}
		if len(filter.Roles) > 0 {
			var found bool
			for _, role := range filter.Roles {
				for _, usrRole := range usr.Roles {
					if role == usrRole {
						found = true
					}
				}
			}
			if !found {
				return false
			}
		}
		if filter.IsActive != nil && usr.Active() != *filter.IsActive {
			return false
		}
		if !filter.CreatedFrom.IsZero() && usr.CreatedAt.Before(filter.CreatedFrom) {
			return false
		}
		if !filter.CreatedTo.IsZero() && usr.CreatedAt.After(filter.CreatedTo) {
			return false
		}
		return true
	}

	users := make([]user.User, 0, len(repo.db))
	for _, usr := range repo.db {
		if matches(usr) {
			users = append(users, *usr)
		}
	}
	// newest first, like the DB default
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User, isActive *bool) (user.User, error) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	orig, ok := repo.db[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if usr.Name != "" {
		orig.Name = usr.Name
	}
	if usr.Username != "" {
		orig.Username = usr.Username
	}
	if usr.Email != "" {
		orig.Email = usr.Email
	}
	if usr.EnrollmentNumber != "" {
		orig.EnrollmentNumber = usr.EnrollmentNumber
	}
	if usr.Roles != nil {
		orig.Roles = usr.Roles
	}
	if usr.PasswordHash != nil {
		orig.PasswordHash = usr.PasswordHash
	}
	if !usr.UpdatedAt.IsZero() {
		orig.UpdatedAt = usr.UpdatedAt
	}
	if !usr.LastLogin.IsZero() {
		orig.LastLogin = usr.LastLogin
	}
	if isActive != nil {
		orig.SetActive(*isActive)
	}
	return *orig, nil
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID != "" {
		if updated, err := repo.UpdateUser(ctx, usr, usr.IsActive); err == nil {
			return updated, nil
		}
	}
	return repo.CreateUser(ctx, usr)
}

func (repo *userRepository) DeleteUsersByID(_ context.Context, ids ...string) error {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db, id)
	}
	return nil
}
