package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/romangrishanov/ditado/core"
	"github.com/romangrishanov/ditado/core/user"
)

type userRow struct {
	ID               string         `db:"id"`
	Name             string         `db:"name"`
	Username         string         `db:"username"`
	Email            string         `db:"email"`
	EnrollmentNumber string         `db:"enrollment_number"`
	IsActive         null.Bool      `db:"is_active"`
	Roles            pq.StringArray `db:"roles"`
	PasswordHash     []byte         `db:"password_hash"`
	CreatedAt        null.Time      `db:"created_at"`
	UpdatedAt        null.Time      `db:"updated_at"`
	LastLogin        null.Time      `db:"last_login"`
}

func (row userRow) toUser() user.User {
	usr := user.User{
		ID:               row.ID,
		Name:             row.Name,
		Username:         row.Username,
		Email:            row.Email,
		EnrollmentNumber: row.EnrollmentNumber,
		Roles:            row.Roles,
		PasswordHash:     row.PasswordHash,
		CreatedAt:        row.CreatedAt.Time,
		UpdatedAt:        row.UpdatedAt.Time,
		LastLogin:        row.LastLogin.Time,
	}
	if row.IsActive.Valid {
		usr.SetActive(row.IsActive.Bool)
	}
	return usr
}

func newUserRow(usr user.User) userRow {
	row := userRow{
		ID:               usr.ID,
		Name:             usr.Name,
		Username:         usr.Username,
		Email:            usr.Email,
		EnrollmentNumber: usr.EnrollmentNumber,
		Roles:            usr.Roles,
		PasswordHash:     usr.PasswordHash,
		CreatedAt:        null.TimeFrom(usr.CreatedAt),
		UpdatedAt:        null.TimeFrom(usr.UpdatedAt),
	}
	if usr.IsActive != nil {
		row.IsActive = null.BoolFrom(*usr.IsActive)
	}
	if !usr.LastLogin.IsZero() {
		row.LastLogin = null.TimeFrom(usr.LastLogin)
	}
	if row.Roles == nil {
		row.Roles = pq.StringArray{}
	}
	return row
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	exclIDs := make([]string, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		exclIDs = append(exclIDs, usr.ID)
	}

	check := func(field, value string, appErr error) error {
		if value == "" {
			return nil
		}
		query := `SELECT COUNT(*) FROM "user" WHERE ` + field + ` = ?`
		args := []interface{}{value}
		if len(exclIDs) > 0 {
			var err error
			query, args, err = sqlx.In(query+" AND id NOT IN (?)", value, exclIDs)
			if err != nil {
				return errors.Wrap(err, "building uniqueness query")
			}
		}

		var count int
		if err := repo.db.GetContext(ctx, &count, repo.db.Rebind(query), args...); err != nil {
			return errors.Wrap(err, "checking uniqueness")
		}
		if count > 0 {
			return appErr
		}
		return nil
	}

	if err := check("username", username, user.ErrUsernameExists); err != nil {
		return err
	}
	return check("email", email, user.ErrEmailExists)
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := newUserRow(usr)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO "user" (id, name, username, email, enrollment_number, is_active, roles, password_hash, created_at, updated_at, last_login)
		VALUES (:id, :name, :username, :email, :enrollment_number, :is_active, :roles, :password_hash, :created_at, :updated_at, :last_login)`,
		row,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var conds []string
	var args []interface{}

	if filter.ID != "" {
		conds = append(conds, "id = ?")
		args = append(args, filter.ID)
	}
	if filter.Username != "" {
		conds = append(conds, "username = ?")
		args = append(args, filter.Username)
	}
	if filter.Email != "" {
		conds = append(conds, "email = ?")
		args = append(args, filter.Email)
	}
	for _, v := range filter.UsernameOrEmail {
		if v == "" {
			continue
		}
		conds = append(conds, "username = ?", "email = ?")
		args = append(args, v, v)
	}
	if len(conds) == 0 {
		return user.User{}, user.ErrNotFound
	}

	query := `SELECT * FROM "user" WHERE ` + strings.Join(conds, " OR ") + " LIMIT 1"

	var row userRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(query), args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter, orderings ...core.DBOrdering) ([]user.User, error) {
	query := `SELECT * FROM "user"`
	var conds []string
	var args []interface{}

	if filter.Search != "" {
		conds = append(conds, "(name ILIKE ? OR username ILIKE ? OR email ILIKE ?)")
		search := "%" + filter.Search + "%"
		args = append(args, search, search, search)
	}
	if len(filter.Roles) > 0 {
		conds = append(conds, "roles && ?")
		args = append(args, pq.StringArray(filter.Roles))
	}
	if filter.IsActive != nil {
		conds = append(conds, "is_active = ?")
		args = append(args, *filter.IsActive)
	}
	if !filter.CreatedFrom.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, filter.CreatedFrom)
	}
	if !filter.CreatedTo.IsZero() {
		conds = append(conds, "created_at <= ?")
		args = append(args, filter.CreatedTo)
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += orderBy(orderings, "created_at DESC")

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}

	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	orig, err := repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
	if err != nil {
		return user.User{}, err
	}
	merged := mergeUser(orig, usr, isActive)

	row := newUserRow(merged)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE "user"
		SET name = :name, username = :username, email = :email, enrollment_number = :enrollment_number,
		    is_active = :is_active, roles = :roles, password_hash = :password_hash,
		    updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`,
		row,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return merged, nil
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID != "" {
		if updated, err := repo.UpdateUser(ctx, usr, usr.IsActive); err == nil {
			return updated, nil
		} else if err != user.ErrNotFound {
			return user.User{}, err
		}
	}
	return repo.CreateUser(ctx, usr)
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM "user" WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}

// mergeUser overlays the provided changes on the stored user; zero values keep
// the stored ones, except is_active which has its own flag.
func mergeUser(orig, usr user.User, isActive *bool) user.User {
	merged := orig
	if usr.Name != "" {
		merged.Name = usr.Name
	}
	if usr.Username != "" {
		merged.Username = usr.Username
	}
	if usr.Email != "" {
		merged.Email = usr.Email
	}
	if usr.EnrollmentNumber != "" {
		merged.EnrollmentNumber = usr.EnrollmentNumber
	}
	if usr.Roles != nil {
		merged.Roles = usr.Roles
	}
	if usr.PasswordHash != nil {
		merged.PasswordHash = usr.PasswordHash
	}
	if !usr.UpdatedAt.IsZero() {
		merged.UpdatedAt = usr.UpdatedAt
	}
	if !usr.LastLogin.IsZero() {
		merged.LastLogin = usr.LastLogin
	}
	if isActive != nil {
		merged.SetActive(*isActive)
	}
	return merged
}
