package storage

import (
	"context"
	"fmt"

	"github.com/niksmo/shop-assistant/internal/core/domain"
	"github.com/niksmo/shop-assistant/internal/core/port"
)

var _ port.UserStore = (*UsersRepository)(nil)

type UsersRepository struct {
	sqldb sqldb
}

func NewUsersRepository(sqldb sqldb) UsersRepository {
	return UsersRepository{sqldb}
}

// UserByEmail matches the email case-insensitively.
func (r UsersRepository) UserByEmail(
	ctx context.Context, email string,
) (domain.User, error) {
	const op = "UsersRepository.UserByEmail"

	query := `SELECT user_id, email, name, role
		FROM users WHERE lower(email) = lower($1);`

	var u domain.User
	err := r.sqldb.QueryRowContext(ctx, query, email).Scan(
		&u.UserID, &u.Email, &u.Name, &u.Role,
	)
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return u, nil
}

func (r UsersRepository) CountUsers(ctx context.Context) (int, error) {
	const op = "UsersRepository.CountUsers"

	var n int
	err := r.sqldb.QueryRowContext(ctx, `SELECT count(*) FROM users;`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
