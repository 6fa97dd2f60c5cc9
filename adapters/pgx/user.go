package pgx

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taskhive/vouch"
)

const userColumns = `id, full_name, email, password_hash, photo, role, email_verified, created_at, updated_at`

func (a *Adapter) CreateUser(user *vouch.User) error {
	ctx := context.Background()

	query := `INSERT INTO users (full_name, email, password_hash, photo, role, email_verified)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at, updated_at`

	var id string
	var createdAt, updatedAt time.Time

	err := a.pool.QueryRow(ctx, query,
		user.FullName, user.Email, user.PasswordHash, user.Photo, user.Role, user.EmailVerified,
	).Scan(&id, &createdAt, &updatedAt)
	if err != nil {
		// The unique index is the authority on duplicates; two concurrent
		// registrations cannot both pass it.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return vouch.ErrUserExists
		}
		return err
	}

	user.ID = id
	user.CreatedAt = createdAt
	user.UpdatedAt = updatedAt
	return nil
}

func (a *Adapter) GetUserByID(id string) (*vouch.User, error) {
	ctx := context.Background()
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	return a.scanUser(a.pool.QueryRow(ctx, q, id))
}

func (a *Adapter) GetUserByEmail(email string) (*vouch.User, error) {
	ctx := context.Background()
	q := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	return a.scanUser(a.pool.QueryRow(ctx, q, email))
}

func (a *Adapter) UpdateUser(user *vouch.User) error {
	ctx := context.Background()
	q := `UPDATE users SET full_name = $1, password_hash = $2, photo = $3, role = $4,
		email_verified = $5, updated_at = now() WHERE id = $6 RETURNING updated_at`

	var updatedAt time.Time
	err := a.pool.QueryRow(ctx, q,
		user.FullName, user.PasswordHash, user.Photo, user.Role, user.EmailVerified, user.ID,
	).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return vouch.ErrUserNotFound
		}
		return err
	}
	user.UpdatedAt = updatedAt
	return nil
}

func (a *Adapter) DeleteUser(id string) error {
	ctx := context.Background()
	tag, err := a.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return vouch.ErrUserNotFound
	}
	return nil
}

func (a *Adapter) ListUsers() ([]*vouch.User, error) {
	ctx := context.Background()
	q := `SELECT ` + userColumns + ` FROM users ORDER BY created_at`

	rows, err := a.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*vouch.User
	for rows.Next() {
		user := &vouch.User{}
		var photo *string
		if err := rows.Scan(
			&user.ID, &user.FullName, &user.Email, &user.PasswordHash, &photo,
			&user.Role, &user.EmailVerified, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		user.Photo = photo
		users = append(users, user)
	}
	return users, rows.Err()
}

func (a *Adapter) scanUser(row pgx.Row) (*vouch.User, error) {
	user := &vouch.User{}
	var photo *string
	err := row.Scan(
		&user.ID, &user.FullName, &user.Email, &user.PasswordHash, &photo,
		&user.Role, &user.EmailVerified, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, vouch.ErrUserNotFound
		}
		return nil, err
	}
	user.Photo = photo
	return user, nil
}
