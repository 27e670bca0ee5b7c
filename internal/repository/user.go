package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kjannette/trahn-journal/internal/models"
)

const userColumns = `id, email, password_hash, full_name, mobile, date_of_birth,
	address, starting_balance, created_at`

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, full_name, mobile, date_of_birth, address, starting_balance)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 RETURNING `+userColumns,
		u.Email, u.PasswordHash, u.FullName, u.Mobile, u.DateOfBirth, u.Address, u.StartingBalance,
	)
	return scanUser(row)
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *UserRepo) UpdateProfile(ctx context.Context, u *models.User) (*models.User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE users
		 SET full_name = $1, mobile = $2, date_of_birth = $3, address = $4, starting_balance = $5
		 WHERE id = $6
		 RETURNING `+userColumns,
		u.FullName, u.Mobile, u.DateOfBirth, u.Address, u.StartingBalance, u.ID,
	)
	return scanUser(row)
}

func scanUser(row scannable) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Mobile, &u.DateOfBirth,
		&u.Address, &u.StartingBalance, &u.CreatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}
