package auth

import (
	"context"
	"database/sql"
	"errors"

	"clinic-booking/internal/database"

	"github.com/google/uuid"
)

const (
	findUserByUUIDQuery  = "SELECT id, uuid, email, role, company_code FROM tb_user WHERE uuid = $1 AND is_active = TRUE"
	findUserByEmailQuery = "SELECT id, uuid, email, role, company_code FROM tb_user WHERE email = $1 AND is_active = TRUE"
	findPasswordQuery    = "SELECT password FROM tb_user WHERE email = $1 AND is_active = TRUE"
)

// Repository provides access to staff user accounts.
type Repository interface {

	// FindUserByUUID finds an active user by its UUID.
	FindUserByUUID(ctx context.Context, uuid uuid.UUID) (*User, error)

	// FindUserByEmail finds an active user by its email.
	FindUserByEmail(ctx context.Context, email string) (*User, error)

	// CheckUserPassword checks if the stored password hash matches the given password.
	CheckUserPassword(ctx context.Context, email string, password string) (bool, error)
}

type defaultRepository struct {
	dbConn database.Connection
}

func newRepository(dbConn database.Connection) Repository {
	return &defaultRepository{dbConn: dbConn}
}

func (d defaultRepository) findUser(ctx context.Context, query string, param interface{}) (*User, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, query, param)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	if !rows.Next() {
		return nil, rows.Err()
	}
	user := new(User)
	if err = database.TransformRow(rows, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (d defaultRepository) FindUserByUUID(ctx context.Context, uuid uuid.UUID) (*User, error) {
	return d.findUser(ctx, findUserByUUIDQuery, uuid.String())
}

func (d defaultRepository) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	return d.findUser(ctx, findUserByEmailQuery, email)
}

func (d defaultRepository) CheckUserPassword(ctx context.Context, email string, password string) (bool, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	var hashedPass string
	err := d.dbConn.DB().QueryRowContext(ctx, findPasswordQuery, email).Scan(&hashedPass)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return ComparePasswords(hashedPass, password), nil
}
