// Package database contains useful functions to handle database operations, as create connections,
// run units of work, classify driver errors and parse results into structs.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"time"

	"clinic-booking/internal/apierrors"
	"clinic-booking/internal/configs"

	"github.com/lib/pq"
)

const statementTimeout = 5 * time.Second

type defaultConnection struct {
	db *sql.DB
}

// Connection holds a DB instance.
type Connection interface {
	DB() *sql.DB
	CreateContext(ctx context.Context) (context.Context, context.CancelFunc)
	Close() error
}

// DB gets the DB instance associated to the connection.
func (d *defaultConnection) DB() *sql.DB {
	return d.db
}

// CreateContext creates a new context based on the given one, with a default timeout.
func (d *defaultConnection) CreateContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, statementTimeout)
}

// NewConnection creates a new DB instance based on the given configurations.
func NewConnection(config configs.Config) (Connection, error) {
	db, err := sql.Open(config.DatabaseDriver(), config.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("could not create a connection: %w", err)
	}
	db.SetConnMaxLifetime(time.Minute * 3)
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("database is not reachable: %w", err)
	}
	return &defaultConnection{db: db}, nil
}

// Close closes the DB connection.
func (d *defaultConnection) Close() error {
	return d.DB().Close()
}

// CloseRows closes the given rows. Iteration errors were already surfaced by rows.Err.
func CloseRows(rows *sql.Rows) {
	_ = rows.Close()
}

// WithTx runs fn inside a transaction. The transaction is rolled back when fn or the
// commit fails, so a status change and its history row are written together or not at all.
func WithTx(ctx context.Context, dbConn Connection, fn func(tx *sql.Tx) error) (err error) {
	ctx, cancel := dbConn.CreateContext(ctx)
	defer cancel()
	tx, err := dbConn.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Classify maps driver errors into API errors. Integrity violations become conflicts,
// API errors pass through and anything else is wrapped as an internal failure.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		return err
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "23" {
		detail := "conflicting record"
		switch pqErr.Code.Name() {
		case "unique_violation":
			detail = "record already exists"
		case "foreign_key_violation":
			detail = "referenced record does not exist"
		case "check_violation", "not_null_violation":
			detail = "record violates a constraint"
		}
		return apierrors.Conflict(detail, err)
	}
	return fmt.Errorf("an unexpected error occurred: %w", err)
}

// TransformRow transforms the current row given by the into the given struct.
// The transformation is performed by reflection, using a field tag called dbfield for that.
func TransformRow(rows *sql.Rows, model interface{}) error {
	modelType := reflect.TypeOf(model).Elem()
	modelValue := reflect.ValueOf(model)
	columns, err := rows.Columns()
	if err != nil {
		return err
	}
	values := make([]interface{}, 0, len(columns))
	for _, column := range columns {
		found := false
		for i := 0; i < modelType.NumField(); i++ {
			if modelType.Field(i).Tag.Get("dbfield") != column {
				continue
			}
			values = append(values, modelValue.Elem().Field(i).Addr().Interface())
			found = true
			break
		}
		if !found {
			return fmt.Errorf("column %s has no matching field in %s", column, modelType.Name())
		}
	}
	return rows.Scan(values...)
}
