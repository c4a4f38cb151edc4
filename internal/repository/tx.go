package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrConflict signals a write lost to a concurrent transaction: serialization failure,
	// deadlock, unique race or a stale version on compare-and-swap.
	ErrConflict = errors.New("repository: concurrent write conflict")
	// ErrStockGuard is returned when a guarded decrement matched no row.
	ErrStockGuard = errors.New("repository: stock guard rejected decrement")
)

// PostgreSQL SQLSTATE codes treated as retryable conflicts.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
)

// TxManager runs a unit of work. Every write issued through tx inside fn commits
// together or not at all.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTxManager struct{ db *gorm.DB }

func NewTxManager(db *gorm.DB) TxManager { return &gormTxManager{db: db} }

func (m *gormTxManager) WithinTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return classifyPgError(m.db.WithContext(ctx).Transaction(fn))
}

// classifyPgError maps retryable PostgreSQL failures onto ErrConflict.
func classifyPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgUniqueViolation:
			return fmt.Errorf("%w: %s (%s)", ErrConflict, pgErr.Message, pgErr.Code)
		}
	}
	return err
}
