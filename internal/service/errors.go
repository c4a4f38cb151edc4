package service

import (
	"errors"
	"fmt"

	"backoffice/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Error kinds returned by the services. Handlers classify with errors.Is / errors.As.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("concurrent modification, retry")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// InsufficientStockError is returned by CreateSale and RemoveStock alike.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d",
		e.ProductName, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// translateRepoErr maps storage-level signals onto the service error kinds.
// what names the entity for not-found messages.
func translateRepoErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFoundf("%s not found", what)
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: %s", ErrConflict, what)
	}
	return err
}
