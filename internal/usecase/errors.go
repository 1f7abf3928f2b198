package usecase

import (
	"errors"
	"fmt"

	"cinema-reviews/internal/data/repository"
	"cinema-reviews/pkg/apperror"
)

// storeError classifies a repository failure. Unclassified errors stay
// internal and keep their chain for logging.
func storeError(err error, op string) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return apperror.Wrap(err, apperror.KindConflict, "already exists")
	case errors.Is(err, repository.ErrRecordNotFound):
		return apperror.Wrap(err, apperror.KindNotFound, "not found")
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func validationError(errs map[string]string) error {
	return apperror.Validation(errs)
}
