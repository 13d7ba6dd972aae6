package service

import (
	"errors"
	"fmt"

	"coinmeet/internal/domain"

	"gorm.io/gorm"
)

// lookupErr maps a missing row to a not-found domain error and wraps anything else.
func lookupErr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFound("%s not found", what)
	}
	return fmt.Errorf("load %s: %w", what, err)
}
