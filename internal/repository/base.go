// Package repository provides data access layer implementations for the application.
package repository

import (
	"errors"

	"editorial/internal/models"

	"gorm.io/gorm"
)

// translateError maps gorm errors onto the application error taxonomy.
// AppErrors pass through unchanged.
func translateError(err error, resource string, id interface{}) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

// uniqueViolation converts a duplicate-key error into a constraint violation on field.
func uniqueViolation(err error, field, message string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return models.NewConstraintViolationError(field, message)
	}
	return err
}
