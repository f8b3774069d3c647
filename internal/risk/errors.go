package risk

import (
	"errors"
	"fmt"
)

// ValidationError — нарушение инварианта входных данных: балл вне диапазона,
// неизвестный вариант ответа, дубликат по уникальному ключу. Мутация
// отклоняется, прежнее состояние не меняется.
type ValidationError struct {
	Entity string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Entity, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Entity, e.Reason)
}

func invalid(entity, field, reason string) error {
	return &ValidationError{Entity: entity, Field: field, Reason: reason}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func checkScore(entity, field string, v int) error {
	if v < 1 || v > 10 {
		return invalid(entity, field, fmt.Sprintf("score %d out of range [1,10]", v))
	}
	return nil
}
