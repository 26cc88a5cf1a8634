package service

import (
	"errors"
	"fmt"
)

const (
	CodeValidation = "VALIDATION_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeStorage    = "STORAGE_ERROR"
)

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}
	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}
	return busErr
}

func NewNotFound(id string) *BusinessError {
	return NewBusinessError(CodeNotFound,
		fmt.Sprintf("задача %s не найдена", id),
		ToDetail("resource", "task"),
		ToDetail("id", id),
	)
}

func NewValidationError(field, reason string) *BusinessError {
	return NewBusinessError(CodeValidation,
		fmt.Sprintf("неверное значение поля '%s': %s", field, reason),
		ToDetail("field", field),
		ToDetail("reason", reason),
	)
}

// NewStorageError оборачивает ошибку хранилища, исходная ошибка доступна через errors.Unwrap
func NewStorageError(operation string, err error) *BusinessError {
	busErr := NewBusinessError(CodeStorage,
		fmt.Sprintf("ошибка хранилища при операции %s", operation),
		ToDetail("operation", operation),
	)
	busErr.Err = err
	return busErr
}

func hasCode(err error, code string) bool {
	var busErr *BusinessError
	if errors.As(err, &busErr) {
		return busErr.Code == code
	}
	return false
}

func IsValidation(err error) bool {
	return hasCode(err, CodeValidation)
}

func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

func IsStorage(err error) bool {
	return hasCode(err, CodeStorage)
}
