package service

import (
	"time"

	"github.com/google/uuid"
)

type Option func(*TaskManager)

func WithClock(now func() time.Time) Option {
	return func(m *TaskManager) {
		m.now = now
	}
}

func WithIDGenerator(newID func() (string, error)) Option {
	return func(m *TaskManager) {
		m.newID = newID
	}
}

// WithStoreTimeout ограничивает каждый вызов хранилища, 0 - без ограничения
func WithStoreTimeout(timeout time.Duration) Option {
	return func(m *TaskManager) {
		m.storeTimeout = timeout
	}
}

// UUIDv7 в текстовом виде сортируется по времени создания
func newUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
