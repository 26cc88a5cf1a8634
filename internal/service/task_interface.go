package service

import (
	"context"
	"taskManager/internal/models/task"
)

// TaskStore - внешнее хранилище, в которое менеджер синхронно дублирует изменения
type TaskStore interface {
	Insert(context.Context, *task.Task) error
	FetchAll(context.Context) ([]*task.Task, error)
	UpdateFields(context.Context, string, task.Patch) error
	DeleteByID(context.Context, string) error
}
