package cli

import (
	"context"
	"taskManager/internal/models/task"
	"taskManager/internal/service"
)

type TaskService interface {
	CreateTask(context.Context, service.CreateTaskRequest) (*task.Task, error)
	ListTasks(service.Filter) []*task.Task
	GetTask(string) (*task.Task, error)
	UpdateTask(context.Context, string, task.Patch) (*task.Task, error)
	MarkCompleted(context.Context, string) (*task.Task, error)
	RemoveTask(context.Context, string) error
}
