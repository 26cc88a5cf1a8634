package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	"time"

	"go.uber.org/zap"
)

// TaskManager владеет коллекцией задач в памяти. Если задано хранилище,
// каждое изменение синхронно дублируется в него до возврата из метода.
type TaskManager struct {
	tasks        []*task.Task
	store        TaskStore
	now          func() time.Time
	newID        func() (string, error)
	storeTimeout time.Duration
}

type CreateTaskRequest struct {
	Title       string
	Description string
	DueDate     *task.Date
	Priority    string // пусто - Medium
	Status      string // пусто - Pending
}

// NewTaskManager при наличии хранилища сразу загружает из него все задачи.
// store может быть nil, тогда менеджер работает только в памяти.
func NewTaskManager(ctx context.Context, store TaskStore, options ...Option) (*TaskManager, error) {
	m := &TaskManager{
		tasks: []*task.Task{},
		store: store,
		now:   time.Now,
		newID: newUUIDv7,
	}
	for _, opt := range options {
		opt(m)
	}

	if m.store == nil {
		logger.Info("Service: Хранилище не задано, задачи живут только в памяти")
		return m, nil
	}

	storeCtx, cancel := m.storeContext(ctx)
	defer cancel()

	tasks, err := m.store.FetchAll(storeCtx)
	if err != nil {
		logger.Error("Service: Не удалось загрузить задачи", err)
		return nil, NewStorageError("fetch_all", err)
	}
	m.tasks = append(m.tasks, tasks...)

	logger.Info("Service: Задачи загружены из хранилища", zap.Int("count", len(m.tasks)))
	return m, nil
}

func (m *TaskManager) CreateTask(ctx context.Context, req CreateTaskRequest) (*task.Task, error) {
	priority := task.PriorityMedium
	if strings.TrimSpace(req.Priority) != "" {
		priority = task.NormalizePriority(req.Priority)
	}
	status := task.StatusPending
	if strings.TrimSpace(req.Status) != "" {
		status = task.NormalizeStatus(req.Status)
	}

	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)

	if title == "" {
		return nil, NewValidationError("title", "не может быть пустым")
	}
	if description == "" {
		return nil, NewValidationError("description", "не может быть пустым")
	}
	if req.DueDate == nil {
		return nil, NewValidationError("due_date", "обязательное поле")
	}
	if !status.Valid() {
		return nil, NewValidationError("status", fmt.Sprintf("допустимые значения %v", task.Statuses))
	}
	if !priority.Valid() {
		return nil, NewValidationError("priority", fmt.Sprintf("допустимые значения %v", task.Priorities))
	}
	if req.DueDate.Before(task.Today(m.now())) {
		return nil, NewValidationError("due_date", "дата не может быть в прошлом")
	}

	id, err := m.newID()
	if err != nil {
		logger.Error("Service: Не удалось сгенерировать идентификатор", err)
		return nil, fmt.Errorf("генерация идентификатора: %w", err)
	}

	newTask := &task.Task{
		ID:          id,
		Title:       title,
		Description: description,
		DueDate:     *req.DueDate,
		Priority:    priority,
		Status:      status,
		CreatedAt:   m.now(),
	}

	if m.store != nil {
		storeCtx, cancel := m.storeContext(ctx)
		defer cancel()

		if err := m.store.Insert(storeCtx, newTask.Clone()); err != nil {
			logger.Error("Service: Не удалось сохранить задачу", err, zap.String("task_id", id))
			return nil, NewStorageError("insert", err)
		}
	}

	m.tasks = append(m.tasks, newTask)
	logger.Info("Service: Задача создана", zap.String("task_id", id))

	return newTask.Clone(), nil
}

// ListTasks возвращает задачи в порядке добавления
func (m *TaskManager) ListTasks(filter Filter) []*task.Task {
	res := []*task.Task{}
	for _, t := range m.tasks {
		if filter.match(t) {
			res = append(res, t.Clone())
		}
	}
	return res
}

func (m *TaskManager) GetTask(id string) (*task.Task, error) {
	idx := m.indexOf(id)
	if idx < 0 {
		logger.Info("Service: Задача не найдена", zap.String("target_id", id))
		return nil, NewNotFound(id)
	}
	return m.tasks[idx].Clone(), nil
}

// UpdateTask меняет только поля, заданные в patch. Хранилище получает тот же набор полей.
func (m *TaskManager) UpdateTask(ctx context.Context, id string, patch task.Patch) (*task.Task, error) {
	idx := m.indexOf(id)
	if idx < 0 {
		logger.Info("Service: Задача не найдена", zap.String("target_id", id))
		return nil, NewNotFound(id)
	}

	patch, err := m.normalizePatch(patch)
	if err != nil {
		return nil, err
	}

	updated := m.tasks[idx].Clone()
	patch.Apply(updated)

	if m.store != nil && !patch.IsEmpty() {
		storeCtx, cancel := m.storeContext(ctx)
		defer cancel()

		if err := m.store.UpdateFields(storeCtx, id, patch); err != nil {
			logger.Error("Service: Не удалось обновить задачу", err, zap.String("task_id", id))
			return nil, NewStorageError("update", err)
		}
	}

	m.tasks[idx] = updated
	logger.Info("Service: Задача обновлена",
		zap.String("task_id", id),
		zap.Strings("fields", patch.FieldNames()))

	return updated.Clone(), nil
}

// MarkCompleted сразу ставит статус в памяти, а затем сохраняет его через UpdateTask
func (m *TaskManager) MarkCompleted(ctx context.Context, id string) (*task.Task, error) {
	idx := m.indexOf(id)
	if idx < 0 {
		logger.Info("Service: Задача не найдена", zap.String("target_id", id))
		return nil, NewNotFound(id)
	}

	m.tasks[idx].MarkDone()
	return m.UpdateTask(ctx, id, task.NewPatch(task.WithStatus(task.StatusCompleted)))
}

// RemoveTask не считает отсутствие задачи ошибкой. Удаление в хранилище
// выполняется всегда, даже если в памяти задачи не было.
func (m *TaskManager) RemoveTask(ctx context.Context, id string) error {
	before := len(m.tasks)
	m.tasks = slices.DeleteFunc(m.tasks, func(t *task.Task) bool {
		return t.ID == id
	})

	if m.store != nil {
		storeCtx, cancel := m.storeContext(ctx)
		defer cancel()

		if err := m.store.DeleteByID(storeCtx, id); err != nil {
			logger.Error("Service: Не удалось удалить задачу", err, zap.String("task_id", id))
			return NewStorageError("delete", err)
		}
	}

	logger.Info("Service: Задача удалена",
		zap.String("task_id", id),
		zap.Bool("found", before != len(m.tasks)))
	return nil
}

func (m *TaskManager) normalizePatch(patch task.Patch) (task.Patch, error) {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return task.Patch{}, NewValidationError("title", "не может быть пустым")
		}
		patch.Title = &title
	}
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		if description == "" {
			return task.Patch{}, NewValidationError("description", "не может быть пустым")
		}
		patch.Description = &description
	}
	if patch.Status != nil {
		status := task.NormalizeStatus(string(*patch.Status))
		if !status.Valid() {
			return task.Patch{}, NewValidationError("status", fmt.Sprintf("допустимые значения %v", task.Statuses))
		}
		patch.Status = &status
	}
	if patch.Priority != nil {
		priority := task.NormalizePriority(string(*patch.Priority))
		if !priority.Valid() {
			return task.Patch{}, NewValidationError("priority", fmt.Sprintf("допустимые значения %v", task.Priorities))
		}
		patch.Priority = &priority
	}
	if patch.DueDate != nil && patch.DueDate.Before(task.Today(m.now())) {
		return task.Patch{}, NewValidationError("due_date", "дата не может быть в прошлом")
	}
	return patch, nil
}

func (m *TaskManager) indexOf(id string) int {
	return slices.IndexFunc(m.tasks, func(t *task.Task) bool {
		return t.ID == id
	})
}

func (m *TaskManager) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.storeTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, m.storeTimeout)
}
