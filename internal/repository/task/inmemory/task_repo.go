package inmemory

import (
	"context"
	"sync"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"
)

// TaskStorage - хранилище без диска, живёт столько же, сколько процесс
type TaskStorage struct {
	storage map[string]*task.Task
	mtx     *sync.RWMutex
	ids     []string
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[string]*task.Task),
		mtx:     &sync.RWMutex{},
		ids:     []string{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Info("Repository: Соединение стабильно")
	return nil
}

func (s *TaskStorage) Insert(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[taskToCreate.ID]; ok {
		return repo.ErrDuplicateID
	}

	s.storage[taskToCreate.ID] = taskToCreate.Clone()
	s.ids = append(s.ids, taskToCreate.ID)
	return nil
}

// все задачи в порядке добавления
func (s *TaskStorage) FetchAll(ctx context.Context) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]*task.Task, 0, len(s.ids))
	for _, id := range s.ids {
		res = append(res, s.storage[id].Clone())
	}
	return res, nil
}

// частичное обновление, отсутствующая задача молча пропускается
func (s *TaskStorage) UpdateFields(ctx context.Context, id string, patch task.Patch) error {
	if patch.IsEmpty() {
		return nil
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	taskToUpdate, ok := s.storage[id]
	if !ok {
		logger.Warn("Repository: Обновление несуществующей задачи")
		return nil
	}
	patch.Apply(taskToUpdate)
	return nil
}

func (s *TaskStorage) DeleteByID(ctx context.Context, id string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	delete(s.storage, id)
	for ind, val := range s.ids {
		if val == id {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}
	return nil
}
