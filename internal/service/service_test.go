package service_test

import (
	"context"
	"errors"
	"fmt"
	"taskManager/internal/models/task"
	"taskManager/internal/service"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTaskStore - мок хранилища
type MockTaskStore struct {
	mock.Mock
}

func (m *MockTaskStore) Insert(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskStore) FetchAll(ctx context.Context) ([]*task.Task, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskStore) UpdateFields(ctx context.Context, id string, p task.Patch) error {
	args := m.Called(ctx, id, p)
	return args.Error(0)
}

func (m *MockTaskStore) DeleteByID(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ service.TaskStore = (*MockTaskStore)(nil)

var fixedNow = time.Date(2030, time.June, 15, 10, 0, 0, 0, time.Local)

func today() task.Date {
	return task.DateOf(fixedNow)
}

func datePtr(d task.Date) *task.Date {
	return &d
}

func sequentialIDs() func() (string, error) {
	n := 0
	return func() (string, error) {
		n++
		return fmt.Sprintf("id-%03d", n), nil
	}
}

func newManager(t *testing.T, store service.TaskStore) *service.TaskManager {
	t.Helper()
	m, err := service.NewTaskManager(context.Background(), store,
		service.WithClock(func() time.Time { return fixedNow }),
		service.WithIDGenerator(sequentialIDs()),
	)
	require.NoError(t, err)
	return m
}

func validRequest() service.CreateTaskRequest {
	return service.CreateTaskRequest{
		Title:       "Write report",
		Description: "Quarterly numbers",
		DueDate:     datePtr(today().AddDays(3)),
	}
}

func TestTaskManager_New(t *testing.T) {
	t.Run("without store starts empty", func(t *testing.T) {
		m := newManager(t, nil)
		assert.Empty(t, m.ListTasks(service.NoFilter()))
	})

	t.Run("loads tasks from store", func(t *testing.T) {
		store := new(MockTaskStore)
		stored := []*task.Task{
			{ID: "a", Title: "First", Priority: task.PriorityLow, Status: task.StatusPending},
			{ID: "b", Title: "Second", Priority: task.PriorityHigh, Status: task.StatusCompleted},
		}
		store.On("FetchAll", mock.Anything).Return(stored, nil)

		m := newManager(t, store)
		tasks := m.ListTasks(service.NoFilter())
		require.Len(t, tasks, 2)
		assert.Equal(t, "a", tasks[0].ID)
		assert.Equal(t, "b", tasks[1].ID)
		store.AssertExpectations(t)
	})

	t.Run("load failure is a storage error", func(t *testing.T) {
		store := new(MockTaskStore)
		store.On("FetchAll", mock.Anything).Return(nil, errors.New("connection refused"))

		_, err := service.NewTaskManager(context.Background(), store)
		require.Error(t, err)
		assert.True(t, service.IsStorage(err))
		assert.ErrorContains(t, err, "connection refused")
	})

	t.Run("store timeout is applied to calls", func(t *testing.T) {
		store := new(MockTaskStore)
		store.On("FetchAll", mock.MatchedBy(func(ctx context.Context) bool {
			_, ok := ctx.Deadline()
			return ok
		})).Return([]*task.Task{}, nil)

		_, err := service.NewTaskManager(context.Background(), store, service.WithStoreTimeout(time.Second))
		require.NoError(t, err)
		store.AssertExpectations(t)
	})
}

func TestTaskManager_CreateTask(t *testing.T) {
	ctx := context.Background()

	t.Run("success - defaults and write-through", func(t *testing.T) {
		store := new(MockTaskStore)
		store.On("FetchAll", mock.Anything).Return([]*task.Task{}, nil)
		store.On("Insert", mock.Anything, mock.MatchedBy(func(t *task.Task) bool {
			return t.ID == "id-001" && t.Priority == task.PriorityMedium && t.Status == task.StatusPending
		})).Return(nil)

		m := newManager(t, store)
		result, err := m.CreateTask(ctx, validRequest())

		require.NoError(t, err)
		assert.Equal(t, "id-001", result.ID)
		assert.Equal(t, "Write report", result.Title)
		assert.Equal(t, "Quarterly numbers", result.Description)
		assert.Equal(t, today().AddDays(3), result.DueDate)
		assert.Equal(t, task.PriorityMedium, result.Priority)
		assert.Equal(t, task.StatusPending, result.Status)
		assert.Equal(t, fixedNow, result.CreatedAt)
		store.AssertExpectations(t)
	})

	t.Run("success - normalizes priority and status", func(t *testing.T) {
		m := newManager(t, nil)
		req := validRequest()
		req.Priority = " high "
		req.Status = "in progress"

		result, err := m.CreateTask(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, task.PriorityHigh, result.Priority)
		assert.Equal(t, task.StatusInProgress, result.Status)
	})

	t.Run("success - due today is allowed", func(t *testing.T) {
		m := newManager(t, nil)
		req := validRequest()
		req.DueDate = datePtr(today())

		_, err := m.CreateTask(ctx, req)
		assert.NoError(t, err)
	})

	t.Run("ids are unique", func(t *testing.T) {
		m, err := service.NewTaskManager(ctx, nil)
		require.NoError(t, err)

		seen := map[string]bool{}
		for i := 0; i < 50; i++ {
			req := validRequest()
			req.DueDate = datePtr(task.Today(time.Now()).AddDays(1))
			created, err := m.CreateTask(ctx, req)
			require.NoError(t, err)
			assert.False(t, seen[created.ID], "duplicate id %s", created.ID)
			seen[created.ID] = true
		}
	})

	validationCases := []struct {
		name   string
		modify func(*service.CreateTaskRequest)
		field  string
	}{
		{"empty title", func(r *service.CreateTaskRequest) { r.Title = "" }, "title"},
		{"whitespace title", func(r *service.CreateTaskRequest) { r.Title = "   " }, "title"},
		{"empty description", func(r *service.CreateTaskRequest) { r.Description = "" }, "description"},
		{"whitespace description", func(r *service.CreateTaskRequest) { r.Description = "\t " }, "description"},
		{"missing due date", func(r *service.CreateTaskRequest) { r.DueDate = nil }, "due_date"},
		{"due date yesterday", func(r *service.CreateTaskRequest) { r.DueDate = datePtr(today().AddDays(-1)) }, "due_date"},
		{"unknown priority", func(r *service.CreateTaskRequest) { r.Priority = "Urgent" }, "priority"},
		{"unknown status", func(r *service.CreateTaskRequest) { r.Status = "Archived" }, "status"},
	}

	for _, tt := range validationCases {
		t.Run("error - "+tt.name, func(t *testing.T) {
			store := new(MockTaskStore)
			store.On("FetchAll", mock.Anything).Return([]*task.Task{}, nil)

			m := newManager(t, store)
			req := validRequest()
			tt.modify(&req)

			result, err := m.CreateTask(ctx, req)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, service.IsValidation(err))

			busErr, ok := err.(*service.BusinessError)
			require.True(t, ok, "Expected BusinessError")
			assert.Equal(t, tt.field, busErr.Details["field"])

			assert.Empty(t, m.ListTasks(service.NoFilter()))
			store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
		})
	}

	t.Run("error - store insert fails", func(t *testing.T) {
		store := new(MockTaskStore)
		store.On("FetchAll", mock.Anything).Return([]*task.Task{}, nil)
		store.On("Insert", mock.Anything, mock.Anything).Return(errors.New("duplicate key"))

		m := newManager(t, store)
		_, err := m.CreateTask(ctx, validRequest())

		require.Error(t, err)
		assert.True(t, service.IsStorage(err))
		assert.Empty(t, m.ListTasks(service.NoFilter()))
	})

	t.Run("error - id generator fails", func(t *testing.T) {
		m, err := service.NewTaskManager(ctx, nil,
			service.WithClock(func() time.Time { return fixedNow }),
			service.WithIDGenerator(func() (string, error) { return "", errors.New("entropy") }),
		)
		require.NoError(t, err)

		_, err = m.CreateTask(ctx, validRequest())
		assert.ErrorContains(t, err, "entropy")
	})
}

func seedPriorities(t *testing.T, m *service.TaskManager) []*task.Task {
	t.Helper()
	var created []*task.Task
	for i, p := range []string{"Low", "Medium", "High"} {
		req := validRequest()
		req.Title = "Task " + p
		req.Priority = p
		req.DueDate = datePtr(today().AddDays(i))
		if p == "High" {
			req.Status = "In Progress"
		}
		tsk, err := m.CreateTask(context.Background(), req)
		require.NoError(t, err)
		created = append(created, tsk)
	}
	return created
}

func TestTaskManager_ListTasks(t *testing.T) {
	m := newManager(t, nil)
	created := seedPriorities(t, m)

	t.Run("no filter keeps insertion order", func(t *testing.T) {
		tasks := m.ListTasks(service.NoFilter())
		require.Len(t, tasks, 3)
		for i := range created {
			assert.Equal(t, created[i].ID, tasks[i].ID)
		}
	})

	tests := []struct {
		name     string
		filter   service.Filter
		expected []string
	}{
		{"priority medium", service.ByPriority("Medium"), []string{"Task Medium"}},
		{"priority normalized", service.ByPriority(" medium"), []string{"Task Medium"}},
		{"status in progress", service.ByStatus("in progress"), []string{"Task High"}},
		{"status pending", service.ByStatus("Pending"), []string{"Task Low", "Task Medium"}},
		{"due date", service.ByDueDate(today().AddDays(1)), []string{"Task Medium"}},
		{"unmatched value", service.ByPriority("Urgent"), []string{}},
		{"unmatched date", service.ByDueDate(today().AddDays(30)), []string{}},
		{"unknown key", service.Filter{By: "owner", Value: "me"}, []string{"Task Low", "Task Medium", "Task High"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := m.ListTasks(tt.filter)
			require.NotNil(t, tasks)

			titles := []string{}
			for _, tsk := range tasks {
				titles = append(titles, tsk.Title)
			}
			assert.Equal(t, tt.expected, titles)
		})
	}

	t.Run("returned tasks are copies", func(t *testing.T) {
		tasks := m.ListTasks(service.NoFilter())
		tasks[0].Title = "mutated"
		assert.Equal(t, "Task Low", m.ListTasks(service.NoFilter())[0].Title)
	})

	t.Run("round trip equals created record", func(t *testing.T) {
		assert.Equal(t, *created[0], *m.ListTasks(service.NoFilter())[0])
	})
}

func TestParseFilterField(t *testing.T) {
	assert.Equal(t, service.FilterPriority, service.ParseFilterField("Priority"))
	assert.Equal(t, service.FilterStatus, service.ParseFilterField(" status"))
	assert.Equal(t, service.FilterDueDate, service.ParseFilterField("due_date"))
	assert.Equal(t, service.FilterNone, service.ParseFilterField("owner"))
	assert.Equal(t, service.FilterNone, service.ParseFilterField(""))
}

func TestTaskManager_GetTask(t *testing.T) {
	m := newManager(t, nil)
	created, err := m.CreateTask(context.Background(), validRequest())
	require.NoError(t, err)

	got, err := m.GetTask(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = m.GetTask("nonexistent")
	assert.True(t, service.IsNotFound(err))
}

func TestTaskManager_UpdateTask(t *testing.T) {
	ctx := context.Background()

	t.Run("success - only status changes", func(t *testing.T) {
		store := new(MockTaskStore)
		store.On("FetchAll", mock.Anything).Return([]*task.Task{}, nil)
		store.On("Insert", mock.Anything, mock.Anything).Return(nil)
		store.On("UpdateFields", mock.Anything, "id-001", mock.MatchedBy(func(p task.Patch) bool {
			return p.Status != nil && *p.Status == task.StatusInProgress &&
				p.Title == nil && p.Description == nil && p.DueDate == nil && p.Priority == nil
		})).Return(nil)

		m := newManager(t, store)
		created, err := m.CreateTask(ctx, validRequest())
		require.NoError(t, err)

		result, err := m.UpdateTask(ctx, created.ID, task.NewPatch(task.WithStatus("In Progress")))
		require.NoError(t, err)

		expected := *created
		expected.Status = task.StatusInProgress
		assert.Equal(t, expected, *result)

		stored, err := m.GetTask(created.ID)
		require.NoError(t, err)
		assert.Equal(t, expected, *stored)
		store.AssertExpectations(t)
	})

	t.Run("success - several fields normalized", func(t *testing.T) {
		m := newManager(t, nil)
		created, err := m.CreateTask(ctx, validRequest())
		require.NoError(t, err)

		newDue := today().AddDays(10)
		result, err := m.UpdateTask(ctx, created.ID, task.NewPatch(
			task.WithTitle("  New title "),
			task.WithDueDate(newDue),
			task.WithPriority("low"),
		))
		require.NoError(t, err)
		assert.Equal(t, "New title", result.Title)
		assert.Equal(t, newDue, result.DueDate)
		assert.Equal(t, task.PriorityLow, result.Priority)
		assert.Equal(t, created.Description, result.Description)
		assert.Equal(t, created.CreatedAt, result.CreatedAt)
	})

	t.Run("empty patch skips store", func(t *testing.T) {
		store := new(MockTaskStore)
		store.On("FetchAll", mock.Anything).Return([]*task.Task{{ID: "a", Title: "T"}}, nil)

		m := newManager(t, store)
		result, err := m.UpdateTask(ctx, "a", task.Patch{})
		require.NoError(t, err)
		assert.Equal(t, "T", result.Title)
		store.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("error - not found", func(t *testing.T) {
		m := newManager(t, nil)
		_, err := m.UpdateTask(ctx, "nonexistent", task.NewPatch(task.WithTitle("x")))
		require.Error(t, err)
		assert.True(t, service.IsNotFound(err))
	})

	blank := "  "
	pastDue := today().AddDays(-1)
	badPriority := task.Priority("Urgent")
	badStatus := task.Status("Archived")
	invalid := []struct {
		name  string
		patch task.Patch
	}{
		{"blank title", task.Patch{Title: &blank}},
		{"blank description", task.Patch{Description: &blank}},
		{"past due date", task.Patch{DueDate: &pastDue}},
		{"unknown priority", task.Patch{Priority: &badPriority}},
		{"unknown status", task.Patch{Status: &badStatus}},
	}

	for _, tt := range invalid {
		t.Run("error - "+tt.name, func(t *testing.T) {
			m := newManager(t, nil)
			created, err := m.CreateTask(ctx, validRequest())
			require.NoError(t, err)

			_, err = m.UpdateTask(ctx, created.ID, tt.patch)
			require.Error(t, err)
			assert.True(t, service.IsValidation(err))

			unchanged, err := m.GetTask(created.ID)
			require.NoError(t, err)
			assert.Equal(t, created, unchanged)
		})
	}

	t.Run("error - store failure keeps memory unchanged", func(t *testing.T) {
		store := new(MockTaskStore)
		store.On("FetchAll", mock.Anything).Return([]*task.Task{{ID: "a", Title: "Old"}}, nil)
		store.On("UpdateFields", mock.Anything, "a", mock.Anything).Return(errors.New("deadlock"))

		m := newManager(t, store)
		_, err := m.UpdateTask(ctx, "a", task.NewPatch(task.WithTitle("New")))
		require.Error(t, err)
		assert.True(t, service.IsStorage(err))

		got, err := m.GetTask("a")
		require.NoError(t, err)
		assert.Equal(t, "Old", got.Title)
	})
}

func TestTaskManager_MarkCompleted(t *testing.T) {
	ctx := context.Background()

	t.Run("success - idempotent", func(t *testing.T) {
		store := new(MockTaskStore)
		store.On("FetchAll", mock.Anything).Return([]*task.Task{}, nil)
		store.On("Insert", mock.Anything, mock.Anything).Return(nil)
		store.On("UpdateFields", mock.Anything, "id-001", mock.MatchedBy(func(p task.Patch) bool {
			return p.Status != nil && *p.Status == task.StatusCompleted && len(p.Fields()) == 1
		})).Return(nil).Twice()

		m := newManager(t, store)
		created, err := m.CreateTask(ctx, validRequest())
		require.NoError(t, err)

		first, err := m.MarkCompleted(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, task.StatusCompleted, first.Status)

		second, err := m.MarkCompleted(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		store.AssertExpectations(t)
	})

	t.Run("error - not found", func(t *testing.T) {
		m := newManager(t, nil)
		_, err := m.MarkCompleted(ctx, "nonexistent")
		require.Error(t, err)
		assert.True(t, service.IsNotFound(err))
	})
}

func TestTaskManager_RemoveTask(t *testing.T) {
	ctx := context.Background()

	t.Run("success - removes present task", func(t *testing.T) {
		store := new(MockTaskStore)
		store.On("FetchAll", mock.Anything).Return([]*task.Task{}, nil)
		store.On("Insert", mock.Anything, mock.Anything).Return(nil)
		store.On("DeleteByID", mock.Anything, "id-002").Return(nil)

		m := newManager(t, store)
		seedPriorities(t, m)

		require.NoError(t, m.RemoveTask(ctx, "id-002"))

		tasks := m.ListTasks(service.NoFilter())
		require.Len(t, tasks, 2)
		assert.Equal(t, "id-001", tasks[0].ID)
		assert.Equal(t, "id-003", tasks[1].ID)
		store.AssertExpectations(t)
	})

	t.Run("missing id is a silent no-op that still reaches the store", func(t *testing.T) {
		store := new(MockTaskStore)
		store.On("FetchAll", mock.Anything).Return([]*task.Task{{ID: "a"}}, nil)
		store.On("DeleteByID", mock.Anything, "nonexistent").Return(nil)

		m := newManager(t, store)
		require.NoError(t, m.RemoveTask(ctx, "nonexistent"))
		assert.Len(t, m.ListTasks(service.NoFilter()), 1)
		store.AssertExpectations(t)
	})

	t.Run("without store", func(t *testing.T) {
		m := newManager(t, nil)
		created, err := m.CreateTask(ctx, validRequest())
		require.NoError(t, err)

		require.NoError(t, m.RemoveTask(ctx, created.ID))
		assert.Empty(t, m.ListTasks(service.NoFilter()))

		_, err = m.GetTask(created.ID)
		assert.True(t, service.IsNotFound(err))
	})

	t.Run("error - store failure", func(t *testing.T) {
		store := new(MockTaskStore)
		store.On("FetchAll", mock.Anything).Return([]*task.Task{{ID: "a"}}, nil)
		store.On("DeleteByID", mock.Anything, "a").Return(errors.New("lost connection"))

		m := newManager(t, store)
		err := m.RemoveTask(ctx, "a")
		require.Error(t, err)
		assert.True(t, service.IsStorage(err))
	})
}

func TestBusinessError(t *testing.T) {
	cause := errors.New("disk full")
	err := service.NewStorageError("insert", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, service.CodeStorage, err.Code)
	assert.Equal(t, "insert", err.Details["operation"])
	assert.Contains(t, err.Error(), "[STORAGE_ERROR]")

	notFound := service.NewNotFound("abc")
	assert.Equal(t, "abc", notFound.Details["id"])
	assert.False(t, service.IsValidation(notFound))
	assert.True(t, service.IsNotFound(fmt.Errorf("wrapped: %w", notFound)))
	assert.False(t, service.IsNotFound(errors.New("plain")))
}
