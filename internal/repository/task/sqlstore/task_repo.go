// Package sqlstore хранит задачи в MySQL или SQLite через database/sql и sqlx.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

const mysqlDuplicateEntry = 1062

const slowQuery = time.Millisecond * 100

type Storage struct {
	db     *sqlx.DB
	driver string
}

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
}

// строка таблицы tasks
type taskRow struct {
	ID           string    `db:"task_id"`
	Title        string    `db:"title"`
	Description  string    `db:"description"`
	DueDate      time.Time `db:"due_date"`
	Priority     string    `db:"priority"`
	Status       string    `db:"status"`
	CreationDate time.Time `db:"creation_date"`
}

func New(ctx context.Context, driver, dsn string, poolCfg PoolConfig) (*Storage, error) {
	dsn, err := prepareDSN(driver, dsn)
	if err != nil {
		logger.Error("Repository: Ошибка разбора DSN", err)
		return nil, fmt.Errorf("разбор DSN: %w", err)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		logger.Error("Repository: Не удалось подключиться к базе", err, zap.String("driver", driver))
		return nil, fmt.Errorf("подключение к базе: %w", err)
	}

	if driver == DriverSQLite {
		// один писатель, иначе "database is locked"
		db.SetMaxOpenConns(1)
	} else if poolCfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(poolCfg.MaxOpenConns)
	}
	if poolCfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(poolCfg.MaxIdleConns)
	}
	if poolCfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(poolCfg.ConnMaxIdleTime)
	}

	s := &Storage{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Repository: Успешное создание подключения", zap.String("driver", driver))
	return s, nil
}

// MySQL отдаёт DATE как time.Time только с parseTime=true
func prepareDSN(driver, dsn string) (string, error) {
	switch driver {
	case DriverMySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", err
		}
		cfg.ParseTime = true
		cfg.Loc = time.UTC
		return cfg.FormatDSN(), nil
	case DriverSQLite:
		if dsn == "" {
			return "", errors.New("пустой путь к файлу базы")
		}
		return dsn, nil
	default:
		return "", fmt.Errorf("неизвестный драйвер %q", driver)
	}
}

func (s *Storage) migrate(ctx context.Context) error {
	createTasks := `CREATE TABLE IF NOT EXISTS tasks (
    task_id VARCHAR(36) PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    due_date DATE NOT NULL,
    priority VARCHAR(16) NOT NULL DEFAULT 'Medium',
    status VARCHAR(16) NOT NULL DEFAULT 'Pending',
    creation_date DATETIME(6) NOT NULL
)`
	if s.driver == DriverSQLite {
		createTasks = strings.Replace(createTasks, "DATETIME(6)", "TIMESTAMP", 1)
	}

	if _, err := s.db.ExecContext(ctx, createTasks); err != nil {
		logger.Error("Repository: Не удалось создать таблицу tasks", err)
		return fmt.Errorf("создание таблицы: %w", err)
	}
	return nil
}

func (s *Storage) Close() error {
	logger.Info("Repository: Закрытие соединения", zap.String("driver", s.driver))
	return s.db.Close()
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Insert(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	row := taskRow{
		ID:           taskToCreate.ID,
		Title:        taskToCreate.Title,
		Description:  taskToCreate.Description,
		DueDate:      taskToCreate.DueDate.Time(),
		Priority:     string(taskToCreate.Priority),
		Status:       string(taskToCreate.Status),
		CreationDate: taskToCreate.CreatedAt.UTC(),
	}

	_, err := s.db.NamedExecContext(ctx, `INSERT INTO tasks
		(task_id, title, description, due_date, priority, status, creation_date)
		VALUES (:task_id, :title, :description, :due_date, :priority, :status, :creation_date)`, row)
	if err != nil {
		if isDuplicate(err) {
			logger.Warn("Repository: Повтор идентификатора", zap.String("task_id", taskToCreate.ID))
			return fmt.Errorf("добавление задачи: %w", repo.ErrDuplicateID)
		}
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	warnSlow(start)
	return nil
}

func (s *Storage) FetchAll(ctx context.Context) ([]*task.Task, error) {
	start := time.Now()

	rows := []taskRow{}
	err := s.db.SelectContext(ctx, &rows, `SELECT
		task_id, title, description, due_date, priority, status, creation_date
		FROM tasks
		ORDER BY task_id`)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	tasks := make([]*task.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, &task.Task{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			DueDate:     task.DateOf(r.DueDate.UTC()),
			Priority:    task.Priority(r.Priority),
			Status:      task.Status(r.Status),
			CreatedAt:   r.CreationDate,
		})
	}

	warnSlow(start)
	return tasks, nil
}

func (s *Storage) UpdateFields(ctx context.Context, id string, patch task.Patch) error {
	fields := patch.Fields()
	if len(fields) == 0 {
		return nil
	}
	start := time.Now()

	sets := make([]string, len(fields))
	args := map[string]any{"task_id": id}
	for i, f := range fields {
		sets[i] = fmt.Sprintf("%s = :%s", f.Name, f.Name)
		args[f.Name] = f.Value
	}

	query := fmt.Sprintf("UPDATE tasks SET %s WHERE task_id = :task_id", strings.Join(sets, ", "))
	res, err := s.db.NamedExecContext(ctx, query, args)
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err, zap.String("task_id", id))
		return fmt.Errorf("обновление задачи: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL считает только реально изменённые строки, это не ошибка
		logger.Warn("Repository: Обновление не затронуло строк", zap.String("task_id", id))
	}

	warnSlow(start)
	return nil
}

func (s *Storage) DeleteByID(ctx context.Context, id string) error {
	start := time.Now()

	_, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM tasks WHERE task_id = ?"), id)
	if err != nil {
		logger.Error("Repository: Удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}

	warnSlow(start)
	return nil
}

func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

func warnSlow(start time.Time) {
	if time.Since(start) > slowQuery {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
}
