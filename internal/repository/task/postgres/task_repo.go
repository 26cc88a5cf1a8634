package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"
	"time"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const uniqueViolation = "23505"

const slowQuery = time.Millisecond * 100

type Storage struct {
	pool *pgxpool.Pool
}

type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
}

func New(ctx context.Context, connString string, poolCfg PoolConfig) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5
	if poolCfg.MaxConns > 0 {
		config.MaxConns = poolCfg.MaxConns
	}
	if poolCfg.MinConns > 0 {
		config.MinConns = poolCfg.MinConns
	}
	if poolCfg.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = poolCfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	logger.Info("Repository: Соединение стабильно")
	return nil
}

func (s *Storage) Insert(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	query := `INSERT INTO tasks
				(task_id, title, description, due_date, priority, status, creation_date)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, query,
		taskToCreate.ID,
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.DueDate.Time(),
		string(taskToCreate.Priority),
		string(taskToCreate.Status),
		taskToCreate.CreatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			logger.Warn("Repository: Повтор идентификатора", zap.String("task_id", taskToCreate.ID))
			return fmt.Errorf("добавление задачи: %w", repo.ErrDuplicateID)
		}
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	warnSlow(start)
	return nil
}

// FetchAll отдаёт задачи по возрастанию task_id, для UUIDv7 это порядок создания
func (s *Storage) FetchAll(ctx context.Context) ([]*task.Task, error) {
	start := time.Now()

	query := `SELECT
				task_id,
				title,
				description,
				due_date,
				priority,
				status,
				creation_date
				FROM tasks
				ORDER BY task_id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t := &task.Task{}
		var dueDate time.Time
		var priority, status string

		err := rows.Scan(
			&t.ID,
			&t.Title,
			&t.Description,
			&dueDate,
			&priority,
			&status,
			&t.CreatedAt,
		)
		if err != nil {
			logger.Error("Repository: Ошибка сканирования задачи", err)
			return nil, fmt.Errorf("сканирование задачи: %w", err)
		}

		t.DueDate = task.DateOf(dueDate)
		t.Priority = task.Priority(priority)
		t.Status = task.Status(status)
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	warnSlow(start)
	return tasks, nil
}

// UpdateFields обновляет только поля из patch, имена полей совпадают с колонками
func (s *Storage) UpdateFields(ctx context.Context, id string, patch task.Patch) error {
	fields := patch.Fields()
	if len(fields) == 0 {
		return nil
	}
	start := time.Now()

	sets := make([]string, len(fields))
	args := make([]any, 0, len(fields)+1)
	for i, f := range fields {
		sets[i] = fmt.Sprintf("%s = $%d", f.Name, i+1)
		args = append(args, f.Value)
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE tasks SET %s WHERE task_id = $%d`, strings.Join(sets, ", "), len(fields)+1)

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err, zap.String("task_id", id))
		return fmt.Errorf("обновление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		logger.Warn("Repository: Обновление несуществующей задачи", zap.String("task_id", id))
	}

	warnSlow(start)
	return nil
}

func (s *Storage) DeleteByID(ctx context.Context, id string) error {
	start := time.Now()

	query := `DELETE FROM tasks
				WHERE task_id = $1`

	_, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		logger.Error("Repository: Удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}

	warnSlow(start)
	return nil
}

func (s *Storage) Migrate(ctx context.Context) error {
	logger.Info("Repository: Применение миграций")

	m, err := s.migrator()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: Не удалось применить миграции", err)
		return fmt.Errorf("применение миграций: %w", err)
	}

	logger.Info("Repository: Миграции применены")
	return nil
}

func (s *Storage) Down(ctx context.Context) error {
	logger.Info("Repository: Откат миграций")

	m, err := s.migrator()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: Не удалось откатить миграции", err)
		return fmt.Errorf("откат миграций: %w", err)
	}

	logger.Info("Repository: Миграции откачены")
	return nil
}

// закрытие migrate закрывает только sql.DB-обёртку, пул остаётся рабочим
func (s *Storage) migrator() (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		logger.Error("Repository: Не удалось прочитать миграции", err)
		return nil, fmt.Errorf("чтение миграций: %w", err)
	}

	db := stdlib.OpenDBFromPool(s.pool)
	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		logger.Error("Repository: Не удалось подготовить драйвер миграций", err)
		return nil, fmt.Errorf("драйвер миграций: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "pgx5", driver)
	if err != nil {
		logger.Error("Repository: Не удалось создать мигратор", err)
		return nil, fmt.Errorf("создание мигратора: %w", err)
	}
	return m, nil
}

func warnSlow(start time.Time) {
	if time.Since(start) > slowQuery {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
}
