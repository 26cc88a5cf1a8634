package app

import (
	"context"
	"fmt"
	"io"
	"taskManager/internal/cli"
	"taskManager/internal/config"
	"taskManager/internal/logger"
	"taskManager/internal/repository/task/inmemory"
	"taskManager/internal/repository/task/postgres"
	"taskManager/internal/repository/task/sqlstore"
	"taskManager/internal/service"
	"sync"
	"time"

	"go.uber.org/zap"
)

// сколько Run ждёт меню после отмены ctx
const menuStopTimeout = time.Second

type App struct {
	config    *config.Config
	store     service.TaskStore // nil для repository.type: none
	manager   *service.TaskManager
	mu        sync.Mutex
	shutdowns []func() // выполняются в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) (*App, error) {
	if err := a.config.Validate(); err != nil {
		return nil, fmt.Errorf("проверка конфига: %w", err)
	}

	var outputs []string
	if a.config.Logging.Output != "" {
		outputs = append(outputs, a.config.Logging.Output)
	}
	if err := logger.Init(a.config.Logging.Development, outputs...); err != nil {
		return nil, fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("App: Завершение работы логгирования...")
		logger.Sync()
	})

	if err := a.initStore(ctx); err != nil {
		a.Shutdown()
		return nil, err
	}

	manager, err := service.NewTaskManager(ctx, a.store,
		service.WithStoreTimeout(a.config.Database.QueryTimeout))
	if err != nil {
		a.Shutdown()
		return nil, fmt.Errorf("загрузка задач: %w", err)
	}
	a.manager = manager

	logger.Info("App: Приложение инициализировано", zap.String("repository", a.config.Repository.Type))
	return a, nil
}

func (a *App) initStore(ctx context.Context) error {
	db := a.config.Database

	switch a.config.Repository.Type {
	case config.RepositoryNone:
		return nil

	case config.RepositoryInMemory:
		a.store = inmemory.NewTaskStorage()
		return nil

	case config.RepositoryPostgres:
		storage, err := postgres.New(ctx, db.URL, postgres.PoolConfig{
			MaxConns:        int32(db.MaxConnections),
			MinConns:        int32(db.MinConnections),
			MaxConnIdleTime: db.IdleTimeout,
		})
		if err != nil {
			return fmt.Errorf("подключение к postgres: %w", err)
		}
		a.shutdowns = append(a.shutdowns, storage.Close)

		if err := storage.Migrate(ctx); err != nil {
			return err
		}
		a.store = storage
		return nil

	case config.RepositoryMySQL, config.RepositorySQLite:
		driver := sqlstore.DriverMySQL
		if a.config.Repository.Type == config.RepositorySQLite {
			driver = sqlstore.DriverSQLite
		}

		storage, err := sqlstore.New(ctx, driver, db.URL, sqlstore.PoolConfig{
			MaxOpenConns:    db.MaxConnections,
			MaxIdleConns:    db.MinConnections,
			ConnMaxIdleTime: db.IdleTimeout,
		})
		if err != nil {
			return fmt.Errorf("подключение к %s: %w", a.config.Repository.Type, err)
		}
		a.shutdowns = append(a.shutdowns, func() {
			if err := storage.Close(); err != nil {
				logger.Error("App: Ошибка закрытия хранилища", err)
			}
		})
		a.store = storage
		return nil
	}

	return fmt.Errorf("неизвестный тип хранилища %q", a.config.Repository.Type)
}

// Run показывает меню, пока пользователь не выйдет или не отменят ctx.
// После отмены меню ждём не дольше menuStopTimeout: вызов менеджера с
// отменённым ctx возвращается быстро, а чтение stdin не прерывается.
func (a *App) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	ui := cli.NewTaskApp(a.manager, in, out)

	errCh := make(chan error, 1)
	go func() {
		errCh <- ui.Run(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("работа меню: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("App: Получен сигнал завершения")
	}

	select {
	case <-errCh:
		logger.Info("App: Меню остановлено")
	case <-time.After(menuStopTimeout):
		logger.Warn("App: Меню ждёт ввода, завершаемся без него")
	}
	return nil
}

// Shutdown можно вызывать повторно и из разных горутин
func (a *App) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = a.shutdowns[:0]
}
