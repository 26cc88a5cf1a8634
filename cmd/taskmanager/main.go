package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"taskManager/internal/app"
	"taskManager/internal/config"
	"taskManager/internal/logger"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/pflag"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := pflag.String("config", config.DefaultPath, "путь к YAML-конфигу")
	repository := pflag.String("repository", "", "тип хранилища: none, inmemory, postgres, mysql, sqlite")
	databaseURL := pflag.String("database-url", "", "строка подключения или путь к файлу sqlite")
	dev := pflag.Bool("dev", false, "логи в режиме разработки")
	pflag.Parse()

	cfg, err := loadConfig(*configPath, pflag.CommandLine.Changed("config"))
	if err != nil {
		return err
	}

	// флаги важнее файла
	if *repository != "" {
		cfg.Repository.Type = *repository
	}
	if *databaseURL != "" {
		cfg.Database.URL = *databaseURL
	}
	if pflag.CommandLine.Changed("dev") {
		cfg.Logging.Development = *dev
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.New(cfg).Init(ctx)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		runErr = application.Run(ctx, os.Stdin, os.Stdout)
	}()

	// по SIGINT/SIGTERM останавливаем меню и закрываем хранилище
	wait := gfshutdown.GracefulShutdown(context.Background(), shutdownTimeout, map[string]gfshutdown.Operation{
		"task-manager": stopOperation(cancel, done, application.Shutdown),
	})

	logger.Info("Менеджер задач запущен")

	select {
	case <-done:
		return runErr
	case exitCode := <-wait:
		if exitCode != 0 {
			return fmt.Errorf("завершение по сигналу с кодом %d", exitCode)
		}
		return nil
	}
}

// stopOperation отменяет меню, ждёт его и выполняет shutdown приложения
func stopOperation(cancel context.CancelFunc, done <-chan struct{}, shutdown func()) gfshutdown.Operation {
	return func(ctx context.Context) error {
		logger.Info("Получен сигнал, завершаем работу")
		cancel()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		shutdown()
		return nil
	}
}

// без явного --config отсутствующий config.yml не ошибка
func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if !explicit && errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return nil, err
}
