// Package cli - текстовое меню поверх менеджера задач.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	"taskManager/internal/service"
	"time"

	"go.uber.org/zap"
)

type TaskApp struct {
	service TaskService
	in      *bufio.Scanner
	out     io.Writer
	now     func() time.Time
}

func NewTaskApp(taskService TaskService, in io.Reader, out io.Writer) *TaskApp {
	return &TaskApp{
		service: taskService,
		in:      bufio.NewScanner(in),
		out:     out,
		now:     time.Now,
	}
}

const menu = `
Менеджер задач
1. Добавить задачу
2. Показать задачи
3. Изменить задачу
4. Отметить выполненной
5. Удалить задачу
q. Выход
`

// Run крутит меню до выхода, конца ввода или отмены ctx
func (a *TaskApp) Run(ctx context.Context) error {
	logger.Info("CLI: Запуск меню")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(a.out, menu)
		choice, err := a.prompt("Выберите действие: ")
		if err != nil {
			return a.finish(err)
		}

		switch strings.ToLower(choice) {
		case "1":
			err = a.addTask(ctx)
		case "2":
			err = a.listTasks()
		case "3":
			err = a.updateTask(ctx)
		case "4":
			err = a.markCompleted(ctx)
		case "5":
			err = a.removeTask(ctx)
		case "q", "quit", "exit":
			fmt.Fprintln(a.out, "До свидания!")
			logger.Info("CLI: Выход по команде пользователя")
			return nil
		default:
			fmt.Fprintln(a.out, "Неверный выбор, попробуйте ещё раз.")
		}

		if err != nil {
			return a.finish(err)
		}
	}
}

func (a *TaskApp) finish(err error) error {
	// обёрнутый errInputClosed - это сбой чтения, а не конец ввода
	if err == errInputClosed {
		logger.Info("CLI: Ввод закончился, выходим")
		return nil
	}
	logger.Error("CLI: Ошибка чтения ввода", err)
	return err
}

func (a *TaskApp) addTask(ctx context.Context) error {
	title, err := a.prompt("Название: ")
	if err != nil {
		return err
	}
	description, err := a.prompt("Описание: ")
	if err != nil {
		return err
	}
	dueDate, err := a.promptDate("Срок (" + task.DateLayout + "): ")
	if err != nil {
		if errors.Is(err, errInputClosed) {
			return err
		}
		fmt.Fprintf(a.out, "Неверный формат даты, ожидается %s.\n", task.DateLayout)
		return nil
	}
	priority, err := a.prompt("Приоритет (Low/Medium/High, по умолчанию Medium): ")
	if err != nil {
		return err
	}
	status, err := a.prompt("Статус (Pending/In Progress/Completed, по умолчанию Pending): ")
	if err != nil {
		return err
	}

	created, err := a.service.CreateTask(ctx, service.CreateTaskRequest{
		Title:       title,
		Description: description,
		DueDate:     dueDate,
		Priority:    priority,
		Status:      status,
	})
	if err != nil {
		a.handleError(err)
		return nil
	}

	fmt.Fprintf(a.out, "Задача добавлена, ID: %s\n", created.ID)
	return nil
}

// номера пунктов подменю фильтра, имя поля тоже принимается
var filterChoices = map[string]service.FilterField{
	"1": service.FilterNone,
	"2": service.FilterPriority,
	"3": service.FilterStatus,
	"4": service.FilterDueDate,
}

func (a *TaskApp) listTasks() error {
	fmt.Fprintln(a.out, "Фильтр: 1. Без фильтра  2. Приоритет  3. Статус  4. Срок")
	choice, err := a.prompt("Выберите фильтр: ")
	if err != nil {
		return err
	}

	field, ok := filterChoices[choice]
	if !ok {
		field = service.ParseFilterField(choice)
	}

	filter := service.NoFilter()
	switch {
	case choice == "" || choice == "1":
	case field == service.FilterPriority:
		value, err := a.prompt("Приоритет: ")
		if err != nil {
			return err
		}
		filter = service.ByPriority(value)
	case field == service.FilterStatus:
		value, err := a.prompt("Статус: ")
		if err != nil {
			return err
		}
		filter = service.ByStatus(value)
	case field == service.FilterDueDate:
		dueDate, err := a.promptDate("Срок (" + task.DateLayout + "): ")
		switch {
		case errors.Is(err, errInputClosed):
			return err
		case err != nil || dueDate == nil:
			fmt.Fprintln(a.out, "Неверная дата, показываю все задачи.")
		default:
			filter = service.ByDueDate(*dueDate)
		}
	default:
		fmt.Fprintln(a.out, "Неизвестный фильтр, показываю все задачи.")
	}

	renderTasks(a.out, a.service.ListTasks(filter))
	return nil
}

func (a *TaskApp) updateTask(ctx context.Context) error {
	id, err := a.prompt("ID задачи: ")
	if err != nil {
		return err
	}

	current, err := a.service.GetTask(id)
	if err != nil {
		a.handleError(err)
		return nil
	}

	fmt.Fprintln(a.out, "Текущие значения (пустой ввод оставляет поле без изменений):")
	renderTask(a.out, current)

	title, err := a.prompt("Новое название: ")
	if err != nil {
		return err
	}
	description, err := a.prompt("Новое описание: ")
	if err != nil {
		return err
	}

	var dueOption task.PatchOption
	dueDate, err := a.promptDate("Новый срок (" + task.DateLayout + "): ")
	switch {
	case errors.Is(err, errInputClosed):
		return err
	case err != nil:
		fmt.Fprintln(a.out, "Неверный формат даты, срок не изменён.")
	case dueDate != nil && dueDate.Before(task.Today(a.now())):
		fmt.Fprintln(a.out, "Срок не может быть в прошлом, срок не изменён.")
	case dueDate != nil:
		dueOption = task.WithDueDate(*dueDate)
	}

	priority, err := a.prompt("Новый приоритет: ")
	if err != nil {
		return err
	}
	status, err := a.prompt("Новый статус: ")
	if err != nil {
		return err
	}

	patch := task.NewPatch(
		task.WithTitle(title),
		task.WithDescription(description),
		dueOption,
		task.WithPriority(task.Priority(priority)),
		task.WithStatus(task.Status(status)),
	)
	if patch.IsEmpty() {
		fmt.Fprintln(a.out, "Изменений нет.")
		return nil
	}

	updated, err := a.service.UpdateTask(ctx, id, patch)
	if err != nil {
		a.handleError(err)
		return nil
	}

	logger.Info("CLI: Задача изменена", zap.String("task_id", id), zap.Strings("fields", patch.FieldNames()))
	fmt.Fprintln(a.out, "Задача обновлена:")
	renderTask(a.out, updated)
	return nil
}

func (a *TaskApp) markCompleted(ctx context.Context) error {
	id, err := a.prompt("ID задачи: ")
	if err != nil {
		return err
	}

	if _, err := a.service.MarkCompleted(ctx, id); err != nil {
		a.handleError(err)
		return nil
	}

	fmt.Fprintf(a.out, "Задача %s выполнена.\n", id)
	return nil
}

func (a *TaskApp) removeTask(ctx context.Context) error {
	id, err := a.prompt("ID задачи: ")
	if err != nil {
		return err
	}

	if err := a.service.RemoveTask(ctx, id); err != nil {
		a.handleError(err)
		return nil
	}

	fmt.Fprintf(a.out, "Задача %s удалена.\n", id)
	return nil
}
