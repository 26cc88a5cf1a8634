package cli

import (
	"fmt"
	"strings"
	"taskManager/internal/models/task"
)

// prompt печатает приглашение и читает одну строку без пробелов по краям
func (a *TaskApp) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	if !a.in.Scan() {
		if err := a.in.Err(); err != nil {
			return "", fmt.Errorf("%w: %w", errInputClosed, err)
		}
		return "", errInputClosed
	}
	return strings.TrimSpace(a.in.Text()), nil
}

// promptDate: пустая строка - nil без ошибки. Ошибка разбора не оборачивает errInputClosed.
func (a *TaskApp) promptDate(label string) (*task.Date, error) {
	raw, err := a.prompt(label)
	if err != nil || raw == "" {
		return nil, err
	}
	d, err := task.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
