package cli

import (
	"errors"
	"fmt"
	"taskManager/internal/logger"
	"taskManager/internal/service"

	"go.uber.org/zap"
)

// ввод закончился посреди диалога
var errInputClosed = errors.New("ввод закрыт")

func (a *TaskApp) handleError(err error) {
	var businessErr *service.BusinessError
	if errors.As(err, &businessErr) {
		logger.Warn("CLI: Бизнес-ошибка",
			zap.String("error_code", businessErr.Code),
			zap.Any("details", businessErr.Details))

		fmt.Fprintf(a.out, "Ошибка: %s\n", businessErr.Message)
		return
	}

	logger.Error("CLI: Ошибка сервиса", err)
	fmt.Fprintf(a.out, "Ошибка: %s\n", err.Error())
}
