package cli

import (
	"fmt"
	"io"
	"taskManager/internal/models/task"
	"text/tabwriter"
)

func renderTasks(w io.Writer, tasks []*task.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "Задачи не найдены.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tНазвание\tОписание\tСрок\tПриоритет\tСтатус")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Title, t.Description, t.DueDate, t.Priority, t.Status)
	}
	tw.Flush()
}

func renderTask(w io.Writer, t *task.Task) {
	fmt.Fprintf(w, "ID:        %s\n", t.ID)
	fmt.Fprintf(w, "Название:  %s\n", t.Title)
	fmt.Fprintf(w, "Описание:  %s\n", t.Description)
	fmt.Fprintf(w, "Срок:      %s\n", t.DueDate)
	fmt.Fprintf(w, "Приоритет: %s\n", t.Priority)
	fmt.Fprintf(w, "Статус:    %s\n", t.Status)
}
