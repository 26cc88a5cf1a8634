package task

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Task struct {
	ID          string    `json:"id" db:"task_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	DueDate     Date      `json:"due_date" db:"due_date"`
	Priority    Priority  `json:"priority" db:"priority"`
	Status      Status    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"creation_date"`
}

type Priority string
type Status string

const PriorityLow Priority = "Low"
const PriorityMedium Priority = "Medium"
const PriorityHigh Priority = "High"

const StatusPending Status = "Pending"
const StatusInProgress Status = "In Progress"
const StatusCompleted Status = "Completed"

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// MarkDone переводит задачу в статус Completed
func (t *Task) MarkDone() {
	t.Status = StatusCompleted
}

func (t *Task) Clone() *Task {
	c := *t
	return &c
}

// NormalizePriority приводит ввод к виду "High", "Medium", "Low"
func NormalizePriority(s string) Priority {
	return Priority(titleCase(s))
}

// NormalizeStatus: "in progress" -> "In Progress"
func NormalizeStatus(s string) Status {
	return Status(titleCase(s))
}

func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if p == v {
			return true
		}
	}
	return false
}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Caser хранит состояние, поэтому создаётся на каждый вызов
func titleCase(s string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(s))
}
