package service

import (
	"strings"
	"taskManager/internal/models/task"
)

type FilterField string

const (
	FilterNone     FilterField = ""
	FilterPriority FilterField = "priority"
	FilterStatus   FilterField = "status"
	FilterDueDate  FilterField = "due_date"
)

// Filter для ListTasks. Неизвестное поле работает как отсутствие фильтра.
type Filter struct {
	By      FilterField
	Value   string
	DueDate task.Date
}

func NoFilter() Filter {
	return Filter{}
}

func ByPriority(priority string) Filter {
	return Filter{By: FilterPriority, Value: priority}
}

func ByStatus(status string) Filter {
	return Filter{By: FilterStatus, Value: status}
}

func ByDueDate(dueDate task.Date) Filter {
	return Filter{By: FilterDueDate, DueDate: dueDate}
}

func ParseFilterField(s string) FilterField {
	switch FilterField(strings.ToLower(strings.TrimSpace(s))) {
	case FilterPriority:
		return FilterPriority
	case FilterStatus:
		return FilterStatus
	case FilterDueDate:
		return FilterDueDate
	default:
		return FilterNone
	}
}

func (f Filter) match(t *task.Task) bool {
	switch f.By {
	case FilterPriority:
		return t.Priority == task.NormalizePriority(f.Value)
	case FilterStatus:
		return t.Status == task.NormalizeStatus(f.Value)
	case FilterDueDate:
		return t.DueDate.Equal(f.DueDate)
	default:
		return true
	}
}
