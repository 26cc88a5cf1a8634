package task

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// Date - календарная дата без времени
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func Today(now time.Time) Date {
	return DateOf(now)
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("неверный формат даты %q, ожидается ГГГГ-ММ-ДД: %w", s, err)
	}
	return DateOf(t), nil
}

// Time возвращает полночь по UTC, в таком виде дата уходит в колонки DATE
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

func (d Date) Equal(other Date) bool {
	return d == other
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(DateLayout)
}
