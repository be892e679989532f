// Package day содержит функции для работы с календарными днями в UTC:
// усечение момента времени до начала суток, построение окон по дням
// и нормализацию сохранённых дат.
package day

import "time"

// Start возвращает начало UTC-суток, в которые попадает t.
func Start(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Bounds возвращает полуинтервал [start, end) UTC-суток момента t.
func Bounds(t time.Time) (time.Time, time.Time) {
	start := Start(t)
	return start, start.AddDate(0, 0, 1)
}

// Trailing возвращает n последних суток, заканчивая сутками now,
// в порядке от старых к новым.
func Trailing(now time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	today := Start(now)
	days := make([]time.Time, 0, n)
	for i := n - 1; i >= 0; i-- {
		days = append(days, today.AddDate(0, 0, -i))
	}
	return days
}

// Label возвращает сокращённое название дня недели ("Mon", "Tue", ...).
func Label(t time.Time) string {
	return t.UTC().Format("Mon")
}

// UTC приводит момент к UTC. Значение без зоны (time.Local у драйвера,
// которому не сообщили зону) трактуется как записанное в UTC.
func UTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	if t.Location() == time.Local {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	}
	return t.UTC()
}

// UTCPtr то же, что UTC, для необязательных дат.
func UTCPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := UTC(*t)
	return &u
}
