// Package daterange реализует календарную арифметику периодов подписки.
//
// Все функции тотальные: любой некорректный вход деградирует до пустой
// строки или false, никогда не возвращая ошибку. Пустая строка служит
// каноническим признаком "период еще не заполнен" для вызывающего кода.
package daterange

import (
	"regexp"
	"time"
)

// Layout формат дат периода подписки
const Layout = "2006-01-02"

var dateFormatRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// CalculateEndDate возвращает дату окончания периода: стартовая дата,
// сдвинутая на months календарных месяцев, минус один день.
// Переполнение месяца нормализуется вперед по григорианскому календарю:
// 2024-01-31 + 1 месяц - 1 день = 2024-03-01.
// Возвращает пустую строку для пустой или нераспознаваемой стартовой
// даты и для months < 1. Диапазон 1..12 обеспечивается вызывающей
// стороной, сама функция значение не ограничивает.
func CalculateEndDate(start string, months int) string {
	if start == "" || months < 1 {
		return ""
	}

	t, err := time.Parse(Layout, start)
	if err != nil {
		return ""
	}

	end := t.AddDate(0, months, 0).AddDate(0, 0, -1)
	return end.Format(Layout)
}

// FormatDate приводит время к формату YYYY-MM-DD.
// Для нулевого значения возвращает пустую строку.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(Layout)
}

// Today возвращает сегодняшнюю дату в формате YYYY-MM-DD.
// Используется как минимально допустимая стартовая дата.
func Today() string {
	return FormatDate(time.Now())
}

// IsValidFormat проверяет строгое соответствие формату YYYY-MM-DD
// и разбираемость даты.
func IsValidFormat(s string) bool {
	if !dateFormatRe.MatchString(s) {
		return false
	}
	_, err := time.Parse(Layout, s)
	return err == nil
}

// IsTodayOrLater проверяет, что дата не раньше сегодняшней.
// Сравнивается только календарная часть, время усекается до полуночи.
func IsTodayOrLater(s string) bool {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return false
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return !t.Before(today)
}
