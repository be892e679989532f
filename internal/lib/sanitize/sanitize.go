// Package sanitize очищает свободный текст перед отдачей клиенту.
package sanitize

import "strings"

// Максимальные длины полей в представлениях.
const (
	NameMaxLen        = 100
	DescriptionMaxLen = 500
	ContactMaxLen     = 50
)

var stripper = strings.NewReplacer("<", "", ">", "", `"`, "", "'", "")

// String обрезает пробелы по краям, удаляет угловые скобки и кавычки
// и ограничивает результат maxLen символами (0: без ограничения).
func String(s string, maxLen int) string {
	out := stripper.Replace(strings.TrimSpace(s))
	if maxLen > 0 {
		if r := []rune(out); len(r) > maxLen {
			out = string(r[:maxLen])
		}
	}
	return out
}

// WithDefault работает как String, но пустой после очистки результат заменяет на fallback.
func WithDefault(s, fallback string, maxLen int) string {
	if out := String(s, maxLen); out != "" {
		return out
	}
	return String(fallback, maxLen)
}
