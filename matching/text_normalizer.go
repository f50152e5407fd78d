package matching

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// diacriticsRemover убирает диакритические знаки через Unicode-декомпозицию:
// строка раскладывается в NFD, комбинирующие знаки (категория Mn) удаляются,
// результат собирается обратно в NFC. Так "García" и "Garcia" сравниваются как равные.
var diacriticsRemover = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeText приводит произвольный текст (названия, ФИО) к канонической форме
// для сравнения: нижний регистр, удаление диакритики, удаление всех символов,
// кроме букв, цифр, подчеркивания и пробелов, схлопывание пробелов.
// Функция тотальная: для любой строки (включая пустую) возвращает результат без паники.
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToLower(strings.TrimSpace(s))

	// Удаляем диакритические знаки
	if stripped, _, err := transform.String(diacriticsRemover, s); err == nil {
		s = stripped
	}

	// Оставляем только словарные символы и пробелы
	var builder strings.Builder
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			builder.WriteRune(r)
		}
	}

	// Схлопываем последовательности пробельных символов в один пробел
	return strings.Join(strings.Fields(builder.String()), " ")
}

// NormalizeTaxID нормализует налоговый идентификатор (ИНН, VAT и т.п.):
// убирает пробелы и дефисы, приводит к верхнему регистру.
// Разделители и регистр в таких номерах вводят кто как привык.
func NormalizeTaxID(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	return strings.ToUpper(s)
}

// NormalizeEmail нормализует email: нижний регистр и обрезка пробелов.
// Валидация формата адреса сюда не входит.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizePhone оставляет от телефона только последовательность цифр
func NormalizePhone(s string) string {
	var builder strings.Builder
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsDigit(r) {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}
