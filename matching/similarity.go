package matching

import "unicode/utf8"

// LevenshteinDistance вычисляет расстояние Левенштейна между двумя строками:
// минимальное число вставок, удалений и замен одного символа.
// Работает на рунах, поэтому корректно для кириллицы и других не-ASCII алфавитов.
func LevenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	len1 := len(r1)
	len2 := len(r2)

	if len1 == 0 {
		return len2
	}
	if len2 == 0 {
		return len1
	}

	// Создаем матрицу
	matrix := make([][]int, len1+1)
	for i := range matrix {
		matrix[i] = make([]int, len2+1)
	}

	// Инициализация
	for i := 0; i <= len1; i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len2; j++ {
		matrix[0][j] = j
	}

	// Заполнение матрицы
	for i := 1; i <= len1; i++ {
		for j := 1; j <= len2; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}

			matrix[i][j] = min3(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len1][len2]
}

// NameSimilarity вычисляет схожесть двух названий в диапазоне [0, 1].
// Обе строки предварительно нормализуются через NormalizeText.
// 1.0 — строки идентичны после нормализации, 0.0 — ровно одна из строк пуста
// или строки максимально различны относительно длины.
// Функция симметрична и детерминирована.
func NameSimilarity(a, b string) float64 {
	na := NormalizeText(a)
	nb := NormalizeText(b)

	if na == nb {
		return 1.0
	}
	if na == "" || nb == "" {
		return 0.0
	}

	distance := LevenshteinDistance(na, nb)
	maxLen := utf8.RuneCountInString(na)
	if l := utf8.RuneCountInString(nb); l > maxLen {
		maxLen = l
	}

	return float64(maxLen-distance) / float64(maxLen)
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
