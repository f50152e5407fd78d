package matching

import "testing"

// Тесты для NormalizeText
func TestNormalizeText_Basic(t *testing.T) {
	result := NormalizeText("  ООО   Ромашка  ")
	if result != "ооо ромашка" {
		t.Errorf("Expected 'ооо ромашка', got %q", result)
	}
}

func TestNormalizeText_Empty(t *testing.T) {
	if result := NormalizeText(""); result != "" {
		t.Errorf("Expected empty string, got %q", result)
	}
}

func TestNormalizeText_Diacritics(t *testing.T) {
	// "García" и "Garcia" должны нормализоваться одинаково
	a := NormalizeText("José García")
	b := NormalizeText("jose garcia")
	if a != b {
		t.Errorf("Expected equal normalized names, got %q and %q", a, b)
	}
	if a != "jose garcia" {
		t.Errorf("Expected 'jose garcia', got %q", a)
	}
}

func TestNormalizeText_CombiningMarks(t *testing.T) {
	// é в разложенной форме: e + U+0301
	result := NormalizeText("café")
	if result != "cafe" {
		t.Errorf("Expected 'cafe', got %q", result)
	}
}

func TestNormalizeText_Punctuation(t *testing.T) {
	result := NormalizeText(`ООО "Ромашка", г. Москва!`)
	if result != "ооо ромашка г москва" {
		t.Errorf("Expected punctuation stripped, got %q", result)
	}
}

func TestNormalizeText_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"  Тест   Один  ",
		"José García",
		`ООО "Ромашка-1"`,
		"ACME Corp.",
	}
	for _, s := range inputs {
		once := NormalizeText(s)
		twice := NormalizeText(once)
		if once != twice {
			t.Errorf("NormalizeText not idempotent for %q: %q != %q", s, once, twice)
		}
	}
}

// Тесты для NormalizeTaxID
func TestNormalizeTaxID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"b 12345678", "B12345678"},
		{"B-12345678", "B12345678"},
		{" 7707-083893 ", "7707083893"},
		{"", ""},
	}

	for _, tt := range tests {
		if result := NormalizeTaxID(tt.input); result != tt.expected {
			t.Errorf("NormalizeTaxID(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
}

func TestNormalizeTaxID_Idempotent(t *testing.T) {
	for _, s := range []string{"b 12-34", "7707083893", ""} {
		once := NormalizeTaxID(s)
		if twice := NormalizeTaxID(once); once != twice {
			t.Errorf("NormalizeTaxID not idempotent for %q", s)
		}
	}
}

// Тесты для NormalizeEmail
func TestNormalizeEmail(t *testing.T) {
	if result := NormalizeEmail("  Info@Example.COM "); result != "info@example.com" {
		t.Errorf("Expected 'info@example.com', got %q", result)
	}
	if result := NormalizeEmail(""); result != "" {
		t.Errorf("Expected empty string, got %q", result)
	}
	// Только нормализация, без валидации формата
	if result := NormalizeEmail("НЕ ПОЧТА"); result != "не почта" {
		t.Errorf("Expected 'не почта', got %q", result)
	}
}

// Тесты для NormalizePhone
func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"+7 (495) 123-45-67", "74951234567"},
		{"8 800 555 35 35", "88005553535"},
		{"нет телефона", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if result := NormalizePhone(tt.input); result != tt.expected {
			t.Errorf("NormalizePhone(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
}

func TestNormalizePhone_Idempotent(t *testing.T) {
	for _, s := range []string{"+7 (495) 123-45-67", "", "12345"} {
		once := NormalizePhone(s)
		if twice := NormalizePhone(once); once != twice {
			t.Errorf("NormalizePhone not idempotent for %q", s)
		}
	}
}
