package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"crmserver/matching"
)

// CSVConfig параметры разбора CSV-выгрузки
type CSVConfig struct {
	Delimiter rune // Разделитель (по умолчанию точка с запятой — так выгружают 1С и биллинги)
}

// DefaultCSVConfig возвращает параметры разбора по умолчанию
func DefaultCSVConfig() CSVConfig {
	return CSVConfig{Delimiter: ';'}
}

// ParseContactsCSVFile парсит CSV-выгрузку контактов.
// Файлы не в UTF-8 перечитываются как windows-1251: старые выгрузки
// приходят именно в этой кодировке.
func ParseContactsCSVFile(filePath string, config CSVConfig) ([]matching.ExternalRecord, error) {
	if config.Delimiter == 0 {
		config.Delimiter = ';'
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}

	if !utf8.Valid(data) {
		decoded, _, err := transform.Bytes(charmap.Windows1251.NewDecoder(), data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode windows-1251 file: %w", err)
		}
		data = decoded
	}

	return parseContactsCSV(data, config.Delimiter)
}

func parseContactsCSV(data []byte, delimiter rune) ([]matching.ExternalRecord, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1 // Строки с разным числом полей не считаем ошибкой
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		rows = append(rows, row)
	}

	return parseContactRows(rows)
}
