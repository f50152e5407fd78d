package importer

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"crmserver/matching"
)

// contactColumnIndices индексы колонок файла с контактами
type contactColumnIndices struct {
	externalID int
	name       int
	taxID      int
	email      int
	phone      int
}

// ParseContactsExcelFile парсит Excel-выгрузку контактов из внешней системы.
// Колонки определяются по ключевым словам в заголовке, порядок не важен.
func ParseContactsExcelFile(filePath string) ([]matching.ExternalRecord, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	return parseContactRows(rows)
}

// parseContactRows общая часть разбора для Excel и CSV
func parseContactRows(rows [][]string) ([]matching.ExternalRecord, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("file is too short, expected at least header row and one data row")
	}

	colIndices := findContactColumns(rows[0])
	if colIndices.name == -1 {
		return nil, fmt.Errorf("required column 'name' not found in file headers")
	}

	var records []matching.ExternalRecord
	for rowIdx := 1; rowIdx < len(rows); rowIdx++ {
		row := rows[rowIdx]
		if isEmptyContactRow(row) {
			continue
		}

		record := matching.ExternalRecord{
			ExternalID: cellValue(row, colIndices.externalID),
			Name:       cellValue(row, colIndices.name),
			TaxID:      cellValue(row, colIndices.taxID),
			Email:      cellValue(row, colIndices.email),
			Phone:      cellValue(row, colIndices.phone),
		}

		// Строки без названия пропускаем: сопоставлять такой записи нечего
		if record.Name == "" {
			continue
		}

		records = append(records, record)
	}

	return records, nil
}

// findContactColumns находит индексы колонок по ключевым словам заголовка
func findContactColumns(headers []string) contactColumnIndices {
	indices := contactColumnIndices{externalID: -1, name: -1, taxID: -1, email: -1, phone: -1}

	for i, header := range headers {
		h := strings.TrimSpace(strings.ToLower(header))
		switch {
		case indices.externalID == -1 && (strings.Contains(h, "внешн") || strings.Contains(h, "external")):
			indices.externalID = i
		case indices.taxID == -1 && (strings.Contains(h, "инн") || strings.Contains(h, "налог") ||
			strings.Contains(h, "tax") || strings.Contains(h, "vat")):
			indices.taxID = i
		case indices.email == -1 && (strings.Contains(h, "email") || strings.Contains(h, "почта") ||
			strings.Contains(h, "e-mail")):
			indices.email = i
		case indices.phone == -1 && (strings.Contains(h, "телефон") || strings.Contains(h, "phone")):
			indices.phone = i
		case indices.name == -1 && (strings.Contains(h, "наименование") || strings.Contains(h, "название") ||
			strings.Contains(h, "имя") || strings.Contains(h, "name")):
			indices.name = i
		}
	}

	return indices
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// isEmptyContactRow проверяет, что строка не содержит данных
func isEmptyContactRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
