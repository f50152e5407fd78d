package importer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"crmserver/database"
)

// ExportContactsToExcel выгружает контакты в Excel и пишет файл в w
func ExportContactsToExcel(w io.Writer, contacts []*database.StoredContact) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Contacts"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")

	// Стиль заголовков
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	headers := []string{
		"ID", "Название", "Налоговый номер", "Email", "Телефон",
		"Внешний ID", "Источник", "Создан", "Обновлен",
	}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, contact := range contacts {
		row := rowIdx + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), contact.ID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), contact.Name)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), contact.TaxID)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), contact.Email)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), contact.Phone)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), contact.ExternalID)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), contact.Source)
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), contact.CreatedAt)
		f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), contact.UpdatedAt)
	}

	// Автоширина колонок
	for i := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 18)
	}

	f.SetActiveSheet(index)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}

	return nil
}
