package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const productsSheet = "Products"

// ReadXLSX loads the "Products" sheet, or the first sheet, as rows
func ReadXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSpreadsheet, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no sheets found", ErrInvalidSpreadsheet)
	}

	sheetName := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, productsSheet) {
			sheetName = name
			break
		}
	}

	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %s: %w", ErrInvalidSpreadsheet, sheetName, err)
	}

	rows := make([]Row, 0, len(excelRows))
	width := 0
	for i, cells := range excelRows {
		if i == 0 {
			width = len(cells)
		}
		row := Row(cells)
		if isBlank(row) {
			continue
		}
		// excelize drops trailing empty cells
		if len(row) < width {
			row = fitRow(row, width)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteXLSXTemplate writes an empty workbook with styled headers and an instructions sheet
func WriteXLSXTemplate(w io.Writer, mapping ColumnMapping) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", productsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, col := range mapping.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		text := col.Header
		style := headerStyle
		if col.Required {
			text += " *"
			style = requiredStyle
		}
		f.SetCellValue(productsSheet, cell, text)
		f.SetCellStyle(productsSheet, cell, cell, style)

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(productsSheet, colName, colName, 22)
	}

	const instructions = "Instructions"
	f.NewSheet(instructions)
	f.SetCellValue(instructions, "A1", "Catalog Import Instructions")
	f.SetCellValue(instructions, "A3", "Rows sharing a Handle form one product. Product fields are read from the first row of each handle.")
	f.SetCellValue(instructions, "A4", "Every row adds one variant. Rows with only Handle and Image Src add an extra image.")
	f.SetCellValue(instructions, "A5", "Leave Category empty to detect it from title, tags and description.")
	f.SetCellValue(instructions, "A6", "Re-importing the same file updates products in place; SKUs that clash get a numeric suffix.")

	f.SetCellValue(instructions, "A8", "Column")
	f.SetCellValue(instructions, "B8", "Description")
	f.SetCellValue(instructions, "C8", "Required")
	f.SetCellValue(instructions, "D8", "Type")
	f.SetCellValue(instructions, "E8", "Example")
	for i, col := range mapping.Columns {
		row := i + 9
		required := "Optional"
		if col.Required {
			required = "Required"
		}
		f.SetCellValue(instructions, fmt.Sprintf("A%d", row), col.Header)
		f.SetCellValue(instructions, fmt.Sprintf("B%d", row), col.Description)
		f.SetCellValue(instructions, fmt.Sprintf("C%d", row), required)
		f.SetCellValue(instructions, fmt.Sprintf("D%d", row), col.Type)
		f.SetCellValue(instructions, fmt.Sprintf("E%d", row), col.Example)
	}
	f.SetColWidth(instructions, "A", "A", 28)
	f.SetColWidth(instructions, "B", "B", 60)
	f.SetColWidth(instructions, "C", "D", 12)
	f.SetColWidth(instructions, "E", "E", 36)

	sheetIdx, _ := f.GetSheetIndex(productsSheet)
	f.SetActiveSheet(sheetIdx)

	return f.Write(w)
}
