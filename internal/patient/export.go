package patient

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const rosterSheet = "Patients"

var rosterHeader = []string{
	"Customer ID", "Username", "Email", "First Name", "Last Name", "Phone",
	"Status", "Date of Birth", "Gender", "City", "Country", "Created At",
}

var rosterWidths = []float64{12, 20, 30, 18, 18, 16, 10, 14, 10, 18, 18, 20}

// WriteRoster renders patients as an xlsx workbook.
func WriteRoster(patients []*Patient) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(rosterSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for i, width := range rosterWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(rosterSheet, col, col, width); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	if err := f.SetSheetRow(rosterSheet, "A1", &rosterHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(rosterHeader), 1)
	if err := f.SetCellStyle(rosterSheet, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	for i, p := range patients {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			p.CustomerID, p.Username, p.Email, p.FirstName, p.LastName, deref(p.Phone),
			p.Status, deref(p.DateOfBirth), deref(p.Gender), deref(p.City), deref(p.Country),
			p.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := f.SetSheetRow(rosterSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
