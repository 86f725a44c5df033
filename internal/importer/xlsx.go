package importer

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"senser/internal/domain"

	"github.com/xuri/excelize/v2"
)

// SheetName sheet the template writes and the parser prefers
const SheetName = "Sensors"

// Header import template columns, in order
var Header = []string{
	"Name",
	"Latitude",
	"Longitude",
	"Type",
	"MAC Address",
	"Manufacturer",
	"Model",
	"Serial Number",
	"Firmware Version",
	"Description",
}

var columnWidths = []float64{25, 12, 12, 15, 20, 20, 20, 20, 18, 40}

// Record one parsed sheet row; Row is the 1-based sheet row number
type Record struct {
	Row    int
	Sensor domain.SensorCreate
}

// RowError a row that could not be turned into a registration
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// GenerateTemplate xlsx with the styled header row frozen and no data rows
func GenerateTemplate() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, title := range Header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(SheetName, cell, title); err != nil {
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(SheetName, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(SheetName, col, col, columnWidths[i]); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write template: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseSensors reads registrations from the Sensors sheet (or the first sheet).
// Columns are matched by header title, so their order does not matter. Blank
// rows are skipped; rows that fail to parse or validate come back as RowErrors.
func ParseSensors(r io.Reader) ([]Record, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := SheetName
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("sheet %s has no header row", sheet)
	}

	cols := make(map[string]int, len(rows[0]))
	for i, title := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(title))] = i
	}
	if _, ok := cols["name"]; !ok {
		return nil, nil, fmt.Errorf("sheet %s is missing the Name column", sheet)
	}

	var (
		records []Record
		rowErrs []RowError
	)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}
		cell := func(title string) string {
			idx, ok := cols[strings.ToLower(title)]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		sensor, err := parseRow(cell)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: i + 1, Err: err})
			continue
		}
		records = append(records, Record{Row: i + 1, Sensor: sensor})
	}
	return records, rowErrs, nil
}

func parseRow(cell func(title string) string) (domain.SensorCreate, error) {
	sensor := domain.SensorCreate{
		Name:            cell("Name"),
		Type:            cell("Type"),
		MacAddress:      cell("MAC Address"),
		Manufacturer:    cell("Manufacturer"),
		Model:           cell("Model"),
		SerieNumber:     cell("Serial Number"),
		FirmwareVersion: cell("Firmware Version"),
		Description:     cell("Description"),
	}

	var err error
	if sensor.Latitude, err = parseCoordinate("Latitude", cell("Latitude")); err != nil {
		return sensor, err
	}
	if sensor.Longitude, err = parseCoordinate("Longitude", cell("Longitude")); err != nil {
		return sensor, err
	}
	if err := sensor.Validate(); err != nil {
		return sensor, err
	}
	return sensor, nil
}

func parseCoordinate(title, raw string) (float64, error) {
	if raw == "" {
		return 0, fmt.Errorf("%s is required", strings.ToLower(title))
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", strings.ToLower(title), raw)
	}
	return v, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
