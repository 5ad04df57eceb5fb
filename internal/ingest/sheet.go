package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Validator inspects upload content and returns ordered, human readable problems.
// An empty result means the file is valid.
type Validator interface {
	Validate(filename string, content []byte) ([]string, error)
}

// Required ledger columns, matched case-insensitively.
const (
	ColumnAccountCode = "Account Code"
	ColumnAccountName = "Account Name"
	ColumnAmount      = "Amount"
)

const formulaRefError = "#REF!"

var accountCodePattern = regexp.MustCompile(`^[0-9]{4}$`)

// Supported reports whether the file extension can be parsed.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls", ".csv":
		return true
	}
	return false
}

// SheetValidator checks market budget workbooks.
type SheetValidator struct{}

// grid is one worksheet as rows of cell text.
type grid [][]string

// Validate parses the file by extension and checks its ledger structure.
func (SheetValidator) Validate(filename string, content []byte) ([]string, error) {
	sheets, err := readSheets(filename, content)
	if err != nil {
		return nil, err
	}
	if len(sheets) == 0 {
		return []string{"File contains no data"}, nil
	}
	problems := checkLedger(sheets[0])
	for i, sheet := range sheets {
		if hasRefError(sheet) {
			problems = append(problems, fmt.Sprintf("Sheet %d: Formula Reference Error", i+1))
		}
	}
	return problems, nil
}

func readSheets(filename string, content []byte) ([]grid, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return readXLSX(content)
	case ".xls":
		return readXLS(content)
	case ".csv":
		return readCSV(content)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filename)
	}
}

func readXLSX(content []byte) ([]grid, error) {
	book, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("ingest: open xlsx: %w", err)
	}
	defer book.Close()
	var sheets []grid
	for _, name := range book.GetSheetList() {
		rows, err := book.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("ingest: read sheet %q: %w", name, err)
		}
		sheets = append(sheets, grid(rows))
	}
	return sheets, nil
}

func readXLS(content []byte) ([]grid, error) {
	book, err := xls.OpenReader(bytes.NewReader(content), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("ingest: open xls: %w", err)
	}
	var sheets []grid
	for i := 0; i < book.NumSheets(); i++ {
		sheet := book.GetSheet(i)
		if sheet == nil {
			continue
		}
		var rows grid
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheet.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, 0, row.LastCol())
			for c := 0; c < row.LastCol(); c++ {
				cells = append(cells, row.Col(c))
			}
			rows = append(rows, cells)
		}
		sheets = append(sheets, rows)
	}
	return sheets, nil
}

func readCSV(content []byte) ([]grid, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	var rows grid
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ingest: read csv: %w", err)
		}
		rows = append(rows, record)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return []grid{rows}, nil
}

func checkLedger(sheet grid) []string {
	headerIdx := -1
	for i, row := range sheet {
		if !blank(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return []string{"File contains no data"}
	}
	columns := map[string]int{}
	for i, cell := range sheet[headerIdx] {
		columns[strings.ToLower(strings.TrimSpace(cell))] = i
	}
	var problems []string
	required := []string{ColumnAccountCode, ColumnAccountName, ColumnAmount}
	for _, name := range required {
		if _, ok := columns[strings.ToLower(name)]; !ok {
			problems = append(problems, fmt.Sprintf("Row %d: Missing Column %s", headerIdx+1, name))
		}
	}
	if len(problems) > 0 {
		return problems
	}
	codeCol := columns[strings.ToLower(ColumnAccountCode)]
	amountCol := columns[strings.ToLower(ColumnAmount)]
	dataRows := 0
	for i := headerIdx + 1; i < len(sheet); i++ {
		row := sheet[i]
		if blank(row) {
			continue
		}
		dataRows++
		line := i + 1
		if !accountCodePattern.MatchString(cell(row, codeCol)) {
			problems = append(problems, fmt.Sprintf("Row %d: Invalid Account Code", line))
		}
		if _, ok := parseAmount(cell(row, amountCol)); !ok {
			problems = append(problems, fmt.Sprintf("Row %d: Invalid Amount", line))
		}
	}
	if dataRows == 0 {
		problems = append(problems, "File contains no data")
	}
	return problems
}

func hasRefError(sheet grid) bool {
	for _, row := range sheet {
		for _, value := range row {
			if strings.Contains(strings.ToUpper(value), formulaRefError) {
				return true
			}
		}
	}
	return false
}

// parseAmount accepts grouped digits and accounting-style parentheses.
func parseAmount(raw string) (float64, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, false
	}
	negative := false
	if strings.HasPrefix(value, "(") && strings.HasSuffix(value, ")") {
		negative = true
		value = strings.TrimSuffix(strings.TrimPrefix(value, "("), ")")
	}
	value = strings.ReplaceAll(value, ",", "")
	amount, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		amount = -amount
	}
	return amount, true
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, value := range row {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}
