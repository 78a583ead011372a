package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var ErrUnsupportedFileType = errors.New("unsupported file type; upload a .csv or .xlsx statement")

// Column names recognised in statement headers
const (
	ColDate          = "date"
	ColDescription   = "description"
	ColAmount        = "amount"
	ColType          = "type"
	ColCategory      = "category"
	ColCurrency      = "currency"
	ColAreaID        = "area_id"
	ColDepartmentID  = "department_id"
	ColDestinationID = "destination_bank_account_id"
)

var requiredColumns = []string{ColDate, ColDescription, ColAmount, ColType}

var headerAliases = map[string]string{
	"date":                        ColDate,
	"transaction_date":            ColDate,
	"fecha":                       ColDate,
	"description":                 ColDescription,
	"concept":                     ColDescription,
	"concepto":                    ColDescription,
	"amount":                      ColAmount,
	"importe":                     ColAmount,
	"type":                        ColType,
	"tipo":                        ColType,
	"category":                    ColCategory,
	"categoria":                   ColCategory,
	"currency":                    ColCurrency,
	"moneda":                      ColCurrency,
	"area_id":                     ColAreaID,
	"area":                        ColAreaID,
	"department_id":               ColDepartmentID,
	"department":                  ColDepartmentID,
	"destination_bank_account_id": ColDestinationID,
	"destination_account":         ColDestinationID,
}

// RawRow is one data row keyed by canonical column name
type RawRow struct {
	Line   int
	Fields map[string]string
}

// ErrMissingColumns indicates a header without every required column
type ErrMissingColumns struct {
	Columns []string
}

func (e ErrMissingColumns) Error() string {
	return "missing required columns: " + strings.Join(e.Columns, ", ")
}

// ParseFile reads a CSV or XLSX statement. An empty file yields no rows.
func ParseFile(fileName string, data []byte) ([]RawRow, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext != ".csv" && ext != ".xlsx" {
		return nil, ErrUnsupportedFileType
	}
	if len(data) == 0 {
		return nil, nil
	}

	var records [][]string
	var err error
	if ext == ".xlsx" {
		records, err = readXLSX(data)
	} else {
		records, err = readCSV(data)
	}
	if err != nil {
		return nil, err
	}

	return toRawRows(records)
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = detectDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// detectDelimiter picks the most frequent candidate in the header line
func detectDelimiter(data []byte) rune {
	header := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		header = data[:i]
	}
	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		if n := bytes.Count(header, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func toRawRows(records [][]string) ([]RawRow, error) {
	headerIdx := -1
	for i, rec := range records {
		if !blank(rec) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return []RawRow{}, nil
	}

	columns := make([]string, len(records[headerIdx]))
	seen := make(map[string]bool)
	for i, h := range records[headerIdx] {
		key := normalizeHeader(h)
		if canonical, ok := headerAliases[key]; ok && !seen[canonical] {
			columns[i] = canonical
			seen[canonical] = true
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if !seen[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, ErrMissingColumns{Columns: missing}
	}

	rows := make([]RawRow, 0, len(records)-headerIdx-1)
	for i := headerIdx + 1; i < len(records); i++ {
		rec := records[i]
		if blank(rec) {
			continue
		}
		fields := make(map[string]string, len(columns))
		for j, col := range columns {
			if col == "" || j >= len(rec) {
				continue
			}
			fields[col] = strings.TrimSpace(rec[j])
		}
		rows = append(rows, RawRow{Line: i + 1, Fields: fields})
	}
	return rows, nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer(" ", "_", "-", "_", "í", "i", "é", "e").Replace(h)
	return h
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
