package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	enc "github.com/barangaylink/treasury/internal/encoding"
)

// Parser reads expense-log CSV exports from the old barangay portal.
// The export carried a title block above the real header, so the header
// row is located by matching column names rather than assumed at line 1.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Column names of the legacy export header.
const (
	colRef      = "Ref No."
	colDate     = "Date"
	colCategory = "Category"
	colPayee    = "Payee"
	colDesc     = "Description"
	colAmount   = "Amount"
	colMethod   = "Payment Method"
)

var requiredCols = []string{colRef, colDate, colCategory, colPayee, colAmount}

// colIndex maps column names to their index in the row.
type colIndex map[string]int

func (p *Parser) Parse(r io.Reader) ([]Row, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	cols, headerIdx := findHeader(records)
	if cols == nil {
		return nil, fmt.Errorf("no expense log header found: expected columns %s", strings.Join(requiredCols, ", "))
	}

	return parseRows(cols, records[headerIdx+1:], headerIdx+1)
}

// findHeader scans for the first row containing every required column.
func findHeader(records [][]string) (colIndex, int) {
	for rowIdx, record := range records {
		cols := make(colIndex)

		for i, cell := range record {
			name := strings.TrimSpace(cell)
			if name != "" {
				cols[name] = i
			}
		}

		if hasRequiredCols(cols) {
			return cols, rowIdx
		}
	}

	return nil, 0
}

func hasRequiredCols(cols colIndex) bool {
	for _, name := range requiredCols {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// parseRows extracts expense rows below the header. headerRowNum is the
// 0-based index of the header in the original file (for error messages).
func parseRows(cols colIndex, records [][]string, headerRowNum int) ([]Row, error) {
	var rows []Row

	for i, record := range records {
		rowNum := headerRowNum + i + 2 // 1-based, skipping header

		ref := cellValue(record, cols[colRef])
		if ref == "" {
			// Legacy exports end with blank lines and a totals row.
			continue
		}

		date, err := parseDate(cellValue(record, cols[colDate]))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		amount, err := parseAmount(cellValue(record, cols[colAmount]))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		payee := cellValue(record, cols[colPayee])
		if payee == "" {
			return nil, fmt.Errorf("row %d: missing payee", rowNum)
		}

		rows = append(rows, Row{
			ReferenceNumber: ref,
			CategoryCode:    cellValue(record, cols[colCategory]),
			Amount:          amount,
			Payee:           payee,
			Description:     cellValue(record, cols[colDesc]),
			ExpenseDate:     date,
			PaymentMethod:   cellValue(record, cols[colMethod]),
		})
	}

	return rows, nil
}

var dateLayouts = []string{"2006-01-02", "01/02/2006", "Jan 2, 2006"}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// parseAmount handles the peso formatting of the old exports:
// "₱12,345.67", "PHP 500.00" or plain "500".
func parseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "₱")
	cleaned = strings.TrimPrefix(cleaned, "PHP")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unrecognized amount %q", s)
	}

	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount %q is not positive", s)
	}

	return amount, nil
}

func cellValue(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}

	return strings.TrimSpace(record[idx])
}
