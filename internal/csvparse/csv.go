package csvparse

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/rocjay1/ledger-entry/internal/models"
)

// ImportRow is one parsed line of an import file. Values are left raw; the payload builder
// validates them against the kind.
type ImportRow struct {
	Line       int
	Kind       models.Kind
	ExternalID string
	Fields     models.RawFields
}

const (
	colKind       = "kind"
	colExternalID = "externalid"
)

// columns maps normalized header names to form fields.
var columns = map[string]models.FieldName{
	"date":               models.FieldDate,
	"asset":              models.FieldAsset,
	"counterasset":       models.FieldCounterAsset,
	"cashasset":          models.FieldCashLegAsset,
	"dividendsource":     models.FieldDividendSourceAsset,
	"quantity":           models.FieldQuantity,
	"price":              models.FieldPrice,
	"fee":                models.FieldFee,
	"tax":                models.FieldTax,
	"sourceamount":       models.FieldSourceAmount,
	"targetamount":       models.FieldTargetAmount,
	"category":           models.FieldCategory,
	"description":        models.FieldDescription,
	"memo":               models.FieldMemo,
	"relatedtransaction": models.FieldRelatedTransaction,
}

// ParseImportCSV parses an import file.
// It returns the rows that could be read and a list of errors for rows that could not. Row numbers
// are file line numbers, so the first data row is row 2.
func ParseImportCSV(content string) ([]ImportRow, []models.RowError) {
	reader := csv.NewReader(strings.NewReader(content))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, []models.RowError{{Row: 0, Error: fmt.Sprintf("Failed to read CSV: %v", err)}}
	}

	if len(records) < 2 {
		return []ImportRow{}, nil // Empty or header-only
	}

	headers := parseHeaders(records[0])
	if !contains(headers, colKind) || !contains(headers, "date") {
		return nil, []models.RowError{{Row: 1, Error: "header must include Kind and Date columns"}}
	}

	var rows []ImportRow
	var errors []models.RowError

	for i, record := range records[1:] {
		rowNum := i + 2
		if blank(record) {
			continue
		}
		if len(record) < len(headers) {
			errors = append(errors, models.RowError{Row: rowNum, Error: "Not enough fields"})
			continue
		}

		rowMap := make(map[string]string, len(headers))
		for j, header := range headers {
			rowMap[header] = strings.TrimSpace(record[j])
		}

		row, err := mapToRow(rowMap)
		if err != nil {
			errors = append(errors, models.RowError{Row: rowNum, Error: err.Error()})
			continue
		}
		row.Line = rowNum
		rows = append(rows, row)
	}

	return rows, errors
}

// parseHeaders normalizes "Counter Asset", "counter_asset" and "counterAsset" to the same key.
func parseHeaders(row []string) []string {
	headers := make([]string, len(row))
	r := strings.NewReplacer(" ", "", "_", "", "-", "")
	for i, h := range row {
		headers[i] = strings.ToLower(r.Replace(strings.TrimSpace(h)))
	}
	return headers
}

func mapToRow(row map[string]string) (ImportRow, error) {
	kindStr := row[colKind]
	if kindStr == "" {
		return ImportRow{}, fmt.Errorf("missing Kind")
	}
	kind, err := models.ParseKind(strings.ToLower(kindStr))
	if err != nil {
		return ImportRow{}, fmt.Errorf("invalid Kind: %s", kindStr)
	}

	if row["date"] == "" {
		return ImportRow{}, fmt.Errorf("missing Date")
	}

	fields := models.RawFields{}
	for col, v := range row {
		if f, ok := columns[col]; ok && v != "" {
			fields[f] = v
		}
	}

	return ImportRow{
		Kind:       kind,
		ExternalID: row[colExternalID],
		Fields:     fields,
	}, nil
}

func contains(headers []string, name string) bool {
	for _, h := range headers {
		if h == name {
			return true
		}
	}
	return false
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
