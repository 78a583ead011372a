package importer

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrDateRequired = errors.New("date is required")
	ErrDateFormat   = errors.New("date is not a valid calendar date")
)

// DateLayout is the canonical form stored in RowData.Date
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	"02/01/2006",
	"02.01.2006",
	"02-01-2006",
	"2006/01/02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// spreadsheet serial day zero
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// ParseDate accepts the statement date formats seen in practice, plus
// spreadsheet serial day numbers
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, ErrDateRequired
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= 1 && serial < 2958466 {
		return excelEpoch.AddDate(0, 0, int(serial)), nil
	}

	return time.Time{}, ErrDateFormat
}
