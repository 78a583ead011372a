package dashboard

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// UncategorizedLabel buckets expenses without a category
const UncategorizedLabel = "Uncategorized"

const (
	DefaultTrendMonths = 6
	MaxTrendMonths     = 12
)

// Scope restricts aggregates to the areas a caller can access
type Scope struct {
	AllAreas bool
	AreaIDs  []uuid.UUID
}

// Empty reports whether the scope can match nothing
func (s Scope) Empty() bool {
	return !s.AllAreas && len(s.AreaIDs) == 0
}

// Totals is an income/expense pair in minor units
type Totals struct {
	Income   int64 `json:"income"`
	Expenses int64 `json:"expenses"`
}

// Overview is the organization-wide headline numbers
type Overview struct {
	TotalIncome   int64 `json:"total_income"`
	TotalExpenses int64 `json:"total_expenses"`
	Balance       int64 `json:"balance"`
	PendingCount  int   `json:"pending_count"`
	AreasCount    int   `json:"areas_count"`
}

// AreaBalance is one area's approved totals
type AreaBalance struct {
	AreaID   uuid.UUID `json:"area_id"`
	AreaName string    `json:"area_name"`
	Currency string    `json:"currency"`
	Income   int64     `json:"income"`
	Expenses int64     `json:"expenses"`
	Balance  int64     `json:"balance"`
}

// CategoryTotal is one slice of the expense breakdown
type CategoryTotal struct {
	Category   string  `json:"category"`
	Amount     int64   `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// MonthlyTotal is one bucket of the income versus expense trend
type MonthlyTotal struct {
	Month    string `json:"month"` // YYYY-MM
	Income   int64  `json:"income"`
	Expenses int64  `json:"expenses"`
	Net      int64  `json:"net"`
}

// AreaExpense is one area's expense total in a window
type AreaExpense struct {
	AreaID   uuid.UUID `json:"area_id"`
	AreaName string    `json:"area_name"`
	Currency string    `json:"currency"`
	Expenses int64     `json:"expenses"`
}

// FundBalance is the balance of a user's special fund department
type FundBalance struct {
	DepartmentID   uuid.UUID `json:"department_id"`
	DepartmentName string    `json:"department_name"`
	AreaID         uuid.UUID `json:"area_id"`
	AreaName       string    `json:"area_name"`
	Currency       string    `json:"currency"`
	Income         int64     `json:"income"`
	Expenses       int64     `json:"expenses"`
	Balance        int64     `json:"balance"`
}

// WithShares sorts categories by amount descending and fills each one's
// percentage of the window total, rounded to two decimals. Rows without a
// category are merged into the UncategorizedLabel bucket.
func WithShares(rows []CategoryTotal) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(rows))
	index := make(map[string]int, len(rows))

	var total int64
	for _, row := range rows {
		if row.Category == "" {
			row.Category = UncategorizedLabel
		}
		total += row.Amount
		if i, ok := index[row.Category]; ok {
			out[i].Amount += row.Amount
			continue
		}
		index[row.Category] = len(out)
		out = append(out, row)
	}
	for i := range out {
		if total > 0 {
			out[i].Percentage = math.Round(float64(out[i].Amount)*10000/float64(total)) / 100
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Amount == out[j].Amount {
			return out[i].Category < out[j].Category
		}
		return out[i].Amount > out[j].Amount
	})
	return out
}

// ClampMonths applies the trend window default and bounds
func ClampMonths(months int) int {
	if months <= 0 {
		return DefaultTrendMonths
	}
	if months > MaxTrendMonths {
		return MaxTrendMonths
	}
	return months
}

// MonthWindow returns the first day of the oldest month and the first day of
// the month after now, for a window of n calendar months ending with now's month
func MonthWindow(now time.Time, months int) (time.Time, time.Time) {
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return current.AddDate(0, -(months - 1), 0), current.AddDate(0, 1, 0)
}

// FillMonths emits every month in the window, oldest first, with zeros for months absent from rows
func FillMonths(start time.Time, months int, rows []MonthlyTotal) []MonthlyTotal {
	byMonth := make(map[string]MonthlyTotal, len(rows))
	for _, r := range rows {
		byMonth[r.Month] = r
	}

	out := make([]MonthlyTotal, 0, months)
	for i := 0; i < months; i++ {
		key := start.AddDate(0, i, 0).Format("2006-01")
		row, ok := byMonth[key]
		if !ok {
			row = MonthlyTotal{Month: key}
		}
		row.Net = row.Income - row.Expenses
		out = append(out, row)
	}
	return out
}
