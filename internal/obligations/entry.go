// Package obligations holds the tax-obligation calendar that the generator
// expands into tasks.
package obligations

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/yukikurage/tax-task-tracker/internal/models"
)

// Categories
const (
	CategoryFederal   = "federal"
	CategoryState     = "estadual"
	CategoryMunicipal = "municipal"
	CategoryLabor     = "trabalhista"
)

// Company regimes
const (
	CompanySimples   = "simples"
	CompanyMEI       = "mei"
	CompanyPresumido = "presumido"
	CompanyReal      = "real"
)

// Entry is one recurring obligation. Months lists the calendar months it
// falls due in; an empty list means every month.
type Entry struct {
	Title        string           `json:"title"`
	DueDay       int              `json:"dueDay"`
	Notes        string           `json:"notes,omitempty"`
	Category     string           `json:"category"`
	CompanyTypes []string         `json:"companyTypes,omitempty"`
	Source       string           `json:"source,omitempty"`
	Months       []int            `json:"months,omitempty"`
	Frequency    models.Frequency `json:"frequency"`
}

func (e Entry) Validate() error {
	var errs []error
	if strings.TrimSpace(e.Title) == "" {
		errs = append(errs, errors.New("title is required"))
	}
	if e.DueDay < 1 || e.DueDay > 31 {
		errs = append(errs, fmt.Errorf("dueDay %d out of range", e.DueDay))
	}
	for _, m := range e.Months {
		if m < 1 || m > 12 {
			errs = append(errs, fmt.Errorf("month %d out of range", m))
		}
	}
	if e.Frequency != "" && !e.Frequency.Valid() {
		errs = append(errs, fmt.Errorf("unknown frequency %q", e.Frequency))
	}
	if len(errs) > 0 {
		return fmt.Errorf("obligation %q: %w", e.Title, errors.Join(errs...))
	}
	return nil
}

func (e Entry) AppliesTo(month int) bool {
	return len(e.Months) == 0 || slices.Contains(e.Months, month)
}

// TaskFrequency is the recurrence stamped on generated tasks.
func (e Entry) TaskFrequency() models.Frequency {
	if e.Frequency != "" {
		return e.Frequency
	}
	switch len(e.Months) {
	case 0:
		return models.FrequencyMonthly
	case 4:
		return models.FrequencyQuarterly
	default:
		return models.FrequencyYearly
	}
}

// Filter narrows the catalog. Empty fields match everything.
type Filter struct {
	Categories   []string `json:"categories"`
	CompanyTypes []string `json:"companyTypes"`
}

func (f Filter) Match(e Entry) bool {
	if len(f.Categories) > 0 && !containsFold(f.Categories, e.Category) {
		return false
	}
	if len(f.CompanyTypes) > 0 && len(e.CompanyTypes) > 0 {
		for _, t := range e.CompanyTypes {
			if containsFold(f.CompanyTypes, t) {
				return true
			}
		}
		return false
	}
	return true
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), v) {
			return true
		}
	}
	return false
}

// DueDate places day inside year/month. Days past the end of the month are
// clamped to its last day, and weekend dates move back to the Friday before.
// A weekend at the start of the month moves forward to Monday instead, so the
// date never leaves the month.
func DueDate(year, month, day int) time.Time {
	last := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)

	var back, forward int
	switch d.Weekday() {
	case time.Saturday:
		back, forward = 1, 2
	case time.Sunday:
		back, forward = 2, 1
	default:
		return d
	}
	if shifted := d.AddDate(0, 0, -back); shifted.Month() == d.Month() {
		return shifted
	}
	return d.AddDate(0, 0, forward)
}
