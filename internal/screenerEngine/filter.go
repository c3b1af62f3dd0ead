package screenerEngine

import (
	"fmt"
	"strings"

	"github.com/KotFed0t/stock_screener/internal/model"
	"golang.org/x/text/cases"
)

type filterKind int

const (
	filterText filterKind = iota
	filterRange
)

// Filter is one condition of a query. Build it with TextFilter or RangeFilter.
type Filter struct {
	Attr    string
	Pattern string
	Min     float64
	Max     float64
	kind    filterKind
}

// TextFilter keeps rows whose attr contains pattern, ignoring case.
func TextFilter(attr, pattern string) Filter {
	return Filter{Attr: attr, Pattern: pattern, kind: filterText}
}

// RangeFilter keeps rows whose attr lies in [min, max].
func RangeFilter(attr string, min, max float64) Filter {
	return Filter{Attr: attr, Min: min, Max: max, kind: filterRange}
}

func (f Filter) IsRange() bool {
	return f.kind == filterRange
}

func (f Filter) String() string {
	if f.IsRange() {
		return fmt.Sprintf("%s in [%g, %g]", f.Attr, f.Min, f.Max)
	}
	return fmt.Sprintf("%s contains %q", f.Attr, f.Pattern)
}

// predicate is a filter bound to a resolved column.
type predicate func(row model.Row) bool

func (f Filter) bind(table model.Table) (predicate, error) {
	col, ok := table.Column(f.Attr)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAttributeNotFound, f.Attr)
	}

	switch f.kind {
	case filterRange:
		if col.Kind != model.KindNumber {
			return nil, fmt.Errorf("%w: range filter on %s column %s", ErrTypeMismatch, col.Kind, col.Title())
		}
		return func(row model.Row) bool {
			v := row.Get(col.Name)
			return v.Kind == model.KindNumber && v.Num >= f.Min && v.Num <= f.Max
		}, nil
	default:
		if col.Kind != model.KindText && col.Kind != model.KindNull {
			return nil, fmt.Errorf("%w: text filter on %s column %s", ErrTypeMismatch, col.Kind, col.Title())
		}
		fold := cases.Fold()
		pattern := fold.String(f.Pattern)
		return func(row model.Row) bool {
			v := row.Get(col.Name)
			if v.Kind != model.KindText {
				return pattern == ""
			}
			return strings.Contains(fold.String(v.Text), pattern)
		}, nil
	}
}
