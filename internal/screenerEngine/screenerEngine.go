package screenerEngine

import (
	"fmt"
	"slices"

	"github.com/KotFed0t/stock_screener/internal/model"
)

// Engine holds an immutable baseline and the current result derived from it.
// It is not safe for concurrent use.
type Engine struct {
	baseline model.Table
	current  model.Table
}

func New(baseline model.Table) *Engine {
	base := baseline.Clone()
	base.Reindex()
	return &Engine{
		baseline: base,
		current:  base.Clone(),
	}
}

// Query narrows the current result to rows matching every filter.
// On error the current result is left as it was.
func (e *Engine) Query(filters ...Filter) error {
	preds := make([]predicate, 0, len(filters))
	for _, f := range filters {
		p, err := f.bind(e.current)
		if err != nil {
			return err
		}
		preds = append(preds, p)
	}

	rows := make([]model.Row, 0, len(e.current.Rows))
	for _, row := range e.current.Rows {
		keep := true
		for _, p := range preds {
			if !p(row) {
				keep = false
				break
			}
		}
		if keep {
			rows = append(rows, row)
		}
	}

	e.current.Rows = rows
	e.current.Reindex()
	return nil
}

// Sort orders the current result by attr. Ties keep their relative order and nulls always go last.
func (e *Engine) Sort(attr string, ascending bool) error {
	col, ok := e.current.Column(attr)
	if !ok {
		return fmt.Errorf("%w: %s", ErrAttributeNotFound, attr)
	}

	slices.SortStableFunc(e.current.Rows, func(a, b model.Row) int {
		va, vb := a.Get(col.Name), b.Get(col.Name)
		switch {
		case va.IsNull() && vb.IsNull():
			return 0
		case va.IsNull():
			return 1
		case vb.IsNull():
			return -1
		}
		if ascending {
			return va.Compare(vb)
		}
		return vb.Compare(va)
	})

	e.current.Reindex()
	return nil
}

func (e *Engine) Reset() {
	e.current = e.baseline.Clone()
}

// AvailableFilters lists the display columns present in the baseline, in display order.
func (e *Engine) AvailableFilters() []model.Column {
	res := make([]model.Column, 0, len(model.DisplayColumns))
	for _, name := range model.DisplayColumns {
		if c, ok := e.baseline.Column(name); ok {
			res = append(res, c)
		}
	}
	return res
}

func (e *Engine) Attributes() []model.Column {
	return slices.Clone(e.baseline.Columns)
}

// Bounds returns the min and max numeric value of attr over the baseline.
func (e *Engine) Bounds(attr string) (float64, float64, error) {
	col, ok := e.baseline.Column(attr)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s", ErrAttributeNotFound, attr)
	}
	if col.Kind != model.KindNumber {
		return 0, 0, fmt.Errorf("%w: %s is %s", ErrTypeMismatch, col.Title(), col.Kind)
	}

	var lo, hi float64
	seen := false
	for _, row := range e.baseline.Rows {
		v := row.Get(col.Name)
		if v.Kind != model.KindNumber {
			continue
		}
		if !seen {
			lo, hi, seen = v.Num, v.Num, true
			continue
		}
		lo = min(lo, v.Num)
		hi = max(hi, v.Num)
	}
	return lo, hi, nil
}

func (e *Engine) AllData() model.Table {
	return e.baseline.Clone()
}

func (e *Engine) Results() model.Table {
	return e.current.Clone()
}
