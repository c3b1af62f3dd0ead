package model

import (
	"slices"
	"sort"
)

const SymbolColumn = "symbol"

// Record is one provider entry flattened to attribute -> scalar.
type Record map[string]Value

func (r Record) Symbol() string {
	return r[SymbolColumn].Text
}

type Column struct {
	Name  string
	Label string
	Kind  Kind
}

// Title is what a user sees for the column.
func (c Column) Title() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Name
}

type Row struct {
	Index  int
	Values map[string]Value
}

func (r Row) Get(name string) Value {
	return r.Values[name]
}

func (r Row) Symbol() string {
	return r.Values[SymbolColumn].Text
}

type Table struct {
	Columns []Column
	Rows    []Row
}

func (t Table) Len() int {
	return len(t.Rows)
}

// Column resolves an attribute by column name, then by display label.
func (t Table) Column(attr string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == attr {
			return c, true
		}
	}
	for _, c := range t.Columns {
		if c.Label != "" && c.Label == attr {
			return c, true
		}
	}
	return Column{}, false
}

func (t Table) Clone() Table {
	res := Table{
		Columns: slices.Clone(t.Columns),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, row := range t.Rows {
		values := make(map[string]Value, len(row.Values))
		for k, v := range row.Values {
			values[k] = v
		}
		res.Rows[i] = Row{Index: row.Index, Values: values}
	}
	return res
}

// Reindex makes row indices dense and zero based in the current order.
func (t Table) Reindex() {
	for i := range t.Rows {
		t.Rows[i].Index = i
	}
}

// Project returns a copy restricted to the named columns, in the given order. Unknown names are skipped.
func (t Table) Project(names ...string) Table {
	cols := make([]Column, 0, len(names))
	for _, name := range names {
		if c, ok := t.Column(name); ok {
			cols = append(cols, c)
		}
	}

	res := Table{Columns: cols, Rows: make([]Row, len(t.Rows))}
	for i, row := range t.Rows {
		values := make(map[string]Value, len(cols))
		for _, c := range cols {
			if v, ok := row.Values[c.Name]; ok {
				values[c.Name] = v
			}
		}
		res.Rows[i] = Row{Index: row.Index, Values: values}
	}
	return res
}

// JoinBySymbol merges fundamentals and quotes records sharing a symbol into one row each.
// quoteColumns selects which quote attributes are carried over; the quote symbol column is dropped.
// Rows come out sorted by symbol. Symbols found on only one side are returned as unmatched and produce no row.
func JoinBySymbol(fundamentals, quotes []Record, quoteColumns []Column) (Table, []string) {
	quotesBySymbol := make(map[string]Record, len(quotes))
	for _, q := range quotes {
		sym := q.Symbol()
		if _, ok := quotesBySymbol[sym]; ok {
			continue
		}
		quotesBySymbol[sym] = q
	}

	sorted := slices.Clone(fundamentals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Symbol() < sorted[j].Symbol()
	})

	carried := make([]Column, 0, len(quoteColumns))
	for _, c := range quoteColumns {
		if c.Name != SymbolColumn {
			carried = append(carried, c)
		}
	}

	var unmatched []string
	used := make(map[string]struct{}, len(quotesBySymbol))
	rows := make([]Row, 0, len(sorted))

	for _, f := range sorted {
		sym := f.Symbol()
		if _, dup := used[sym]; dup {
			continue
		}
		q, ok := quotesBySymbol[sym]
		if !ok {
			unmatched = append(unmatched, sym)
			continue
		}
		used[sym] = struct{}{}

		values := make(map[string]Value, len(f)+len(carried))
		for k, v := range f {
			values[k] = v
		}
		for _, c := range carried {
			values[c.Name] = q[c.Name]
		}
		rows = append(rows, Row{Index: len(rows), Values: values})
	}

	for sym := range quotesBySymbol {
		if _, ok := used[sym]; !ok {
			unmatched = append(unmatched, sym)
		}
	}
	sort.Strings(unmatched)

	table := Table{
		Columns: append(fundamentalColumns(fundamentals), carried...),
		Rows:    rows,
	}
	table.inferKinds()

	return table, unmatched
}

// fundamentalColumns lists every attribute seen in fundamentals records:
// symbol, description and exchange first, the rest alphabetically.
func fundamentalColumns(records []Record) []Column {
	lead := []string{SymbolColumn, DescriptionColumn, ExchangeColumn}

	seen := make(map[string]struct{})
	var rest []string
	for _, r := range records {
		for k := range r {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			if !slices.Contains(lead, k) {
				rest = append(rest, k)
			}
		}
	}
	sort.Strings(rest)

	cols := make([]Column, 0, len(lead)+len(rest))
	for _, name := range lead {
		if _, ok := seen[name]; ok {
			cols = append(cols, Column{Name: name})
		}
	}
	for _, name := range rest {
		cols = append(cols, Column{Name: name})
	}
	return cols
}

// inferKinds sets each column kind from its non-null cells and attaches display labels.
// A column holding more than one kind of value is treated as text.
func (t Table) inferKinds() {
	for i, c := range t.Columns {
		kind := KindNull
		for _, row := range t.Rows {
			v := row.Values[c.Name]
			if v.IsNull() {
				continue
			}
			if kind == KindNull {
				kind = v.Kind
				continue
			}
			if kind != v.Kind {
				kind = KindText
				break
			}
		}
		t.Columns[i].Kind = kind
		if t.Columns[i].Label == "" {
			t.Columns[i].Label = DisplayLabels[c.Name]
		}
	}
}
