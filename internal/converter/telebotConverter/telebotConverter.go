package telebotConverter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/KotFed0t/stock_screener/internal/model"
	"github.com/KotFed0t/stock_screener/internal/model/tg/tgCallback"
	"github.com/KotFed0t/stock_screener/internal/screenerEngine"
	"github.com/KotFed0t/stock_screener/utils"
	tele "gopkg.in/telebot.v4"
)

const nullCell = "n/a"

var ErrBadFilter = errors.New("bad filter")

// compactColumns are shown with K/M/B/T suffixes.
var compactColumns = map[string]bool{
	model.MarketCapColumn: true,
	model.VolumeColumn:    true,
	"sharesOutstanding":   true,
}

// BoundsFunc reports the baseline min and max of a numeric attribute.
type BoundsFunc func(attr string) (float64, float64, error)

// ParseFilters reads "attr=text" and "attr=min..max" conditions separated by ';' or new lines.
// An empty range bound takes the attribute's baseline min or max.
func ParseFilters(payload string, bounds BoundsFunc) ([]screenerEngine.Filter, error) {
	parts := strings.FieldsFunc(payload, func(r rune) bool { return r == ';' || r == '\n' })

	filters := make([]screenerEngine.Filter, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		attr, value, ok := strings.Cut(part, "=")
		attr = strings.TrimSpace(attr)
		if !ok || attr == "" {
			return nil, fmt.Errorf("%w: %q, expected attr=value", ErrBadFilter, part)
		}
		value = strings.TrimSpace(value)

		lo, hi, isRange, err := parseRange(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrBadFilter, attr, err)
		}
		if !isRange {
			filters = append(filters, screenerEngine.TextFilter(attr, value))
			continue
		}

		if lo == nil || hi == nil {
			minV, maxV, err := bounds(attr)
			if err != nil {
				return nil, err
			}
			if lo == nil {
				lo = &minV
			}
			if hi == nil {
				hi = &maxV
			}
		}
		filters = append(filters, screenerEngine.RangeFilter(attr, *lo, *hi))
	}

	if len(filters) == 0 {
		return nil, fmt.Errorf("%w: no conditions", ErrBadFilter)
	}

	return filters, nil
}

// parseRange recognizes "min..max" where either side may be empty.
func parseRange(value string) (lo, hi *float64, isRange bool, err error) {
	left, right, ok := strings.Cut(value, "..")
	if !ok {
		return nil, nil, false, nil
	}

	parse := func(s string) (*float64, bool) {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		return &f, true
	}

	lo, okLo := parse(left)
	hi, okHi := parse(right)
	if !okLo || !okHi {
		// not numeric on both sides, so it is a text pattern containing ".."
		return nil, nil, false, nil
	}

	return lo, hi, true, nil
}

// ParseSort reads "attr [asc|desc]". The attribute may contain spaces; ascending is the default.
func ParseSort(payload string) (attr string, ascending bool, err error) {
	fields := strings.Fields(payload)
	if len(fields) == 0 {
		return "", false, fmt.Errorf("%w: expected attr [asc|desc]", ErrBadFilter)
	}

	ascending = true
	switch strings.ToLower(fields[len(fields)-1]) {
	case "desc":
		ascending = false
		fields = fields[:len(fields)-1]
	case "asc":
		fields = fields[:len(fields)-1]
	}

	if len(fields) == 0 {
		return "", false, fmt.Errorf("%w: missing attribute", ErrBadFilter)
	}

	return strings.Join(fields, " "), ascending, nil
}

func FormatCell(col model.Column, v model.Value) string {
	switch v.Kind {
	case model.KindNumber:
		if compactColumns[col.Name] {
			return utils.FormatCompact(v.Num)
		}
		if col.Name == model.PercentChangeColumn {
			return utils.FormatPercent(v.Num)
		}
		return utils.FormatFloat(v.Num, 2)
	case model.KindNull:
		return nullCell
	default:
		return v.String()
	}
}

func FiltersResponse(cols []model.Column) string {
	var sb strings.Builder

	sb.WriteString("Available filters:\n\n")
	for _, c := range cols {
		kind := "text"
		if c.Kind == model.KindNumber {
			kind = "range"
		}
		sb.WriteString(fmt.Sprintf("• %s (%s)\n", c.Title(), kind))
	}
	sb.WriteString("\nExamples:\n")
	sb.WriteString("/filter Exchange=nasdaq; Market Cap=1e9..\n")
	sb.WriteString("/sort Market Cap desc\n")

	return sb.String()
}

// PageCount is the number of pages needed for n rows, at least one.
func PageCount(n, perPage int) int {
	if n == 0 || perPage <= 0 {
		return 1
	}
	return (n + perPage - 1) / perPage
}

// ResultsPage renders one page of the table with prev/next buttons. page is clamped to the valid range.
func ResultsPage(table model.Table, page, perPage int) (text string, markup *tele.ReplyMarkup, shownPage int) {
	markup = &tele.ReplyMarkup{}
	pages := PageCount(table.Len(), perPage)
	page = max(0, min(page, pages-1))

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 %d stocks, page %d/%d\n\n", table.Len(), page+1, pages))

	if table.Len() == 0 {
		sb.WriteString("Nothing matches. Use /reset to start over.")
	}

	start := page * perPage
	end := min(start+perPage, table.Len())

	display := table.Project(model.DisplayColumns...)
	for _, row := range display.Rows[start:end] {
		sb.WriteString(fmt.Sprintf("%d. %s", row.Index+1, row.Symbol()))
		if desc := row.Get(model.DescriptionColumn); desc.Kind == model.KindText {
			sb.WriteString(" " + desc.Text)
		}
		sb.WriteString("\n")

		for _, col := range display.Columns {
			if col.Name == model.SymbolColumn || col.Name == model.DescriptionColumn {
				continue
			}
			sb.WriteString(fmt.Sprintf("   ▸ %s: %s\n", col.Title(), FormatCell(col, row.Get(col.Name))))
		}
		sb.WriteString("\n")
	}

	paginationBtns := make([]tele.Btn, 0, 2)
	if page > 0 {
		paginationBtns = append(paginationBtns, markup.Data("⬅️ prev", tgCallback.Page, strconv.Itoa(page-1)))
	}
	if page < pages-1 {
		paginationBtns = append(paginationBtns, markup.Data("next ➡️", tgCallback.Page, strconv.Itoa(page+1)))
	}

	rows := make([]tele.Row, 0, 2)
	if len(paginationBtns) > 0 {
		rows = append(rows, markup.Row(paginationBtns...))
	}
	rows = append(rows, markup.Row(
		markup.Data("📥 export", tgCallback.Export),
		markup.Data("🔄 reset", tgCallback.Reset),
	))
	markup.Inline(rows...)

	return sb.String(), markup, page
}
