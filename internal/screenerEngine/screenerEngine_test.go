package screenerEngine

import (
	"testing"

	"github.com/KotFed0t/stock_screener/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseline(t *testing.T) model.Table {
	t.Helper()

	stock := func(sym, desc, exchange string, marketCap float64) model.Record {
		return model.Record{
			model.SymbolColumn:      model.Text(sym),
			model.DescriptionColumn: model.Text(desc),
			model.ExchangeColumn:    model.Text(exchange),
			model.MarketCapColumn:   model.Number(marketCap),
		}
	}
	price := func(sym string, last float64) model.Record {
		return model.Record{
			model.SymbolColumn:    model.Text(sym),
			model.LastPriceColumn: model.Number(last),
		}
	}

	fundamentals := []model.Record{
		stock("AAPL", "Apple Inc", "NASDAQ", 2800),
		stock("IBM", "International Business Machines", "NYSE", 120),
		stock("MSFT", "Microsoft Corp", "NASDAQ", 2500),
		stock("KO", "Coca-Cola Co", "NYSE", 260),
		stock("ZNGA", "Zynga Inc", "NASDAQ", 8),
	}
	quotes := []model.Record{
		price("AAPL", 170),
		price("IBM", 140),
		price("MSFT", 310),
		price("KO", 60),
		{model.SymbolColumn: model.Text("ZNGA"), model.LastPriceColumn: model.Null()},
	}

	table, unmatched := model.JoinBySymbol(fundamentals, quotes, model.QuoteColumns)
	require.Empty(t, unmatched)
	return table
}

func symbols(table model.Table) []string {
	res := make([]string, 0, table.Len())
	for _, row := range table.Rows {
		res = append(res, row.Symbol())
	}
	return res
}

func assertDenseIndex(t *testing.T, table model.Table) {
	t.Helper()
	for i, row := range table.Rows {
		assert.Equal(t, i, row.Index)
	}
}

func TestNew_CopiesBaseline(t *testing.T) {
	base := baseline(t)
	e := New(base)

	assert.Equal(t, e.AllData(), e.Results())
	assert.Equal(t, base.Len(), e.Results().Len())

	base.Rows[0].Values[model.ExchangeColumn] = model.Text("OTC")
	assert.Equal(t, "NASDAQ", e.AllData().Rows[0].Get(model.ExchangeColumn).Text)
}

func TestQuery_TextFilterIsCaseInsensitiveSubstring(t *testing.T) {
	e := New(baseline(t))

	require.NoError(t, e.Query(TextFilter("Description", "INC")))

	assert.Equal(t, []string{"AAPL", "ZNGA"}, symbols(e.Results()))
	assertDenseIndex(t, e.Results())
}

func TestQuery_RangeIsInclusive(t *testing.T) {
	e := New(baseline(t))

	require.NoError(t, e.Query(RangeFilter(model.MarketCapColumn, 120, 2500)))

	assert.Equal(t, []string{"IBM", "KO", "MSFT"}, symbols(e.Results()))
}

func TestQuery_RangeSkipsNulls(t *testing.T) {
	e := New(baseline(t))

	require.NoError(t, e.Query(RangeFilter("Price", 0, 1000)))

	assert.NotContains(t, symbols(e.Results()), "ZNGA")
	assert.Equal(t, 4, e.Results().Len())
}

func TestQuery_MinAboveMaxIsEmpty(t *testing.T) {
	e := New(baseline(t))

	require.NoError(t, e.Query(RangeFilter(model.MarketCapColumn, 100, 10)))
	assert.Zero(t, e.Results().Len())
}

func TestQuery_FiltersIntersect(t *testing.T) {
	exchangeOnly := New(baseline(t))
	require.NoError(t, exchangeOnly.Query(TextFilter("exchange", "nasdaq")))

	capOnly := New(baseline(t))
	require.NoError(t, capOnly.Query(RangeFilter("Market Cap", 100, 3000)))

	both := New(baseline(t))
	require.NoError(t, both.Query(
		TextFilter("exchange", "nasdaq"),
		RangeFilter("Market Cap", 100, 3000),
	))

	var want []string
	for _, sym := range symbols(exchangeOnly.Results()) {
		if contains(symbols(capOnly.Results()), sym) {
			want = append(want, sym)
		}
	}
	assert.Equal(t, want, symbols(both.Results()))
	assert.Equal(t, []string{"AAPL", "MSFT"}, symbols(both.Results()))
}

func TestQuery_SuccessiveQueriesNarrow(t *testing.T) {
	e := New(baseline(t))

	require.NoError(t, e.Query(TextFilter("exchange", "NYSE")))
	require.NoError(t, e.Query(RangeFilter("Market Cap", 200, 300)))

	assert.Equal(t, []string{"KO"}, symbols(e.Results()))
	assert.Equal(t, 0, e.Results().Rows[0].Index)
}

func TestQuery_UnknownAttributeLeavesResultUnchanged(t *testing.T) {
	e := New(baseline(t))
	require.NoError(t, e.Sort("Market Cap", false))
	before := e.Results()

	err := e.Query(TextFilter("exchange", "NYSE"), TextFilter("Sector", "Tech"))
	assert.ErrorIs(t, err, ErrAttributeNotFound)
	assert.Equal(t, before, e.Results())
}

func TestQuery_TypeMismatch(t *testing.T) {
	e := New(baseline(t))
	before := e.Results()

	assert.ErrorIs(t, e.Query(RangeFilter("exchange", 0, 1)), ErrTypeMismatch)
	assert.ErrorIs(t, e.Query(TextFilter("Market Cap", "1")), ErrTypeMismatch)
	assert.Equal(t, before, e.Results())
}

func TestSort_DescendingReversesAscending(t *testing.T) {
	e := New(baseline(t))

	require.NoError(t, e.Sort("Market Cap", true))
	asc := symbols(e.Results())
	assertDenseIndex(t, e.Results())

	require.NoError(t, e.Sort("Market Cap", false))
	desc := symbols(e.Results())

	assert.Equal(t, []string{"ZNGA", "IBM", "KO", "MSFT", "AAPL"}, asc)
	for i := range asc {
		assert.Equal(t, asc[i], desc[len(desc)-1-i])
	}
}

func TestSort_NullsLastBothWays(t *testing.T) {
	e := New(baseline(t))

	require.NoError(t, e.Sort(model.LastPriceColumn, true))
	res := symbols(e.Results())
	assert.Equal(t, "KO", res[0])
	assert.Equal(t, "ZNGA", res[len(res)-1])

	require.NoError(t, e.Sort(model.LastPriceColumn, false))
	res = symbols(e.Results())
	assert.Equal(t, "MSFT", res[0])
	assert.Equal(t, "ZNGA", res[len(res)-1])
}

func TestSort_IsStable(t *testing.T) {
	e := New(baseline(t))

	require.NoError(t, e.Sort("exchange", true))

	assert.Equal(t, []string{"AAPL", "MSFT", "ZNGA", "IBM", "KO"}, symbols(e.Results()))
}

func TestSort_UnknownAttribute(t *testing.T) {
	e := New(baseline(t))
	before := e.Results()

	assert.ErrorIs(t, e.Sort("nope", true), ErrAttributeNotFound)
	assert.Equal(t, before, e.Results())
}

func TestReset_RestoresBaseline(t *testing.T) {
	e := New(baseline(t))

	require.NoError(t, e.Query(TextFilter("exchange", "NYSE")))
	require.NoError(t, e.Sort("Market Cap", false))
	e.Reset()

	assert.Equal(t, e.AllData(), e.Results())
}

func TestAvailableFilters(t *testing.T) {
	e := New(baseline(t))

	var names []string
	for _, c := range e.AvailableFilters() {
		names = append(names, c.Name)
	}

	assert.Equal(t, []string{
		model.SymbolColumn,
		model.DescriptionColumn,
		model.ExchangeColumn,
		model.MarketCapColumn,
		model.LastPriceColumn,
		model.NetChangeColumn,
		model.PercentChangeColumn,
		model.VolumeColumn,
	}, names)
	assert.Len(t, e.Attributes(), len(e.AllData().Columns))
}

func TestBounds(t *testing.T) {
	e := New(baseline(t))

	lo, hi, err := e.Bounds("Market Cap")
	require.NoError(t, err)
	assert.Equal(t, 8.0, lo)
	assert.Equal(t, 2800.0, hi)

	_, _, err = e.Bounds("exchange")
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
