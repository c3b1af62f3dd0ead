package xslsxGenerator

import (
	"bytes"
	"context"
	"testing"

	"github.com/KotFed0t/stock_screener/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestGenerate(t *testing.T) {
	table := model.Table{
		Columns: []model.Column{
			{Name: model.SymbolColumn, Label: "Symbol", Kind: model.KindText},
			{Name: model.MarketCapColumn, Label: "Market Cap", Kind: model.KindNumber},
			{Name: "peRatio", Kind: model.KindNumber},
		},
		Rows: []model.Row{
			{Index: 0, Values: map[string]model.Value{
				model.SymbolColumn:    model.Text("AAPL"),
				model.MarketCapColumn: model.Number(2800.5),
				"peRatio":             model.Number(28),
			}},
			{Index: 1, Values: map[string]model.Value{
				model.SymbolColumn:    model.Text("ZNGA"),
				model.MarketCapColumn: model.Number(8),
				"peRatio":             model.Null(),
			}},
		},
	}

	b, ext, err := New().Generate(context.Background(), table)
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", ext)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Symbol", "Market Cap", "peRatio"}, rows[0])
	assert.Equal(t, []string{"AAPL", "2800.5", "28"}, rows[1])
	assert.Equal(t, []string{"ZNGA", "8"}, rows[2])
}

func TestGenerate_EmptyTable(t *testing.T) {
	_, _, err := New().Generate(context.Background(), model.Table{})
	assert.ErrorIs(t, err, ErrEmptyTable)
}
