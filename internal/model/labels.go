package model

const (
	DescriptionColumn   = "description"
	ExchangeColumn      = "exchange"
	MarketCapColumn     = "marketCap"
	PERatioColumn       = "peRatio"
	LastPriceColumn     = "regularMarketLastPrice"
	AltLastPriceColumn  = "lastPrice"
	NetChangeColumn     = "regularMarketNetChange"
	PercentChangeColumn = "netPercentChangeInDouble"
	VolumeColumn        = "totalVolume"
)

// QuoteColumns is the fixed subset of a quote carried into the instrument table.
var QuoteColumns = []Column{
	{Name: SymbolColumn},
	{Name: LastPriceColumn},
	{Name: AltLastPriceColumn},
	{Name: NetChangeColumn},
	{Name: PercentChangeColumn},
	{Name: VolumeColumn},
}

// DisplayColumns is the default column set shown to users and offered as filters.
var DisplayColumns = []string{
	SymbolColumn,
	DescriptionColumn,
	ExchangeColumn,
	MarketCapColumn,
	LastPriceColumn,
	NetChangeColumn,
	PercentChangeColumn,
	PERatioColumn,
	VolumeColumn,
}

var DisplayLabels = map[string]string{
	SymbolColumn:        "Symbol",
	DescriptionColumn:   "Description",
	ExchangeColumn:      "Exchange",
	MarketCapColumn:     "Market Cap",
	PERatioColumn:       "P/E Ratio",
	LastPriceColumn:     "Price",
	AltLastPriceColumn:  "Last Price",
	NetChangeColumn:     "Change",
	PercentChangeColumn: "% Change",
	VolumeColumn:        "Volume",
	"dividendYield":     "Dividend Yield",
	"high52":            "52W High",
	"low52":             "52W Low",
	"beta":              "Beta",
	"epsTTM":            "EPS (TTM)",
	"sharesOutstanding": "Shares Outstanding",
}
