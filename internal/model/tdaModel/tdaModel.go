package tdaModel

// Instrument is one entry of the instruments endpoint response with projection=fundamental.
type Instrument struct {
	Fundamental map[string]any `json:"fundamental"`
	Cusip       string         `json:"cusip"`
	Symbol      string         `json:"symbol"`
	Description string         `json:"description"`
	Exchange    string         `json:"exchange"`
	AssetType   string         `json:"assetType"`
}

// FundamentalsResponse maps symbol -> instrument.
type FundamentalsResponse map[string]Instrument

// QuotesResponse maps symbol -> flat quote object.
type QuotesResponse map[string]map[string]any
