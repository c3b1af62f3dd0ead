package nasdaqModel

type ScreenerResponse struct {
	Data   *ScreenerData `json:"data"`
	Status Status        `json:"status"`
}

type ScreenerData struct {
	Rows []ScreenerRow `json:"rows"`
}

type ScreenerRow struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	MarketCap string `json:"marketCap"`
	Country   string `json:"country"`
	Sector    string `json:"sector"`
	Industry  string `json:"industry"`
}

type Status struct {
	RCode int `json:"rCode"`
}
