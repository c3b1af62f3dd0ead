package dbConverter

import (
	"github.com/KotFed0t/stock_screener/internal/model"
	"github.com/KotFed0t/stock_screener/internal/model/dbModel"
)

func ConvertTicker(dbTicker dbModel.Ticker) model.ListedTicker {
	return model.ListedTicker{
		Ticker:   dbTicker.Ticker,
		Exchange: dbTicker.Exchange,
	}
}

func ConvertTickers(dbTickers []dbModel.Ticker) []model.ListedTicker {
	res := make([]model.ListedTicker, 0, len(dbTickers))
	for _, t := range dbTickers {
		res = append(res, ConvertTicker(t))
	}
	return res
}
