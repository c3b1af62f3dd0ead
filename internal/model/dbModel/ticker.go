package dbModel

import "time"

type Ticker struct {
	Ticker   string    `db:"ticker"`
	Exchange string    `db:"exchange"`
	DtUpdate time.Time `db:"dt_update"`
}
