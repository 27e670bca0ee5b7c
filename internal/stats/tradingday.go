package stats

import "time"

// sessionRollover is the journal's daily session close, in UTC.
const sessionRollover = 17 * time.Hour

// TradingDay names the session a timestamp falls in. A close before the
// rollover still belongs to the previous day's session.
func TradingDay(ts time.Time) string {
	return ts.UTC().Add(-sessionRollover).Format("2006-01-02")
}
