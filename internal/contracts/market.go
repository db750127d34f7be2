package contracts

import (
	"fmt"
	"strings"
	"time"
)

// MarketLocation is the exchange calendar zone (UTC+8, no DST)
var MarketLocation = time.FixedZone("CST", 8*60*60)

// DateLayout is the wire and storage layout for trading dates
const DateLayout = "2006-01-02"

// Market identifies the exchange an instrument trades on
type Market string

const (
	MarketShanghai Market = "SH"
	MarketShenzhen Market = "SZ"
	MarketBeijing  Market = "BJ"
)

// MarketOf derives the exchange from a six-digit code
func MarketOf(code string) Market {
	switch {
	case strings.HasPrefix(code, "6"), strings.HasPrefix(code, "9"):
		return MarketShanghai
	case strings.HasPrefix(code, "4"), strings.HasPrefix(code, "8"):
		return MarketBeijing
	default:
		return MarketShenzhen
	}
}

// Instrument is a listed equity tracked by the registry
// ⭐ SSOT: instruments are written only by the registry
type Instrument struct {
	Code       string     `json:"code"`
	Name       string     `json:"name"`
	Market     Market     `json:"market"`
	ListedDate *time.Time `json:"listed_date,omitempty"`
	Delisted   bool       `json:"delisted"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// PriceBar is one trading day of OHLCV data.
// Bars are append-only once stored.
type PriceBar struct {
	InstrumentCode string    `json:"instrument_code"`
	TradingDate    time.Time `json:"trading_date"`
	Open           float64   `json:"open"`
	High           float64   `json:"high"`
	Low            float64   `json:"low"`
	Close          float64   `json:"close"`
	Volume         float64   `json:"volume"`
	Amount         float64   `json:"amount"`
}

// Quote is the latest observation handed to a strategy with its history
type Quote struct {
	InstrumentCode string    `json:"instrument_code"`
	Date           time.Time `json:"date"`
	Price          float64   `json:"price"`
	PrevClose      float64   `json:"prev_close"`
	ChangePercent  float64   `json:"change_percent"`
	Volume         float64   `json:"volume"`
}

// QuoteFromBars builds the current quote from the last bar of a window
func QuoteFromBars(bars []PriceBar) (Quote, bool) {
	if len(bars) == 0 {
		return Quote{}, false
	}
	last := bars[len(bars)-1]
	q := Quote{
		InstrumentCode: last.InstrumentCode,
		Date:           last.TradingDate,
		Price:          last.Close,
		Volume:         last.Volume,
	}
	if len(bars) > 1 {
		q.PrevClose = bars[len(bars)-2].Close
		if q.PrevClose > 0 {
			q.ChangePercent = (q.Price - q.PrevClose) / q.PrevClose * 100
		}
	}
	return q, true
}

// DateRange is an inclusive range of calendar dates
type DateRange struct {
	From time.Time
	To   time.Time
}

// Empty reports whether the range contains no dates
func (r DateRange) Empty() bool {
	return DateOnly(r.From).After(DateOnly(r.To))
}

// Contains reports whether d falls inside the range
func (r DateRange) Contains(d time.Time) bool {
	d = DateOnly(d)
	return !d.Before(DateOnly(r.From)) && !d.After(DateOnly(r.To))
}

func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", FormatDate(r.From), FormatDate(r.To))
}

// DateOnly truncates t to midnight in the market zone, keeping its calendar day
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, MarketLocation)
}

// Today returns the current calendar date in loc
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = MarketLocation
	}
	return DateOnly(now.In(loc))
}

// LatestTradingDay rolls weekends back to Friday. Holidays are not modelled.
func LatestTradingDay(now time.Time, loc *time.Location) time.Time {
	d := Today(now, loc)
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, -2)
	}
	return d
}

// LatestSessionDate is the newest trading day whose session has closed by now.
// Before sessionClose (time of day in loc) the previous day is used.
func LatestSessionDate(now time.Time, loc *time.Location, sessionClose time.Duration) time.Time {
	if loc == nil {
		loc = MarketLocation
	}
	local := now.In(loc)
	y, m, d := local.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if sessionClose > 0 && local.Sub(midnight) < sessionClose {
		local = midnight.Add(-time.Minute)
	}
	return LatestTradingDay(local, loc)
}

// FormatDate renders a trading date as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses YYYY-MM-DD into a market-zone date
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), MarketLocation)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}
