package model

import "time"

// Tick holds the quote fields extracted for one ticker from one provider.
// Fields a provider could not extract stay nil; reading them through Value
// yields nil rather than an error.
type Tick struct {
	PrevClose         *float64
	Open              *float64
	Change            *float64
	ChangeInPercent   *float64
	Low               *float64
	High              *float64
	LastPrice         *float64
	Bid               *float64
	Ask               *float64
	BidSize           *float64
	AskSize           *float64
	High52Week        *float64
	Low52Week         *float64
	MarketCap         *float64
	Volume            *float64
	AvgDailyVol3Month *float64
	Beta              *float64
	EPS               *float64
	PERatio           *float64
	Div               *float64
	DivYield          *float64
	ExDivDate         *time.Time
	PayoutRatio       *float64
	ExpiryDate        *time.Time
	SharesOut         *float64
	FreeFloat         *float64
	SettlementDate    *time.Time
	Close             *float64
	AdjClose          *float64
	Sector            *string
	Industry          *string
	Ticker            *string
	Exchange          *string
	Currency          *string
	Name              *string
	Timezone          *string
	LastPriceDate     *time.Time
	LastPriceTime     *time.Time

	// FetchedAt is stamped when the record is (re)populated and drives the
	// TTL check in the source adapters.
	FetchedAt time.Time
}

// HistoricSeries maps an ISO date (2006-01-02) to the OHLCV tick for that
// trading day. ISO dates compare correctly as plain strings.
type HistoricSeries map[string]*Tick

func (s HistoricSeries) MinDate() string {
	min := ""
	for d := range s {
		if min == "" || d < min {
			min = d
		}
	}
	return min
}

func (s HistoricSeries) MaxDate() string {
	max := ""
	for d := range s {
		if d > max {
			max = d
		}
	}
	return max
}

// Value is the schema-to-accessor table used at the dispatcher boundary,
// where a field is selected by a runtime-provided code. Dates and times come
// back as ISO strings, matching what the spreadsheet host expects.
func (t *Tick) Value(dc Datacode) any {
	if t == nil {
		return nil
	}

	switch dc {
	case PrevClose:
		return floatOrNil(t.PrevClose)
	case Open:
		return floatOrNil(t.Open)
	case Change:
		return floatOrNil(t.Change)
	case ChangeInPercent:
		return floatOrNil(t.ChangeInPercent)
	case Low:
		return floatOrNil(t.Low)
	case High:
		return floatOrNil(t.High)
	case LastPrice:
		return floatOrNil(t.LastPrice)
	case Bid:
		return floatOrNil(t.Bid)
	case Ask:
		return floatOrNil(t.Ask)
	case BidSize:
		return floatOrNil(t.BidSize)
	case AskSize:
		return floatOrNil(t.AskSize)
	case High52Week:
		return floatOrNil(t.High52Week)
	case Low52Week:
		return floatOrNil(t.Low52Week)
	case MarketCap:
		return floatOrNil(t.MarketCap)
	case Volume:
		return floatOrNil(t.Volume)
	case AvgDailyVol3Month:
		return floatOrNil(t.AvgDailyVol3Month)
	case Beta:
		return floatOrNil(t.Beta)
	case EPS:
		return floatOrNil(t.EPS)
	case PERatio:
		return floatOrNil(t.PERatio)
	case Div:
		return floatOrNil(t.Div)
	case DivYield:
		return floatOrNil(t.DivYield)
	case ExDivDate:
		return dateOrNil(t.ExDivDate)
	case PayoutRatio:
		return floatOrNil(t.PayoutRatio)
	case ExpiryDate:
		return dateOrNil(t.ExpiryDate)
	case SharesOut:
		return floatOrNil(t.SharesOut)
	case FreeFloat:
		return floatOrNil(t.FreeFloat)
	case SettlementDate:
		return dateOrNil(t.SettlementDate)
	case Close:
		return floatOrNil(t.Close)
	case AdjClose:
		return floatOrNil(t.AdjClose)
	case Sector:
		return stringOrNil(t.Sector)
	case Industry:
		return stringOrNil(t.Industry)
	case Ticker:
		return stringOrNil(t.Ticker)
	case Exchange:
		return stringOrNil(t.Exchange)
	case Currency:
		return stringOrNil(t.Currency)
	case Name:
		return stringOrNil(t.Name)
	case Timezone:
		return stringOrNil(t.Timezone)
	case LastPriceDate:
		return dateOrNil(t.LastPriceDate)
	case LastPriceTime:
		return timeOrNil(t.LastPriceTime)
	case Timestamp:
		if t.FetchedAt.IsZero() {
			return nil
		}
		return float64(t.FetchedAt.Unix())
	}

	return nil
}

func floatOrNil(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func stringOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func dateOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("15:04:05")
}
