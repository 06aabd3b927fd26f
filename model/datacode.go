package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Datacode identifies a single quote attribute. The numeric values are part
// of the public contract (spreadsheets reference fields by number), so codes
// are never reused or renumbered.
type Datacode int

const (
	PrevClose       Datacode = 5
	Open            Datacode = 6
	Change          Datacode = 7
	LastPriceDate   Datacode = 8
	LastPriceTime   Datacode = 10
	ChangeInPercent Datacode = 11

	Low  Datacode = 14
	High Datacode = 16

	LastPrice Datacode = 21

	Bid     Datacode = 22
	Ask     Datacode = 25
	BidSize Datacode = 30
	AskSize Datacode = 31

	High52Week Datacode = 24
	Low52Week  Datacode = 26
	MarketCap  Datacode = 27

	Volume            Datacode = 35
	AvgDailyVol3Month Datacode = 39

	Beta           Datacode = 67
	EPS            Datacode = 68
	PERatio        Datacode = 69
	Div            Datacode = 70
	DivYield       Datacode = 71
	ExDivDate      Datacode = 72
	PayoutRatio    Datacode = 73
	ExpiryDate     Datacode = 74
	SharesOut      Datacode = 75
	FreeFloat      Datacode = 76
	SettlementDate Datacode = 77

	Close    Datacode = 90
	AdjClose Datacode = 91

	Sector   Datacode = 98
	Industry Datacode = 99

	Ticker   Datacode = 101
	Exchange Datacode = 102
	Currency Datacode = 103
	Name     Datacode = 104
	Timezone Datacode = 105

	Timestamp Datacode = 999
)

var datacodeNames = map[Datacode]string{
	PrevClose:         "PREV_CLOSE",
	Open:              "OPEN",
	Change:            "CHANGE",
	LastPriceDate:     "LAST_PRICE_DATE",
	LastPriceTime:     "LAST_PRICE_TIME",
	ChangeInPercent:   "CHANGE_IN_PERCENT",
	Low:               "LOW",
	High:              "HIGH",
	LastPrice:         "LAST_PRICE",
	Bid:               "BID",
	Ask:               "ASK",
	BidSize:           "BIDSIZE",
	AskSize:           "ASKSIZE",
	High52Week:        "HIGH_52_WEEK",
	Low52Week:         "LOW_52_WEEK",
	MarketCap:         "MARKET_CAP",
	Volume:            "VOLUME",
	AvgDailyVol3Month: "AVG_DAILY_VOL_3MONTH",
	Beta:              "BETA",
	EPS:               "EPS",
	PERatio:           "PE_RATIO",
	Div:               "DIV",
	DivYield:          "DIV_YIELD",
	ExDivDate:         "EX_DIV_DATE",
	PayoutRatio:       "PAYOUT_RATIO",
	ExpiryDate:        "EXPIRY_DATE",
	SharesOut:         "SHARES_OUT",
	FreeFloat:         "FREE_FLOAT",
	SettlementDate:    "SETTLEMENT_DATE",
	Close:             "CLOSE",
	AdjClose:          "ADJ_CLOSE",
	Sector:            "SECTOR",
	Industry:          "INDUSTRY",
	Ticker:            "TICKER",
	Exchange:          "EXCHANGE",
	Currency:          "CURRENCY",
	Name:              "NAME",
	Timezone:          "TIMEZONE",
	Timestamp:         "TIMESTAMP",
}

var datacodeByName = func() map[string]Datacode {
	m := make(map[string]Datacode, len(datacodeNames))
	for dc, name := range datacodeNames {
		m[name] = dc
	}
	return m
}()

func (dc Datacode) Valid() bool {
	_, ok := datacodeNames[dc]
	return ok
}

func (dc Datacode) String() string {
	if name, ok := datacodeNames[dc]; ok {
		return name
	}
	return strconv.Itoa(int(dc))
}

// ParseDatacode resolves a raw numeric code ("21", 21, 21.0) or a symbolic
// name ("LAST_PRICE", case-insensitive) to a Datacode. Resolving a number
// outside the schema or an unknown name is an error.
func ParseDatacode(v any) (Datacode, error) {
	var s string
	switch x := v.(type) {
	case Datacode:
		s = strconv.Itoa(int(x))
	case int:
		s = strconv.Itoa(x)
	case int64:
		s = strconv.FormatInt(x, 10)
	case float64:
		s = strconv.Itoa(int(x))
	case string:
		s = x
	default:
		s = fmt.Sprintf("%v", v)
	}

	s = strings.TrimSpace(s)

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		dc := Datacode(int(f))
		if !dc.Valid() {
			return 0, fmt.Errorf("Datacode %d not supported", int(f))
		}
		return dc, nil
	}

	if dc, ok := datacodeByName[strings.ToUpper(s)]; ok {
		return dc, nil
	}

	return 0, fmt.Errorf("Datacode '%s' is invalid", s)
}
