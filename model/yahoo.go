package model

import "github.com/mitchellh/mapstructure"

// YahooCell is the {"raw": 167.19, "fmt": "167.19"} value cell used all over
// Yahoo's QuoteSummaryStore blocks. Raw stays nil when the cell is missing or
// empty so extraction can tell "absent" from zero.
type YahooCell struct {
	Raw *float64 `mapstructure:"raw"`
	Fmt string   `mapstructure:"fmt"`
}

func (c YahooCell) Float() (float64, bool) {
	if c.Raw == nil {
		return 0, false
	}
	return *c.Raw, true
}

// YahooPrice is the "price" block of the QuoteSummaryStore.
type YahooPrice struct {
	RegularMarketPreviousClose YahooCell `mapstructure:"regularMarketPreviousClose"`
	RegularMarketOpen          YahooCell `mapstructure:"regularMarketOpen"`
	RegularMarketChange        YahooCell `mapstructure:"regularMarketChange"`
	RegularMarketChangePercent YahooCell `mapstructure:"regularMarketChangePercent"`
	RegularMarketDayLow        YahooCell `mapstructure:"regularMarketDayLow"`
	RegularMarketDayHigh       YahooCell `mapstructure:"regularMarketDayHigh"`
	RegularMarketPrice         YahooCell `mapstructure:"regularMarketPrice"`
	RegularMarketVolume        YahooCell `mapstructure:"regularMarketVolume"`
	AverageDailyVolume3Month   YahooCell `mapstructure:"averageDailyVolume3Month"`
	RegularMarketTime          int64     `mapstructure:"regularMarketTime"`
	Symbol                     string    `mapstructure:"symbol"`
	Exchange                   string    `mapstructure:"exchange"`
	Currency                   string    `mapstructure:"currency"`
	LongName                   string    `mapstructure:"longName"`
	ShortName                  string    `mapstructure:"shortName"`
}

// YahooSummaryDetail is the "summaryDetail" block.
type YahooSummaryDetail struct {
	Beta             YahooCell `mapstructure:"beta"`
	TrailingPE       YahooCell `mapstructure:"trailingPE"`
	DividendRate     YahooCell `mapstructure:"dividendRate"`
	DividendYield    YahooCell `mapstructure:"dividendYield"`
	Yield            YahooCell `mapstructure:"yield"`
	ExDividendDate   YahooCell `mapstructure:"exDividendDate"`
	PayoutRatio      YahooCell `mapstructure:"payoutRatio"`
	FiftyTwoWeekLow  YahooCell `mapstructure:"fiftyTwoWeekLow"`
	FiftyTwoWeekHigh YahooCell `mapstructure:"fiftyTwoWeekHigh"`
	MarketCap        YahooCell `mapstructure:"marketCap"`
	Bid              YahooCell `mapstructure:"bid"`
	Ask              YahooCell `mapstructure:"ask"`
	BidSize          YahooCell `mapstructure:"bidSize"`
	AskSize          YahooCell `mapstructure:"askSize"`
	ExpireDate       YahooCell `mapstructure:"expireDate"`
}

// YahooKeyStatistics is the "defaultKeyStatistics" block.
type YahooKeyStatistics struct {
	TrailingEps       YahooCell `mapstructure:"trailingEps"`
	SharesOutstanding YahooCell `mapstructure:"sharesOutstanding"`
	FloatShares       YahooCell `mapstructure:"floatShares"`
}

// YahooQuoteType is the "quoteType" block.
type YahooQuoteType struct {
	ExchangeTimezoneName string `mapstructure:"exchangeTimezoneName"`
}

// YahooProfile is the "summaryProfile" block.
type YahooProfile struct {
	Sector   string `mapstructure:"sector"`
	Industry string `mapstructure:"industry"`
}

// YahooQuoteSummary is the subset of the QuoteSummaryStore the adapter reads.
type YahooQuoteSummary struct {
	Price          *YahooPrice         `mapstructure:"price"`
	SummaryDetail  *YahooSummaryDetail `mapstructure:"summaryDetail"`
	KeyStatistics  *YahooKeyStatistics `mapstructure:"defaultKeyStatistics"`
	QuoteType      *YahooQuoteType     `mapstructure:"quoteType"`
	SummaryProfile *YahooProfile       `mapstructure:"summaryProfile"`
}

// DecodeYahooQuoteSummary maps the loosely typed QuoteSummaryStore JSON onto
// the typed blocks above. Weak typing tolerates ints arriving as floats and
// numeric strings in the wild payload.
func DecodeYahooQuoteSummary(raw map[string]any) (*YahooQuoteSummary, error) {
	var out YahooQuoteSummary
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, err
	}
	return &out, nil
}

// CoinbaseStats is the product stats JSON from the Coinbase exchange API.
type CoinbaseStats struct {
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Last   string `json:"last"`
	Volume string `json:"volume"`
}
