package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	localCache "financials/cache"
	"financials/client"
	"financials/config"
	"financials/customerrors"
	"financials/model"
	"financials/storage"
	"financials/util"
)

var (
	crumbPattern    = regexp.MustCompile(`"CrumbStore":\{"crumb":"([^"]{11})"`)
	currencyPattern = regexp.MustCompile(`Currency in ([A-Z]{3})\b`)
)

// consent/geo gating cookies sent with the quote page request. Static
// configuration data; resynchronize against the live site when Yahoo rotates
// its consent flow.
func yahooConsentCookies() []*http.Cookie {
	names := map[string]string{
		"B":         "9898htldgiar5&b=3&s=gt",
		"EuConsent": "CPZ7-cAPZ7-cAAOACBENCRCoAP_AAH_AACiQ",
		"GUCS":      "AR0nzQVM",
		"maex":      "%7B%22v2%22%3A%7B%7D%7D",
	}
	cookies := make([]*http.Cookie, 0, len(names))
	for name, value := range names {
		cookies = append(cookies, &http.Cookie{
			Name:   name,
			Value:  value,
			Domain: ".yahoo.com",
			Path:   "/",
			Secure: true,
		})
	}
	return cookies
}

// YahooService scrapes finance.yahoo.com quote pages for realtime data and
// uses the v7 download endpoint (authorized by the page's crumb token) for
// daily history. History is durably cached as CSV per ticker.
type YahooService struct {
	cfg    *config.ConfigManager
	client *client.BaseClient
	store  *storage.Store

	crumbMu sync.Mutex
	crumb   string

	histMu   sync.Mutex
	historic map[string]model.HistoricSeries
}

func NewYahooService(cfg *config.ConfigManager, c *client.BaseClient, store *storage.Store) *YahooService {
	return &YahooService{
		cfg:      cfg,
		client:   c,
		store:    store,
		historic: make(map[string]model.HistoricSeries),
	}
}

func (s *YahooService) Crumb() string {
	s.crumbMu.Lock()
	defer s.crumbMu.Unlock()
	return s.crumb
}

func (s *YahooService) setCrumb(crumb string) {
	s.crumbMu.Lock()
	s.crumb = crumb
	s.crumbMu.Unlock()
}

func (s *YahooService) GetRealtime(ticker string, datacode model.Datacode) any {
	ticker = normalizeTicker(ticker)

	if tick, found := localCache.GetTick(localCache.YahooRealtimeCache, ticker); found {
		return returnValue(tick, datacode)
	}

	cfg := s.cfg.GetConfig()
	pageURL := fmt.Sprintf("%s/quote/%s?p=%s", cfg.YahooQuoteURL, url.PathEscape(ticker), url.QueryEscape(ticker))

	text, err := s.client.FetchText(context.Background(), pageURL, &client.RequestOptions{
		Cookies: yahooConsentCookies(),
	})
	if err != nil {
		log.Error().Err(err).Str("ticker", ticker).Msg("yahoo quote page fetch failed")
		return fmt.Sprintf("Yahoo.getRealtime(%s, %d) - urlopen: %v", ticker, int(datacode), err)
	}

	s.store.SaveSnapshot("yahoo", ticker, ".html", pageURL, text)

	// the page escapes slashes inside the embedded JSON
	if unquoted, uerr := url.QueryUnescape(text); uerr == nil {
		text = unquoted
	}
	text = strings.ReplaceAll(text, "\\u002F", "/")

	if match := crumbPattern.FindStringSubmatch(text); match != nil {
		s.setCrumb(match[1])
	}

	summary, perr := parseQuoteSummary(text)
	if perr != nil {
		log.Error().Err(perr).Str("ticker", ticker).Msg("yahoo quote summary parse failed")
		return fmt.Sprintf("Yahoo.getRealtime(%s, %d) - parsing: %v", ticker, int(datacode), perr)
	}
	if summary == nil {
		return nil
	}

	if summary.Price == nil {
		return fmt.Sprintf("Could not find price for '%s'", ticker)
	}

	tick, perr := s.buildTick(text, summary)
	if perr != nil {
		return fmt.Sprintf("Yahoo.getRealtime(%s, %d) - process: %v", ticker, int(datacode), perr)
	}

	localCache.SetTick(localCache.YahooRealtimeCache, ticker, tick, cfg.RealtimeTTL)

	return returnValue(tick, datacode)
}

// parseQuoteSummary pulls the QuoteSummaryStore object out of the page.
// Missing store (e.g. a consent interstitial body) is not an error, just no
// data.
func parseQuoteSummary(text string) (*model.YahooQuoteSummary, error) {
	const marker = `"QuoteSummaryStore":`

	start := strings.Index(text, marker)
	if start < 0 {
		return nil, nil
	}

	dec := json.NewDecoder(strings.NewReader(text[start+len(marker):]))
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	return model.DecodeYahooQuoteSummary(raw)
}

// buildTick populates a tick record from the parsed store. Each field is
// extracted independently; one missing field never aborts the rest. A panic
// while processing discards the record.
func (s *YahooService) buildTick(text string, summary *model.YahooQuoteSummary) (tick *model.Tick, err error) {
	defer func() {
		if r := recover(); r != nil {
			tick = nil
			err = fmt.Errorf("%v", r)
		}
	}()

	price := summary.Price

	detail := summary.SummaryDetail
	if detail == nil {
		detail = &model.YahooSummaryDetail{}
	}
	stats := summary.KeyStatistics
	if stats == nil {
		stats = &model.YahooKeyStatistics{}
	}

	tick = &model.Tick{FetchedAt: time.Now()}

	tick.PrevClose = cellPtr(price.RegularMarketPreviousClose)
	tick.Open = cellPtr(price.RegularMarketOpen)
	tick.Change = cellPtr(price.RegularMarketChange)
	if v, ok := price.RegularMarketChangePercent.Float(); ok {
		tick.ChangeInPercent = fptr(100 * v)
	}
	tick.Low = cellPtr(price.RegularMarketDayLow)
	tick.High = cellPtr(price.RegularMarketDayHigh)
	tick.LastPrice = cellPtr(price.RegularMarketPrice)
	tick.Volume = cellPtr(price.RegularMarketVolume)
	tick.AvgDailyVol3Month = cellPtr(price.AverageDailyVolume3Month)

	tick.Beta = cellPtr(detail.Beta)
	tick.EPS = cellPtr(stats.TrailingEps)
	tick.PERatio = cellPtr(detail.TrailingPE)
	tick.Div = cellPtr(detail.DividendRate)
	tick.DivYield = cellPtr(detail.DividendYield)
	// yield on US mutual funds and ETFs is in a different field
	if tick.DivYield == nil {
		tick.DivYield = cellPtr(detail.Yield)
	}
	if detail.ExDividendDate.Fmt != "" {
		if d, derr := util.ParseDate(detail.ExDividendDate.Fmt); derr == nil {
			tick.ExDivDate = &d
		}
	}
	tick.PayoutRatio = cellPtr(detail.PayoutRatio)
	if detail.ExpireDate.Fmt != "" {
		if d, derr := util.ParseDate(detail.ExpireDate.Fmt); derr == nil {
			tick.ExpiryDate = &d
		}
	}
	tick.SharesOut = cellPtr(stats.SharesOutstanding)
	tick.FreeFloat = cellPtr(stats.FloatShares)

	tick.Low52Week = cellPtr(detail.FiftyTwoWeekLow)
	tick.High52Week = cellPtr(detail.FiftyTwoWeekHigh)
	tick.MarketCap = cellPtr(detail.MarketCap)

	tick.Bid = cellPtr(detail.Bid)
	tick.Ask = cellPtr(detail.Ask)
	tick.BidSize = cellPtr(detail.BidSize)
	tick.AskSize = cellPtr(detail.AskSize)

	if summary.QuoteType != nil && summary.QuoteType.ExchangeTimezoneName != "" && price.RegularMarketTime > 0 {
		tzName := summary.QuoteType.ExchangeTimezoneName
		tick.Timezone = sptr(tzName)
		if loc, lerr := time.LoadLocation(tzName); lerr == nil {
			dt := time.Unix(price.RegularMarketTime, 0).In(loc)
			tick.LastPriceDate = &dt
			tick.LastPriceTime = &dt
		}
	}

	if price.Symbol != "" {
		tick.Ticker = sptr(price.Symbol)
	}
	if price.Exchange != "" {
		tick.Exchange = sptr(price.Exchange)
	}
	if price.Currency != "" {
		tick.Currency = sptr(price.Currency)
	}

	// some Moscow symbols miss currency in the data block but show it in text
	if tick.Currency == nil {
		if match := currencyPattern.FindStringSubmatch(text); match != nil {
			tick.Currency = sptr(match[1])
		}
	}

	name := price.LongName
	if name == "" {
		name = price.ShortName
	}
	if name != "" {
		tick.Name = sptr(html.UnescapeString(name))
	} else {
		tick.Name = tick.Ticker
	}

	if summary.SummaryProfile != nil {
		if summary.SummaryProfile.Sector != "" {
			tick.Sector = sptr(summary.SummaryProfile.Sector)
		}
		if summary.SummaryProfile.Industry != "" {
			tick.Industry = sptr(summary.SummaryProfile.Industry)
		}
	}

	return tick, nil
}

func (s *YahooService) GetHistoric(ticker string, datacode model.Datacode, date string) any {
	ticker = normalizeTicker(ticker)

	dateT, derr := util.ParseDate(date)
	if derr != nil {
		return fmt.Sprintf("Yahoo.getHistoric(%s, %d, %s) - date: %v", ticker, int(datacode), date, derr)
	}

	s.histMu.Lock()

	// dividends and splits retroactively change adjusted prices, so a
	// request for ADJ_CLOSE always drops the ticker's cache and refetches
	if datacode == model.AdjClose {
		delete(s.historic, ticker)
	} else if _, ok := s.historic[ticker]; !ok {
		if series, lerr := s.store.LoadHistoricSeries("yahoo", ticker); lerr == nil && series != nil {
			s.historic[ticker] = series
		}
	}

	var minTickDate int64

	if series, ok := s.historic[ticker]; ok {
		if tick, ok := series[date]; ok {
			s.histMu.Unlock()
			return returnValue(tick, datacode)
		}

		minDate, maxDate := series.MinDate(), series.MaxDate()

		// weekend, trading holiday or as yet un-fetched
		if minDate <= date && date <= maxDate {
			s.histMu.Unlock()
			return fmt.Sprintf("Not a trading day '%s'", date)
		}

		if date > maxDate {
			if dateT.Unix() > time.Now().Unix() {
				s.histMu.Unlock()
				return fmt.Sprintf("Future date '%s'", date)
			}
			if minT, merr := util.ParseDate(minDate); merr == nil {
				minTickDate = minT.Unix()
			}
		}
	}
	s.histMu.Unlock()

	if s.Crumb() == "" {
		// a realtime fetch captures the crumb as a side effect
		s.GetRealtime(ticker, datacode)
	}
	if s.Crumb() == "" {
		return fmt.Sprintf("Yahoo.getHistoric(%s, %d, %s) - crumb", ticker, int(datacode), date)
	}

	t1 := dateT.Unix()
	t2 := time.Now().Unix()

	if minTickDate != 0 {
		t1 = minTickDate
	}

	if t1 >= t2 {
		return fmt.Sprintf("Future date '%s'", date)
	}

	year2000, _ := util.ParseDate("2000-01-01")
	if t1 < year2000.Unix() {
		return fmt.Sprintf("Date before 2000 '%s'", date)
	}

	// pad with an extra month so nearby dates resolve from the same fetch
	t1 -= 2682000

	cfg := s.cfg.GetConfig()
	dlURL := fmt.Sprintf("%s/v7/finance/download/%s?period1=%d&period2=%d&interval=1d&events=history&crumb=%s",
		cfg.YahooDownloadURL, url.PathEscape(ticker), t1, t2, url.QueryEscape(s.Crumb()))

	text, err := s.client.FetchText(context.Background(), dlURL, nil)
	if err != nil {
		log.Error().Err(err).Str("ticker", ticker).Str("date", date).Msg("yahoo download failed")
		var httpErr customerrors.HttpError
		if errors.As(err, &httpErr) {
			return nil
		}
		return fmt.Sprintf("Yahoo.getHistoric(%s, %d, %s) - urlopen: %v", ticker, int(datacode), date, err)
	}

	if serr := s.store.SaveHistoricCSV("yahoo", ticker, text); serr != nil {
		log.Warn().Err(serr).Str("ticker", ticker).Msg("could not persist historic csv")
	}

	series, rerr := util.ReadHistoricCSV(strings.NewReader(text))
	if rerr != nil {
		return fmt.Sprintf("Yahoo.getHistoric(%s, %d, %s) - read: %v", ticker, int(datacode), date, rerr)
	}

	s.histMu.Lock()
	defer s.histMu.Unlock()

	s.historic[ticker] = series

	if len(series) == 0 {
		return nil
	}

	if tick, ok := series[date]; ok {
		return returnValue(tick, datacode)
	}

	if date > series.MaxDate() {
		return fmt.Sprintf("Future date '%s'", date)
	}

	// weekend or trading holiday
	return fmt.Sprintf("Not a trading day '%s'", date)
}
