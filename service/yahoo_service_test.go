package service

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	localCache "financials/cache"
	"financials/client"
	"financials/config"
	"financials/model"
	"financials/storage"
)

const yahooStoresJSON = `{` +
	`"CrumbStore":{"crumb":"AbCdEfGhIjK"},` +
	`"QuoteSummaryStore":{` +
	`"price":{` +
	`"regularMarketPreviousClose":{"raw":165.92,"fmt":"165.92"},` +
	`"regularMarketOpen":{"raw":166.0,"fmt":"166.00"},` +
	`"regularMarketChange":{"raw":2.19,"fmt":"2.19"},` +
	`"regularMarketChangePercent":{"raw":0.0133,"fmt":"1.33%"},` +
	`"regularMarketDayLow":{"raw":165.5,"fmt":"165.50"},` +
	`"regularMarketDayHigh":{"raw":168.0,"fmt":"168.00"},` +
	`"regularMarketPrice":{"raw":167.19,"fmt":"167.19"},` +
	`"regularMarketVolume":{"raw":2934300,"fmt":"2.93M"},` +
	`"averageDailyVolume3Month":{"raw":4200000,"fmt":"4.2M"},` +
	`"regularMarketTime":1483462800,` +
	`"symbol":"IBM","exchange":"NYQ","currency":"USD",` +
	`"longName":"International Business Machines Corporation","shortName":"IBM"},` +
	`"summaryDetail":{` +
	`"beta":{"raw":0.85},"trailingPE":{"raw":22.1},` +
	`"dividendRate":{"raw":5.6},"dividendYield":{"raw":0.0337},` +
	`"exDividendDate":{"raw":1478563200,"fmt":"2016-11-08"},` +
	`"payoutRatio":{"raw":0.74},` +
	`"fiftyTwoWeekLow":{"raw":116.9},"fiftyTwoWeekHigh":{"raw":169.95},` +
	`"marketCap":{"raw":158818205696},` +
	`"bid":{"raw":167.1},"ask":{"raw":167.3},` +
	`"bidSize":{"raw":900},"askSize":{"raw":800}},` +
	`"defaultKeyStatistics":{` +
	`"trailingEps":{"raw":12.38},` +
	`"sharesOutstanding":{"raw":945733120},"floatShares":{"raw":944919526}},` +
	`"quoteType":{"exchangeTimezoneName":"America/New_York"},` +
	`"summaryProfile":{"sector":"Technology","industry":"Information Technology Services"}` +
	`}}`

const yahooQuotePage = `<html><head><title>IBM</title></head><body>
<script>root.App.main = {"context":{"dispatcher":{"stores":` + yahooStoresJSON + `}}};</script>
</body></html>`

const yahooDailyCSV = `Date,Open,High,Low,Close,Adj Close,Volume
2016-12-29,166.02,166.99,165.50,166.60,158.30,1663500
2016-12-30,166.44,166.70,165.50,165.99,157.72,2952800
2017-01-03,167.00,167.87,166.01,167.19,158.86,2934300
2017-01-04,167.77,169.87,167.36,169.26,160.82,3381400
`

func newYahooTestService(t *testing.T, srvURL string) *YahooService {
	t.Helper()
	localCache.YahooRealtimeCache.Flush()

	cfg := config.NewConfigManager(&config.Config{
		CacheDir:         t.TempDir(),
		HTTPTimeout:      5 * time.Second,
		RealtimeTTL:      time.Minute,
		MaxRedirects:     5,
		ScrapeRate:       1000,
		ScrapeBurst:      1000,
		YahooQuoteURL:    srvURL,
		YahooDownloadURL: srvURL,
	})

	store, err := storage.NewStore(cfg.GetConfig().CacheDir)
	require.NoError(t, err)

	return NewYahooService(cfg, client.NewBaseClient(cfg.GetConfig()), store)
}

func newYahooFixtureServer(t *testing.T, quoteHits, downloadHits *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/quote/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(quoteHits, 1)
		w.Write([]byte(yahooQuotePage))
	})
	mux.HandleFunc("/v7/finance/download/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(downloadHits, 1)
		if r.URL.Query().Get("crumb") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(yahooDailyCSV))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestYahooGetRealtime(t *testing.T) {
	var quoteHits, downloadHits int32
	srv := newYahooFixtureServer(t, &quoteHits, &downloadHits)
	s := newYahooTestService(t, srv.URL)

	assert.Equal(t, 167.19, s.GetRealtime("IBM", model.LastPrice))
	assert.Equal(t, 165.92, s.GetRealtime("IBM", model.PrevClose))
	assert.Equal(t, "USD", s.GetRealtime("IBM", model.Currency))
	assert.Equal(t, "NYQ", s.GetRealtime("IBM", model.Exchange))
	assert.Equal(t, "International Business Machines Corporation", s.GetRealtime("IBM", model.Name))
	assert.Equal(t, "Technology", s.GetRealtime("IBM", model.Sector))
	assert.Equal(t, "2016-11-08", s.GetRealtime("IBM", model.ExDivDate))

	pct, ok := s.GetRealtime("IBM", model.ChangeInPercent).(float64)
	require.True(t, ok)
	assert.InDelta(t, 1.33, pct, 1e-6)

	// 1483462800 is 2017-01-03 12:00 in New York
	assert.Equal(t, "2017-01-03", s.GetRealtime("IBM", model.LastPriceDate))
	assert.Equal(t, "12:00:00", s.GetRealtime("IBM", model.LastPriceTime))
	assert.Equal(t, "America/New_York", s.GetRealtime("IBM", model.Timezone))

	// everything after the first call was served from the cache
	assert.Equal(t, int32(1), atomic.LoadInt32(&quoteHits))

	// the page fetch captured the crumb for later history downloads
	assert.Equal(t, "AbCdEfGhIjK", s.Crumb())
}

func TestYahooGetRealtimeNormalizesTicker(t *testing.T) {
	var quoteHits, downloadHits int32
	srv := newYahooFixtureServer(t, &quoteHits, &downloadHits)
	s := newYahooTestService(t, srv.URL)

	assert.Equal(t, 167.19, s.GetRealtime(" I B M ", model.LastPrice))
	assert.Equal(t, 167.19, s.GetRealtime("IBM", model.LastPrice))
	assert.Equal(t, int32(1), atomic.LoadInt32(&quoteHits))
}

func TestYahooRealtimeCacheExpiry(t *testing.T) {
	var quoteHits, downloadHits int32
	srv := newYahooFixtureServer(t, &quoteHits, &downloadHits)
	s := newYahooTestService(t, srv.URL)

	cfg := *s.cfg.GetConfig()
	cfg.RealtimeTTL = 20 * time.Millisecond
	s.cfg.UpdateConfig(&cfg)

	assert.Equal(t, 167.19, s.GetRealtime("IBM", model.LastPrice))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 167.19, s.GetRealtime("IBM", model.LastPrice))

	assert.Equal(t, int32(2), atomic.LoadInt32(&quoteHits))
}

func TestYahooGetRealtimeEscapedCrumb(t *testing.T) {
	page := `<script>{"CrumbStore":{"crumb":"AbCd/GhIjKl"},"QuoteSummaryStore":{}}</script>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()
	s := newYahooTestService(t, srv.URL)

	s.GetRealtime("CRUMBED", model.LastPrice)
	assert.Equal(t, "AbCd/GhIjKl", s.Crumb())
}

func TestYahooGetRealtimeNoStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>consent wall</body></html>"))
	}))
	defer srv.Close()
	s := newYahooTestService(t, srv.URL)

	assert.Nil(t, s.GetRealtime("WALLED", model.LastPrice))
}

func TestYahooGetRealtimeNoPriceBlock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<script>{"QuoteSummaryStore":{"summaryDetail":{"beta":{"raw":1.0}}}}</script>`))
	}))
	defer srv.Close()
	s := newYahooTestService(t, srv.URL)

	result := s.GetRealtime("NOPRICE", model.LastPrice)
	assert.Equal(t, "Could not find price for 'NOPRICE'", result)
}

func TestYahooGetRealtimeFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	s := newYahooTestService(t, srv.URL)

	result := s.GetRealtime("DOWN", model.LastPrice)
	str, ok := result.(string)
	require.True(t, ok)
	assert.Contains(t, str, "Yahoo.getRealtime(DOWN, 21) - urlopen:")
}

func TestYahooGetHistoric(t *testing.T) {
	var quoteHits, downloadHits int32
	srv := newYahooFixtureServer(t, &quoteHits, &downloadHits)
	s := newYahooTestService(t, srv.URL)

	// first call bootstraps the crumb from the quote page, then downloads
	assert.Equal(t, 167.19, s.GetHistoric("IBM", model.Close, "2017-01-03"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&quoteHits))
	assert.Equal(t, int32(1), atomic.LoadInt32(&downloadHits))

	// nearby dates resolve from the cached series
	assert.Equal(t, 166.60, s.GetHistoric("IBM", model.Close, "2016-12-29"))
	assert.Equal(t, 169.87, s.GetHistoric("IBM", model.High, "2017-01-04"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&downloadHits))
}

func TestYahooGetHistoricDateClassification(t *testing.T) {
	var quoteHits, downloadHits int32
	srv := newYahooFixtureServer(t, &quoteHits, &downloadHits)
	s := newYahooTestService(t, srv.URL)

	require.Equal(t, 167.19, s.GetHistoric("IBM", model.Close, "2017-01-03"))
	require.Equal(t, int32(1), atomic.LoadInt32(&downloadHits))

	// a weekend inside the fetched range
	assert.Equal(t, "Not a trading day '2017-01-01'", s.GetHistoric("IBM", model.Close, "2017-01-01"))

	// beyond the range but in the future - refused without a fetch
	assert.Equal(t, "Future date '2999-01-01'", s.GetHistoric("IBM", model.Close, "2999-01-01"))

	// Yahoo's download endpoint has no data this old
	assert.Equal(t, "Date before 2000 '1999-12-31'", s.GetHistoric("IBM", model.Close, "1999-12-31"))

	assert.Equal(t, int32(1), atomic.LoadInt32(&downloadHits))
}

func TestYahooGetHistoricAdjCloseRefetches(t *testing.T) {
	var quoteHits, downloadHits int32
	srv := newYahooFixtureServer(t, &quoteHits, &downloadHits)
	s := newYahooTestService(t, srv.URL)

	require.Equal(t, 167.19, s.GetHistoric("IBM", model.Close, "2017-01-03"))
	require.Equal(t, int32(1), atomic.LoadInt32(&downloadHits))

	// adjusted prices change retroactively, so the cached series is dropped
	assert.Equal(t, 158.86, s.GetHistoric("IBM", model.AdjClose, "2017-01-03"))
	assert.Equal(t, int32(2), atomic.LoadInt32(&downloadHits))
}

func TestYahooGetHistoricBadDate(t *testing.T) {
	var quoteHits, downloadHits int32
	srv := newYahooFixtureServer(t, &quoteHits, &downloadHits)
	s := newYahooTestService(t, srv.URL)

	result := s.GetHistoric("IBM", model.Close, "bogus")
	str, ok := result.(string)
	require.True(t, ok)
	assert.Contains(t, str, "Yahoo.getHistoric(IBM, 90, bogus) - date:")
	assert.Equal(t, int32(0), atomic.LoadInt32(&downloadHits))
}

func TestYahooGetHistoricDownloadRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/quote/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(yahooQuotePage))
	})
	mux.HandleFunc("/v7/finance/download/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	s := newYahooTestService(t, srv.URL)

	// an HTTP error from the download endpoint yields an empty cell, not a
	// message string
	assert.Nil(t, s.GetHistoric("IBM", model.Close, "2017-01-03"))
}

func TestYahooHistoricSeriesSurvivesRestart(t *testing.T) {
	var quoteHits, downloadHits int32
	srv := newYahooFixtureServer(t, &quoteHits, &downloadHits)
	s := newYahooTestService(t, srv.URL)

	require.Equal(t, 167.19, s.GetHistoric("IBM", model.Close, "2017-01-03"))
	require.Equal(t, int32(1), atomic.LoadInt32(&downloadHits))

	// a fresh service over the same cache dir reads the persisted CSV back
	s2 := NewYahooService(s.cfg, client.NewBaseClient(s.cfg.GetConfig()), s.store)
	assert.Equal(t, 167.19, s2.GetHistoric("IBM", model.Close, "2017-01-03"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&downloadHits))
}
