package service

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	localCache "financials/cache"
	"financials/client"
	"financials/config"
	"financials/model"
	"financials/storage"
	"financials/util"
)

// GoogleService scrapes the <meta itemprop> microdata from Google Finance
// quote pages. No downloadable history.
type GoogleService struct {
	cfg    *config.ConfigManager
	client *client.BaseClient
	store  *storage.Store
}

func NewGoogleService(cfg *config.ConfigManager, c *client.BaseClient, store *storage.Store) *GoogleService {
	return &GoogleService{cfg: cfg, client: c, store: store}
}

func (s *GoogleService) GetRealtime(ticker string, datacode model.Datacode) any {
	ticker = normalizeTicker(ticker)

	if tick, found := localCache.GetTick(localCache.GoogleRealtimeCache, ticker); found {
		return returnValue(tick, datacode)
	}

	cfg := s.cfg.GetConfig()
	pageURL := fmt.Sprintf("%s/finance?q=%s", cfg.GoogleURL, url.QueryEscape(ticker))

	text, err := s.client.FetchText(context.Background(), pageURL, nil)
	if err != nil {
		log.Error().Err(err).Str("ticker", ticker).Msg("google quote page fetch failed")
		return fmt.Sprintf("Google.getRealtime('%s', %d) - read: %v", ticker, int(datacode), err)
	}

	s.store.SaveSnapshot("google", ticker, ".html", pageURL, text)

	doc, derr := goquery.NewDocumentFromReader(strings.NewReader(text))
	if derr != nil {
		return fmt.Sprintf("Google.getRealtime(%s, %d) - process: %v", ticker, int(datacode), derr)
	}

	metas := doc.Find("meta[itemprop]")
	if metas.Length() == 0 {
		return fmt.Sprintf("Data for '%s' not found", ticker)
	}

	tick := &model.Tick{FetchedAt: time.Now()}

	metas.Each(func(_ int, sel *goquery.Selection) {
		key, _ := sel.Attr("itemprop")
		value, _ := sel.Attr("content")

		switch key {
		case "exchangeTimezone":
			tick.Timezone = sptr(value)
		case "priceChange":
			if f, ferr := util.ParseFloat(value); ferr == nil {
				tick.Change = fptr(f)
			}
		case "quoteTime":
			if dt, terr := time.Parse("2006-01-02T15:04:05Z", value); terr == nil {
				tick.LastPriceDate = &dt
				tick.LastPriceTime = &dt
			}
		case "priceChangePercent":
			if f, ferr := util.ParseFloat(value); ferr == nil {
				tick.ChangeInPercent = fptr(f)
			}
		case "price":
			if f, ferr := util.ParseFloat(value); ferr == nil {
				tick.LastPrice = fptr(f)
			}
		case "priceCurrency":
			tick.Currency = sptr(value)
		case "exchange":
			tick.Exchange = sptr(value)
		case "name":
			tick.Name = sptr(html.UnescapeString(value))
		case "tickerSymbol":
			tick.Ticker = sptr(value)
		default:
			log.Info().Str("key", key).Str("value", value).Msg("ignored meta itemprop")
		}
	})

	// currency crosses report exchange=CURRENCY and no priceCurrency
	if tick.Exchange != nil && *tick.Exchange == "CURRENCY" && tick.Currency == nil {
		tick.Currency = sptr("")
	}

	localCache.SetTick(localCache.GoogleRealtimeCache, ticker, tick, cfg.RealtimeTTL)

	return returnValue(tick, datacode)
}

func (s *GoogleService) GetHistoric(ticker string, datacode model.Datacode, date string) any {
	return "Google.getHistoric: Historic Data not implemented."
}
