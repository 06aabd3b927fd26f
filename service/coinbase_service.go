package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	localCache "financials/cache"
	"financials/client"
	"financials/config"
	"financials/model"
	"financials/storage"
	"financials/util"
)

// CoinbaseService reads the public exchange product stats JSON. Tickers are
// product ids like ETH-EUR; only a handful of fields are available.
type CoinbaseService struct {
	cfg    *config.ConfigManager
	client *client.BaseClient
	store  *storage.Store
}

func NewCoinbaseService(cfg *config.ConfigManager, c *client.BaseClient, store *storage.Store) *CoinbaseService {
	return &CoinbaseService{cfg: cfg, client: c, store: store}
}

func (s *CoinbaseService) GetRealtime(ticker string, datacode model.Datacode) any {
	ticker = normalizeTicker(ticker)

	if tick, found := localCache.GetTick(localCache.CoinbaseRealtimeCache, ticker); found {
		return returnValue(tick, datacode)
	}

	cfg := s.cfg.GetConfig()
	statsURL := fmt.Sprintf("%s/products/%s/stats", cfg.CoinbaseURL, ticker)

	text, err := s.client.FetchText(context.Background(), statsURL, nil)
	if err != nil {
		log.Error().Err(err).Str("ticker", ticker).Msg("coinbase stats fetch failed")
		return fmt.Sprintf("Coinbase.getRealtime(%s, %d) - urlopen: %v", ticker, int(datacode), err)
	}

	s.store.SaveSnapshot("coinbase", ticker, ".json", statsURL, text)

	var stats model.CoinbaseStats
	if jerr := json.Unmarshal([]byte(text), &stats); jerr != nil {
		return fmt.Sprintf("Coinbase.getRealtime(%s, %d) - parsing: %v", ticker, int(datacode), jerr)
	}

	if stats.Last == "" {
		return fmt.Sprintf("Could not find price for '%s'", ticker)
	}

	tick := &model.Tick{FetchedAt: time.Now()}

	setField := func(dst **float64, raw string) {
		if f, ferr := util.ParseFloat(raw); ferr == nil {
			*dst = &f
		}
	}

	setField(&tick.LastPrice, stats.Last)
	setField(&tick.Open, stats.Open)
	setField(&tick.High, stats.High)
	setField(&tick.Low, stats.Low)
	setField(&tick.Volume, stats.Volume)

	if base, quote, found := strings.Cut(ticker, "-"); found {
		tick.Ticker = sptr(base)
		tick.Currency = sptr(quote)
	} else {
		tick.Ticker = sptr(ticker)
	}

	localCache.SetTick(localCache.CoinbaseRealtimeCache, ticker, tick, cfg.RealtimeTTL)

	return returnValue(tick, datacode)
}

func (s *CoinbaseService) GetHistoric(ticker string, datacode model.Datacode, date string) any {
	return "Coinbase.getHistoric: Historic Data not implemented."
}
