package service

import (
	"context"
	"fmt"
	"regexp"
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

var (
	ftPricePattern  = regexp.MustCompile(`^Price \(([A-Z]+|--)\)$`)
	ftChangePattern = regexp.MustCompile(`(-?[0-9,\.]+)\s*/\s*(-?[0-9,\.]+)%`)
	ftRangePattern  = regexp.MustCompile(`([0-9,\.]+)\s*-\s*([0-9,\.]+)`)
	ftAsOfPattern   = regexp.MustCompile(`as of (.+?)\.?\s*$`)
)

// FTService scrapes markets.ft.com tearsheet pages. The tearsheet path
// depends on the asset class, which is guessed from the ticker's shape.
// No downloadable history.
type FTService struct {
	cfg    *config.ConfigManager
	client *client.BaseClient
	store  *storage.Store
}

func NewFTService(cfg *config.ConfigManager, c *client.BaseClient, store *storage.Store) *FTService {
	return &FTService{cfg: cfg, client: c, store: store}
}

func (s *FTService) GetRealtime(ticker string, datacode model.Datacode) any {
	ticker = normalizeTicker(ticker)

	if tick, found := localCache.GetTick(localCache.FTRealtimeCache, ticker); found {
		return returnValue(tick, datacode)
	}

	cfg := s.cfg.GetConfig()
	pageURL := fmt.Sprintf("%s/data/%s/tearsheet/summary?s=%s", cfg.FTURL, guessAssetClass(ticker), ticker)

	text, err := s.client.FetchText(context.Background(), pageURL, nil)
	if err != nil {
		log.Error().Err(err).Str("ticker", ticker).Msg("ft tearsheet fetch failed")
		return fmt.Sprintf("FT.getRealtime(%s, %d) - urlopen endpoint: %v", ticker, int(datacode), err)
	}

	s.store.SaveSnapshot("ft", ticker, ".html", s.client.LastURL(), text)

	doc, derr := goquery.NewDocumentFromReader(strings.NewReader(text))
	if derr != nil {
		return fmt.Sprintf("FT.getRealtime(%s, %d) - process: %v", ticker, int(datacode), derr)
	}

	tick, perr := extractFTTick(doc)
	if perr != nil {
		log.Error().Err(perr).Str("ticker", ticker).Msg("ft extraction failed")
		return fmt.Sprintf("FT.getRealtime(%s, %d) - process: %v", ticker, int(datacode), perr)
	}
	if tick == nil {
		return nil
	}

	localCache.SetTick(localCache.FTRealtimeCache, ticker, tick, cfg.RealtimeTTL)

	return returnValue(tick, datacode)
}

func (s *FTService) GetHistoric(ticker string, datacode model.Datacode, date string) any {
	return "FT.getHistoric: Historic Data not implemented."
}

// extractFTTick pulls each field independently; any one may be missing
// without affecting the others. A page without the overview header carries
// no quote at all.
func extractFTTick(doc *goquery.Document) (tick *model.Tick, err error) {
	defer func() {
		if r := recover(); r != nil {
			tick = nil
			err = fmt.Errorf("%v", r)
		}
	}()

	name := strings.TrimSpace(doc.Find("h1.mod-tearsheet-overview__header__name").First().Text())
	if name == "" {
		return nil, nil
	}

	tick = &model.Tick{FetchedAt: time.Now()}
	tick.Name = sptr(name)

	if symbol := strings.TrimSpace(doc.Find("div.mod-tearsheet-overview__header__symbol span").First().Text()); symbol != "" {
		tick.Ticker = sptr(symbol)
	}

	extractFTSectorIndustry(doc, tick)

	if groups, value := findSpanPair(doc, ftPricePattern); groups != nil {
		if groups[1] != "--" {
			tick.Currency = sptr(groups[1])
		}
		if f, ferr := util.ParseFloat(value); ferr == nil {
			tick.LastPrice = fptr(f)
		}
	}

	if value := spanPairValue(doc, "Today's Change"); value != "" {
		if m := ftChangePattern.FindStringSubmatch(value); m != nil {
			if f, ferr := util.ParseFloat(m[1]); ferr == nil {
				tick.Change = fptr(f)
			}
			if f, ferr := util.ParseFloat(m[2]); ferr == nil {
				tick.ChangeInPercent = fptr(f)
			}
		}
	}

	if value := spanPairValue(doc, "Shares traded"); value != "" {
		if f, ferr := util.ParseAbbreviated(value); ferr == nil {
			tick.Volume = fptr(f)
		}
	}

	if value := spanPairValue(doc, "Beta"); value != "" {
		if f, ferr := util.ParseAbbreviated(value); ferr == nil {
			tick.Beta = fptr(f)
		}
	}

	if value := spanPairValue(doc, "52 week range"); value != "" {
		if m := ftRangePattern.FindStringSubmatch(value); m != nil {
			if f, ferr := util.ParseFloat(m[1]); ferr == nil {
				tick.Low52Week = fptr(f)
			}
			if f, ferr := util.ParseFloat(m[2]); ferr == nil {
				tick.High52Week = fptr(f)
			}
		}
	}

	if disclaimer := strings.TrimSpace(doc.Find("div.mod-disclaimer").First().Text()); disclaimer != "" {
		if m := ftAsOfPattern.FindStringSubmatch(disclaimer); m != nil {
			if dt, tz, terr := util.ParseDateTimeWithZone(m[1]); terr == nil {
				tick.LastPriceDate = &dt
				tick.LastPriceTime = &dt
				if tz != "" {
					tick.Timezone = sptr(tz)
				}
			}
		}
	}

	// range-bar variant of the 52 week range
	if tick.Low52Week == nil {
		if v := strings.TrimSpace(doc.Find("span.mod-ui-range-bar__container__label--lo span").First().Text()); v != "" {
			if f, ferr := util.ParseFloat(v); ferr == nil {
				tick.Low52Week = fptr(f)
			}
		}
	}
	if tick.High52Week == nil {
		if v := strings.TrimSpace(doc.Find("span.mod-ui-range-bar__container__label--hi span").First().Text()); v != "" {
			if f, ferr := util.ParseFloat(v); ferr == nil {
				tick.High52Week = fptr(f)
			}
		}
	}

	extractFTKeyStats(doc, tick)

	return tick, nil
}

func extractFTSectorIndustry(doc *goquery.Document, tick *model.Tick) {
	esi := doc.Find("div.mod-tearsheet-overview__esi").First()
	if esi.Length() == 0 {
		return
	}

	var before, after strings.Builder
	seenIcon := false
	esi.Contents().Each(func(_ int, n *goquery.Selection) {
		if goquery.NodeName(n) == "i" {
			seenIcon = true
			return
		}
		if seenIcon {
			after.WriteString(n.Text())
		} else {
			before.WriteString(n.Text())
		}
	})

	if sector := strings.TrimSpace(before.String()); sector != "" {
		tick.Sector = sptr(sector)
	}
	if industry := strings.TrimSpace(after.String()); industry != "" {
		tick.Industry = sptr(industry)
	}
}

func extractFTKeyStats(doc *goquery.Document, tick *model.Tick) {
	doc.Find("div.mod-tearsheet-key-stats__data__table th").Each(func(_ int, th *goquery.Selection) {
		label := strings.TrimSpace(th.Text())
		td := th.Next()
		if td.Length() == 0 {
			return
		}
		value := strings.TrimSpace(td.Text())

		switch {
		case label == "Open":
			if f, err := util.ParseFloat(value); err == nil {
				tick.Open = fptr(f)
			}
		case label == "High":
			if f, err := util.ParseFloat(value); err == nil {
				tick.High = fptr(f)
			}
		case label == "Low":
			if f, err := util.ParseFloat(value); err == nil {
				tick.Low = fptr(f)
			}
		case label == "Previous close":
			if f, err := util.ParseFloat(value); err == nil {
				tick.PrevClose = fptr(f)
			}
		case label == "Average volume":
			if f, err := util.ParseAbbreviated(value); err == nil {
				tick.AvgDailyVol3Month = fptr(f)
			}
		case strings.HasPrefix(label, "P/E"):
			if value == "--" {
				tick.PERatio = fptr(0.0)
			} else if f, err := util.ParseFloat(value); err == nil {
				tick.PERatio = fptr(f)
			}
		case strings.HasPrefix(label, "Market cap"):
			if f, err := util.ParseAbbreviated(value); err == nil {
				tick.MarketCap = fptr(f)
			}
		case strings.HasPrefix(label, "EPS"):
			if f, err := util.ParseFloat(value); err == nil {
				tick.EPS = fptr(f)
			}
		case strings.HasPrefix(label, "Annual div yield"):
			if f, err := util.ParseFloat(strings.TrimSuffix(value, "%")); err == nil {
				tick.DivYield = fptr(f)
			}
		case strings.HasPrefix(label, "Annual div"):
			if f, err := util.ParseFloat(value); err == nil {
				tick.Div = fptr(f)
			}
		case label == "Div ex-date":
			if dt, _, err := util.ParseDateTimeWithZone(value); err == nil {
				tick.ExDivDate = &dt
			}
		}
	})
}

// findSpanPair locates a span whose text matches the pattern and returns the
// match groups plus the text of the following span.
func findSpanPair(doc *goquery.Document, pattern *regexp.Regexp) ([]string, string) {
	var groups []string
	var value string

	doc.Find("span").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		m := pattern.FindStringSubmatch(strings.TrimSpace(sel.Text()))
		if m == nil {
			return true
		}
		next := sel.Next()
		if !next.Is("span") {
			return true
		}
		groups = m
		value = strings.TrimSpace(next.Text())
		return false
	})

	return groups, value
}

func spanPairValue(doc *goquery.Document, label string) string {
	var value string

	doc.Find("span").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.TrimSpace(sel.Text()) != label {
			return true
		}
		next := sel.Next()
		if !next.Is("span") {
			return true
		}
		value = strings.TrimSpace(next.Text())
		return false
	})

	return value
}

// guessAssetClass picks the tearsheet path from the ticker's shape: currency
// pairs are six letters with a known currency on either end, bare symbols
// without an exchange prefix are funds, four-part symbols are ETFs.
func guessAssetClass(ticker string) string {
	if len(ticker) == 6 {
		currencies := []string{"USD", "EUR", "GBP", "JPY", "CHF"}
		for _, c := range currencies {
			if strings.HasPrefix(ticker, c) || ticker[3:] == c {
				return "currencies"
			}
		}
	}

	switch strings.Count(ticker, ":") {
	case 0:
		return "funds"
	case 3:
		return "etfs"
	}

	return "equities"
}
