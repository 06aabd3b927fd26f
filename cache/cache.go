package cache

import (
	"time"

	"github.com/jinzhu/copier"
	"github.com/patrickmn/go-cache"

	"financials/model"
)

// One realtime tick cache per source; entries are set with the configured
// TTL so a stale record is never served.
var YahooRealtimeCache = cache.New(time.Minute, 5*time.Minute)
var GoogleRealtimeCache = cache.New(time.Minute, 5*time.Minute)
var FTRealtimeCache = cache.New(time.Minute, 5*time.Minute)
var CoinbaseRealtimeCache = cache.New(time.Minute, 5*time.Minute)

var RateLimiterCache = cache.New(10*time.Minute, 15*time.Minute)

// GetTick returns a deep copy of the cached tick so callers never alias
// cache-owned state.
func GetTick(c *cache.Cache, ticker string) (*model.Tick, bool) {
	val, found := c.Get(ticker)
	if !found {
		return nil, false
	}
	cached, ok := val.(*model.Tick)
	if !ok {
		return nil, false
	}

	var out model.Tick
	if err := copier.CopyWithOption(&out, cached, copier.Option{DeepCopy: true}); err != nil {
		return nil, false
	}
	return &out, true
}

func SetTick(c *cache.Cache, ticker string, tick *model.Tick, ttl time.Duration) {
	c.Set(ticker, tick, ttl)
}
