package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financials/model"
)

func TestGetTickReturnsCopy(t *testing.T) {
	YahooRealtimeCache.Flush()

	price := 167.19
	SetTick(YahooRealtimeCache, "IBM", &model.Tick{LastPrice: &price}, time.Minute)

	got, found := GetTick(YahooRealtimeCache, "IBM")
	require.True(t, found)
	require.NotNil(t, got.LastPrice)
	assert.Equal(t, 167.19, *got.LastPrice)

	// mutating the returned tick must not leak into the cached record
	*got.LastPrice = 0

	again, found := GetTick(YahooRealtimeCache, "IBM")
	require.True(t, found)
	assert.Equal(t, 167.19, *again.LastPrice)
}

func TestGetTickMiss(t *testing.T) {
	YahooRealtimeCache.Flush()

	_, found := GetTick(YahooRealtimeCache, "NOPE")
	assert.False(t, found)
}

func TestSetTickTTLExpires(t *testing.T) {
	YahooRealtimeCache.Flush()

	price := 1.0
	SetTick(YahooRealtimeCache, "SHORT", &model.Tick{LastPrice: &price}, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, found := GetTick(YahooRealtimeCache, "SHORT")
	assert.False(t, found)
}
