package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dxganta/protocol/pkg/fixedpoint"
)

func TestDefaults(t *testing.T) {
	require.Equal(t, 86400, GetInt(DefaultDelayKey))
	require.Equal(t, 1800, GetInt(AuctionPeriodKey))
	require.Equal(t, 15000, GetInt(MonitorIntervalKey))
	require.False(t, GetBool(EnableProfilerKey))
	require.NotEmpty(t, GetDatadir())
}

func TestGetFix(t *testing.T) {
	f := GetFix(MaxTradeSlippageKey)
	require.Equal(t, "50000000000000000", f.Raw().String())

	f = GetFix(DefaultingFiatcoinPriceKey)
	require.Equal(t, "950000000000000000", f.Raw().String())
}

func TestSetOverridesDefault(t *testing.T) {
	// Defaulted keys report as set; only unknown keys don't.
	require.False(t, IsSet("UNKNOWN_KEY"))
	require.True(t, IsSet(ManagerAddressKey))
	require.Equal(t, "manager", GetString(ManagerAddressKey))

	Set(ManagerAddressKey, "treasury")
	require.Equal(t, "treasury", GetString(ManagerAddressKey))

	Set(MonitorIntervalKey, 30000)
	require.Equal(t, 30*time.Second, GetDuration(MonitorIntervalKey)*time.Millisecond)
}

func TestGetFixRoundTrip(t *testing.T) {
	Set(MaxAuctionSizeKey, 0.125)
	f := GetFix(MaxAuctionSizeKey)
	eighth, err := fixedpoint.One().DivInt(8)
	require.NoError(t, err)
	require.True(t, f.Eq(eighth))
}
