package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/dxganta/protocol/pkg/fixedpoint"
)

const (
	// DatadirKey is the local data directory to store the internal state of the daemon
	DatadirKey = "DATA_DIR_PATH"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// DefaultDelayKey is the duration in seconds a collateral stays IFFY before defaulting
	DefaultDelayKey = "DEFAULT_DELAY"
	// DefaultingFiatcoinPriceKey is the fiat price at or below which a fiatcoin is failing its peg
	DefaultingFiatcoinPriceKey = "DEFAULTING_FIATCOIN_PRICE"
	// AuctionPeriodKey is the duration in seconds an auction stays open on the external market
	AuctionPeriodKey = "AUCTION_PERIOD"
	// MaxAuctionSizeKey is the fraction of total asset value a single auction may sell at most
	MaxAuctionSizeKey = "MAX_AUCTION_SIZE"
	// MinRevenueAuctionSizeKey is the fraction of total asset value below which a trade is dust
	MinRevenueAuctionSizeKey = "MIN_REVENUE_AUCTION_SIZE"
	// MaxTradeSlippageKey is the worst acceptable fractional discount on an auction's buy amount
	MaxTradeSlippageKey = "MAX_TRADE_SLIPPAGE"
	// MonitorIntervalKey is the interval in milliseconds between collateral status sweeps
	MonitorIntervalKey = "MONITOR_INTERVAL"
	// ManagerAddressKey is the account reward sweeps are forwarded to
	ManagerAddressKey = "MANAGER_ADDRESS"
	// TraderAccountKey is the account the trader sells tokens from
	TraderAccountKey = "TRADER_ACCOUNT"
	// EnableProfilerKey enables periodic memory statistics and a metrics dump on shutdown
	EnableProfilerKey = "ENABLE_PROFILER"
	// StatsIntervalKey is the interval in milliseconds between memory statistics logs
	StatsIntervalKey = "STATS_INTERVAL"

	// DbLocation is the subdirectory of the datadir holding the badger stores
	DbLocation = "db"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("reserved", false)

func init() {
	vip = viper.New()
	vip.SetEnvPrefix("RESERVE")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DefaultDelayKey, 86400)
	vip.SetDefault(DefaultingFiatcoinPriceKey, 0.95)
	vip.SetDefault(AuctionPeriodKey, 1800)
	vip.SetDefault(MaxAuctionSizeKey, 0.01)
	vip.SetDefault(MinRevenueAuctionSizeKey, 0.0001)
	vip.SetDefault(MaxTradeSlippageKey, 0.05)
	vip.SetDefault(MonitorIntervalKey, 15000)
	vip.SetDefault(ManagerAddressKey, "manager")
	vip.SetDefault(TraderAccountKey, "trader")
	vip.SetDefault(EnableProfilerKey, false)
	vip.SetDefault(StatsIntervalKey, 600000)

	if err := validate(); err != nil {
		log.WithError(err).Panic("error while validating config")
	}

	if err := initDatadir(); err != nil {
		log.WithError(err).Panic("error while creating datadir")
	}
}

//GetString ...
func GetString(key string) string {
	return vip.GetString(key)
}

//GetInt ...
func GetInt(key string) int {
	return vip.GetInt(key)
}

//GetFloat ...
func GetFloat(key string) float64 {
	return vip.GetFloat64(key)
}

//GetDuration ...
func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

//GetBool ...
func GetBool(key string) bool {
	return vip.GetBool(key)
}

// GetFix returns a config value as an 18-decimal fixed-point number, going
// through decimal parsing to avoid binary float artifacts.
func GetFix(key string) fixedpoint.Fix {
	d := decimal.NewFromFloat(vip.GetFloat64(key))
	f, err := fixedpoint.FromDecimal(d)
	if err != nil {
		log.WithError(err).Panicf("config value %s is out of range", key)
	}
	return f
}

// GetDatadir returns the data directory of the daemon.
func GetDatadir() string {
	return GetString(DatadirKey)
}

// Set a value for the given key
func Set(key string, value interface{}) {
	vip.Set(key, value)
}

// IsSet returns whether the give key is set
func IsSet(key string) bool {
	return vip.IsSet(key)
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("datadir must not be null")
	}

	maxAuctionSize := GetFloat(MaxAuctionSizeKey)
	if maxAuctionSize <= 0 || maxAuctionSize > 1 {
		return fmt.Errorf("max auction size must be in (0, 1]")
	}

	minRevenueSize := GetFloat(MinRevenueAuctionSizeKey)
	if minRevenueSize < 0 || minRevenueSize > maxAuctionSize {
		return fmt.Errorf("min revenue auction size must be in [0, max auction size]")
	}

	slippage := GetFloat(MaxTradeSlippageKey)
	if slippage < 0 || slippage >= 1 {
		return fmt.Errorf("max trade slippage must be in [0, 1)")
	}

	if GetInt(DefaultDelayKey) <= 0 {
		return fmt.Errorf("default delay must be positive")
	}
	if GetInt(AuctionPeriodKey) <= 0 {
		return fmt.Errorf("auction period must be positive")
	}

	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	if err := makeDirectoryIfNotExists(datadir); err != nil {
		return err
	}
	return makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation))
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
