package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dxganta/protocol/config"
	"github.com/dxganta/protocol/internal/core/application"
	"github.com/dxganta/protocol/internal/infrastructure/registry"
	"github.com/dxganta/protocol/internal/infrastructure/simulator"
	dbbadger "github.com/dxganta/protocol/internal/infrastructure/storage/db/badger"
	"github.com/dxganta/protocol/pkg/stats"
)

func main() {
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	dbDir := filepath.Join(config.GetDatadir(), config.DbLocation)
	repoManager, err := dbbadger.NewDbManager(dbDir, nil)
	if err != nil {
		log.WithError(err).Panic("error while opening db")
	}
	defer repoManager.Close()

	registrySvc, err := registry.NewService(registry.Options{
		MaxAuctionSize:          config.GetFix(config.MaxAuctionSizeKey),
		MinRevenueAuctionSize:   config.GetFix(config.MinRevenueAuctionSizeKey),
		MaxTradeSlippage:        config.GetFix(config.MaxTradeSlippageKey),
		DefaultingFiatcoinPrice: config.GetFix(config.DefaultingFiatcoinPriceKey),
		AuctionPeriod:           time.Duration(config.GetInt(config.AuctionPeriodKey)) * time.Second,
		DefaultDelay:            time.Duration(config.GetInt(config.DefaultDelayKey)) * time.Second,
		ManagerAddress:          config.GetString(config.ManagerAddressKey),
	})
	if err != nil {
		log.WithError(err).Panic("error while creating registry")
	}

	// Real chain adapters are out of scope; local runs use the simulated
	// externals.
	blocks := simulator.NewBlockSource(1, time.Now().Unix(), 15)
	oracle := simulator.NewOracle()
	rates := simulator.NewRateSource()
	tokens := simulator.NewTokenService()
	market := simulator.NewMarket("market", blocks.Now)
	claimer := simulator.NewRewardsClaimer()

	vaultSvc, err := application.NewVaultService(
		repoManager, tokens, rates, claimer, registrySvc,
	)
	if err != nil {
		log.WithError(err).Panic("error while creating vault service")
	}
	registrySvc.SetValuer(vaultSvc.TotalAssetValue)

	traderSvc, err := application.NewTraderService(
		registrySvc, market, tokens, repoManager, oracle, rates,
		config.GetString(config.TraderAccountKey),
	)
	if err != nil {
		log.WithError(err).Panic("error while creating trader service")
	}

	interval := time.Duration(config.GetInt(config.MonitorIntervalKey)) * time.Millisecond
	monitorSvc, err := application.NewMonitorService(
		repoManager, oracle, rates, registrySvc, blocks, interval,
	)
	if err != nil {
		log.WithError(err).Panic("error while creating monitor service")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if config.GetBool(config.EnableProfilerKey) {
		statsInterval := time.Duration(config.GetInt(config.StatsIntervalKey)) * time.Millisecond
		stats.EnableMemoryStatistics(ctx, statsInterval, config.GetDatadir())
	}

	monitorSvc.Start(ctx)
	defer monitorSvc.Stop()

	auctionTicker := time.NewTicker(interval)
	defer auctionTicker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-auctionTicker.C:
				if _, err := traderSvc.CloseDueAuctions(ctx, blocks.Now()); err != nil {
					log.WithError(err).Warn("error while closing due auctions")
				}
			}
		}
	}()

	log.Info("daemon started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("exiting")
}
