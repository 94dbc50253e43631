package application

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dxganta/protocol/internal/core/domain"
	"github.com/dxganta/protocol/internal/core/ports"
)

// MonitorService runs the collateral default-detection sweep. Time passing
// is modeled by the externally-supplied block height and timestamp; the
// sweep is idempotent within a block because each collateral entity tracks
// the last block it was evaluated at.
type MonitorService struct {
	repoManager ports.RepoManager
	oracle      domain.PriceOracle
	rates       domain.RateSource
	registry    ports.Registry
	blocks      ports.BlockSource

	interval time.Duration
	quit     chan struct{}
}

// NewMonitorService returns a monitor sweeping collateral statuses every
// interval.
func NewMonitorService(
	repoManager ports.RepoManager,
	oracle domain.PriceOracle,
	rates domain.RateSource,
	registry ports.Registry,
	blocks ports.BlockSource,
	interval time.Duration,
) (*MonitorService, error) {
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if oracle == nil {
		return nil, fmt.Errorf("missing oracle")
	}
	if rates == nil {
		return nil, fmt.Errorf("missing rate source")
	}
	if registry == nil {
		return nil, fmt.Errorf("missing registry")
	}
	if blocks == nil {
		return nil, fmt.Errorf("missing block source")
	}

	return &MonitorService{
		repoManager: repoManager,
		oracle:      newBreakerOracle(oracle),
		rates:       rates,
		registry:    registry,
		blocks:      blocks,
		interval:    interval,
		quit:        make(chan struct{}),
	}, nil
}

// UpdateDefaultStatuses runs one default-detection pass over all registered
// collateral at the current best block. Failures on individual collateral
// are logged and do not stop the sweep.
func (s *MonitorService) UpdateDefaultStatuses(ctx context.Context) error {
	height, timestamp, err := s.blocks.BestBlock(ctx)
	if err != nil {
		return err
	}

	policy := domain.DefaultPolicy{
		Delay:                   s.registry.DefaultDelay(),
		DefaultingFiatcoinPrice: s.registry.DefaultingFiatcoinPrice(),
	}

	collateral, err := s.repoManager.CollateralRepository().GetAllCollateral(ctx)
	if err != nil {
		return err
	}

	for i := range collateral {
		asset := collateral[i].Asset.Address
		if err := s.repoManager.CollateralRepository().UpdateCollateral(
			ctx, asset, func(c *domain.Collateral) (*domain.Collateral, error) {
				before := c.Status(timestamp)
				if err := c.UpdateDefaultStatus(
					ctx, timestamp, height, s.oracle, s.rates, policy,
				); err != nil {
					return nil, err
				}
				if after := c.Status(timestamp); after != before {
					log.Infof(
						"collateral %s status changed %s -> %s",
						c.Asset.Symbol, before, after,
					)
				}
				return c, nil
			},
		); err != nil {
			log.WithError(err).Warnf("error while updating collateral %s", asset)
		}
	}
	return nil
}

// Start begins the periodic sweep. It returns immediately.
func (s *MonitorService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-s.quit:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.UpdateDefaultStatuses(ctx); err != nil {
					log.WithError(err).Warn("error while sweeping collateral statuses")
				}
			}
		}
	}()
}

// Stop halts the periodic sweep.
func (s *MonitorService) Stop() {
	close(s.quit)
}
