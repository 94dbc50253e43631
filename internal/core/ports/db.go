package ports

import "github.com/dxganta/protocol/internal/core/domain"

// RepoManager gives access to all the repositories of the protocol and
// exposes a way to close the underlying store.
type RepoManager interface {
	VaultRepository() domain.VaultRepository
	AuctionRepository() domain.AuctionRepository
	CollateralRepository() domain.CollateralRepository

	Close()
}
