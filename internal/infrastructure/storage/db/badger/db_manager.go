package dbbadger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	"github.com/timshannon/badgerhold/v4"

	"github.com/dxganta/protocol/internal/core/domain"
)

// DbManager holds all the badgerhold stores in a single data structure.
type DbManager struct {
	VaultStore      *badgerhold.Store
	AuctionStore    *badgerhold.Store
	CollateralStore *badgerhold.Store

	vaultRepository      domain.VaultRepository
	auctionRepository    domain.AuctionRepository
	collateralRepository domain.CollateralRepository
}

// NewDbManager opens (or creates if not exists) the badger stores on disk.
// It expects a base data dir and an optional logger, and creates a dedicated
// directory for vaults, auctions and collateral.
func NewDbManager(baseDbDir string, logger badger.Logger) (*DbManager, error) {
	vaultDb, err := createDb(filepath.Join(baseDbDir, "vaults"), logger)
	if err != nil {
		return nil, fmt.Errorf("opening vaults db: %w", err)
	}

	auctionDb, err := createDb(filepath.Join(baseDbDir, "auctions"), logger)
	if err != nil {
		return nil, fmt.Errorf("opening auctions db: %w", err)
	}

	collateralDb, err := createDb(filepath.Join(baseDbDir, "collateral"), logger)
	if err != nil {
		return nil, fmt.Errorf("opening collateral db: %w", err)
	}

	db := &DbManager{
		VaultStore:      vaultDb,
		AuctionStore:    auctionDb,
		CollateralStore: collateralDb,
	}
	db.vaultRepository = NewVaultRepositoryImpl(db)
	auctionRepo, err := NewAuctionRepositoryImpl(db)
	if err != nil {
		return nil, fmt.Errorf("loading auction log: %w", err)
	}
	db.auctionRepository = auctionRepo
	db.collateralRepository = NewCollateralRepositoryImpl(db)

	return db, nil
}

// VaultRepository returns the badger vault repository.
func (d *DbManager) VaultRepository() domain.VaultRepository {
	return d.vaultRepository
}

// AuctionRepository returns the badger auction repository.
func (d *DbManager) AuctionRepository() domain.AuctionRepository {
	return d.auctionRepository
}

// CollateralRepository returns the badger collateral repository.
func (d *DbManager) CollateralRepository() domain.CollateralRepository {
	return d.collateralRepository
}

// Close closes all the badgerhold stores.
func (d *DbManager) Close() {
	d.VaultStore.Close()
	d.AuctionStore.Close()
	d.CollateralStore.Close()
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger
	opts.Compression = options.ZSTD

	return badgerhold.Open(badgerhold.Options{
		// Domain types hold nil-able big pointers and fixed-point values with
		// custom codecs, so encoding goes through JSON rather than gob.
		Encoder:          JSONEncode,
		Decoder:          JSONDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}

// JSONEncode is a custom JSON based encoder for badger.
func JSONEncode(value interface{}) ([]byte, error) {
	var buff bytes.Buffer

	en := json.NewEncoder(&buff)
	if err := en.Encode(value); err != nil {
		return nil, err
	}
	return buff.Bytes(), nil
}

// JSONDecode is a custom JSON based decoder for badger.
func JSONDecode(data []byte, value interface{}) error {
	de := json.NewDecoder(bytes.NewReader(data))
	return de.Decode(value)
}
