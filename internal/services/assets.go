package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rocjay1/ledger-entry/internal/models"
)

// AssetSource lists the assets known to a ledger backend.
type AssetSource interface {
	ListAssets(ctx context.Context) ([]models.Asset, error)
}

// AssetDirectory is an in-memory asset index refreshed from an AssetSource. It serves the payload
// builder's cross-reference checks.
type AssetDirectory struct {
	source AssetSource
	log    zerolog.Logger

	mu        sync.RWMutex
	index     models.AssetIndex
	refreshed time.Time
}

func NewAssetDirectory(source AssetSource, log zerolog.Logger) *AssetDirectory {
	return &AssetDirectory{
		source: source,
		log:    log,
		index:  models.AssetIndex{},
	}
}

// Refresh replaces the index with the source's current asset list. On failure the previous index
// is kept.
func (d *AssetDirectory) Refresh(ctx context.Context) error {
	assets, err := d.source.ListAssets(ctx)
	if err != nil {
		d.log.Warn().Err(err).Msg("failed to refresh asset directory")
		return err
	}
	idx := models.NewAssetIndex(assets)

	d.mu.Lock()
	d.index = idx
	d.refreshed = time.Now()
	d.mu.Unlock()

	d.log.Debug().Int("assets", len(idx)).Msg("asset directory refreshed")
	return nil
}

func (d *AssetDirectory) LookupAsset(id string) (models.Asset, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.index.LookupAsset(id)
}

func (d *AssetDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.index)
}

// RefreshedAt is the time of the last successful refresh, zero if none.
func (d *AssetDirectory) RefreshedAt() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.refreshed
}

// Run refreshes the directory every interval until ctx is done.
func (d *AssetDirectory) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = d.Refresh(ctx)
		}
	}
}
