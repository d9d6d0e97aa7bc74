package providers

import (
	"github.com/samber/do/v2"

	"github.com/trumully/dynamo/internal/blobcache"
	"github.com/trumully/dynamo/internal/config"
	"github.com/trumully/dynamo/internal/logger"
	"github.com/trumully/dynamo/internal/media/covers"
)

// BlobCacheHandle wraps the blob cache with shutdown capability.
type BlobCacheHandle struct {
	*blobcache.Cache
}

// Shutdown implements do.Shutdowner.
func (h *BlobCacheHandle) Shutdown() error {
	return h.Close()
}

// ProvideBlobCache provides the on-disk cache for rendered images and
// fetched covers.
func ProvideBlobCache(i do.Injector) (*BlobCacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	cache, err := blobcache.Open(cfg.Paths.BlobCacheDir(), log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("blob cache opened", "path", cfg.Paths.BlobCacheDir())
	return &BlobCacheHandle{Cache: cache}, nil
}

// ProvideCoverFetcher provides the album cover fetcher.
func ProvideCoverFetcher(i do.Injector) (*covers.Fetcher, error) {
	blobs := do.MustInvoke[*BlobCacheHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return covers.NewFetcher(blobs.Cache, log.Logger), nil
}
