// Package harvest drives paginated case collection from the ISIC Archive:
// lesion-stream discovery for the common labels and targeted image search
// for the rare ones. The checkpoint is saved after every processed page so
// a crash never loses more than one page of progress.
package harvest

import (
	"dermquiz/pkg/checkpoint"
	"dermquiz/pkg/config"
	"dermquiz/pkg/isic"
	"dermquiz/pkg/logger"
	"dermquiz/pkg/ratelimit"
)

// Harvester fills label buckets page by page. Strictly sequential: one
// request in flight at a time, throttled by the limiter.
type Harvester struct {
	client  *isic.Client
	manager *checkpoint.Manager
	limiter ratelimit.Limiter
	cfg     *config.Config
	logger  logger.Logger
}

// New creates a harvester. A nil limiter disables throttling.
func New(client *isic.Client, manager *checkpoint.Manager, limiter ratelimit.Limiter, cfg *config.Config, log logger.Logger) *Harvester {
	if log == nil {
		log = logger.GetLogger()
	}
	if limiter == nil {
		limiter = ratelimit.NewFixedDelay(0)
	}

	return &Harvester{
		client:  client,
		manager: manager,
		limiter: limiter,
		cfg:     cfg,
		logger:  log,
	}
}

// saveProgress writes the checkpoint after a processed page. A failed save
// is logged but does not abort the harvest; the next page save retries.
func (h *Harvester) saveProgress(cp *checkpoint.Checkpoint) {
	if err := h.manager.Save(cp); err != nil {
		h.logger.WithError(err).Warn("failed to save checkpoint")
	}
}
