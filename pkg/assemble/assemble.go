// Package assemble orchestrates a full dataset build: checkpoint init or
// resume, harvesting across all configured labels, deterministic quiz set
// construction per module, and the final output artifact.
package assemble

import (
	"fmt"

	"dermquiz/pkg/checkpoint"
	"dermquiz/pkg/config"
	"dermquiz/pkg/harvest"
	"dermquiz/pkg/isic"
	"dermquiz/pkg/logger"
	"dermquiz/pkg/quiz"
	"dermquiz/pkg/ratelimit"
	"dermquiz/pkg/storage"
)

// Options controls checkpoint handling for one run.
type Options struct {
	// Resume continues from an existing checkpoint. This is the default
	// behaviour; with Resume false an existing checkpoint is ignored and
	// overwritten as the fresh run progresses.
	Resume bool

	// ForceRestart deletes any existing checkpoint before the run.
	ForceRestart bool
}

// Assembler wires the harvester, checkpoint store and output writer
// together.
type Assembler struct {
	cfg         *config.Config
	client      *isic.Client
	checkpoints *checkpoint.Manager
	store       *storage.Manager
	harvester   *harvest.Harvester
	logger      logger.Logger
}

// New creates an assembler from configuration.
func New(cfg *config.Config, log logger.Logger) (*Assembler, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	store, err := storage.NewManager(cfg.Output.DataDir, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage manager: %w", err)
	}

	checkpoints, err := checkpoint.NewManager(cfg.Output.DataDir, cfg.Output.CheckpointFile, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkpoint manager: %w", err)
	}

	client := isic.NewClient(cfg.API.RequestTimeout, &cfg.Retry, log)
	limiter := ratelimit.NewFixedDelay(cfg.Harvest.PageDelay)

	return &Assembler{
		cfg:         cfg,
		client:      client,
		checkpoints: checkpoints,
		store:       store,
		harvester:   harvest.New(client, checkpoints, limiter, cfg, log),
		logger:      log,
	}, nil
}

// Client exposes the API client, letting tests substitute the HTTP
// transport.
func (a *Assembler) Client() *isic.Client {
	return a.client
}

// Run executes the full pipeline and returns the payload that was written
// to the output file.
func (a *Assembler) Run(opts Options) (*quiz.Payload, error) {
	cp, err := a.prepareCheckpoint(opts)
	if err != nil {
		return nil, err
	}

	buckets := a.restoreBuckets(cp)

	if len(a.cfg.Harvest.StreamLabels) > 0 {
		if err := a.harvester.HarvestStream(cp, buckets); err != nil {
			return nil, err
		}
	}

	for _, search := range a.cfg.Harvest.Searches {
		label := quiz.Label(search.Label)
		if err := a.harvester.HarvestSearch(cp, buckets[label], search); err != nil {
			return nil, err
		}
	}

	payload := a.buildPayload(cp, buckets)

	if err := a.store.WritePayload(a.cfg.Output.QuizFile, payload); err != nil {
		return nil, err
	}

	for label, bucket := range buckets {
		cp.SetBucket(label, bucket.Cases())
	}
	if err := a.checkpoints.Save(cp); err != nil {
		a.logger.WithError(err).Warn("failed to save final checkpoint")
	}

	a.logger.InfoWithFields("build completed", map[string]interface{}{
		"scanned_lesions": cp.ScannedLesions,
		"output":          a.store.Path(a.cfg.Output.QuizFile),
	})

	return payload, nil
}

// prepareCheckpoint applies the run options and returns the checkpoint
// state to continue from.
func (a *Assembler) prepareCheckpoint(opts Options) (*checkpoint.Checkpoint, error) {
	if opts.ForceRestart && a.checkpoints.Exists() {
		if err := a.checkpoints.Delete(); err != nil {
			return nil, fmt.Errorf("failed to delete checkpoint: %w", err)
		}
		a.logger.Info("force restart, existing checkpoint deleted")
	}

	var cp *checkpoint.Checkpoint
	if opts.Resume && !opts.ForceRestart {
		loaded, err := a.checkpoints.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load checkpoint: %w", err)
		}
		cp = loaded
	}

	if cp == nil {
		cp = checkpoint.New(a.cfg.Harvest.TargetPerLabel)
		a.logger.Info("starting fresh harvest")
	} else {
		a.logger.InfoWithFields("resuming from checkpoint", map[string]interface{}{
			"scanned_lesions": cp.ScannedLesions,
		})
	}

	cp.TargetPerLabel = a.cfg.Harvest.TargetPerLabel
	return cp, nil
}

// restoreBuckets rebuilds the in-memory buckets for every configured label
// from the checkpointed cases.
func (a *Assembler) restoreBuckets(cp *checkpoint.Checkpoint) map[quiz.Label]*quiz.Bucket {
	target := a.cfg.Harvest.TargetPerLabel
	dedup := a.cfg.Harvest.LesionDedup

	buckets := make(map[quiz.Label]*quiz.Bucket)
	for _, name := range a.cfg.Harvest.StreamLabels {
		label := quiz.Label(name)
		buckets[label] = quiz.RestoreBucket(target, dedup, cp.Buckets[label])
	}
	for _, search := range a.cfg.Harvest.Searches {
		label := quiz.Label(search.Label)
		buckets[label] = quiz.RestoreBucket(target, dedup, cp.Buckets[label])
	}

	return buckets
}

// buildPayload assembles every configured module and the run metadata.
// Whole payload is built in memory; nothing is written until it is
// complete.
func (a *Assembler) buildPayload(cp *checkpoint.Checkpoint, buckets map[quiz.Label]*quiz.Bucket) *quiz.Payload {
	modules := make(map[string][]quiz.QuizSet, len(a.cfg.Modules))
	setSizes := make(map[string][]int, len(a.cfg.Modules))

	for _, m := range a.cfg.Modules {
		sets := quiz.BuildSets(
			bucketCases(buckets, quiz.Label(m.LabelA)),
			bucketCases(buckets, quiz.Label(m.LabelB)),
			a.cfg.Sets.Count,
			a.cfg.Sets.PreferredPerClass,
			a.cfg.Sets.FallbackPerClass,
		)
		modules[m.Name] = sets

		sizes := make([]int, 0, len(sets))
		for _, s := range sets {
			sizes = append(sizes, len(s))
		}
		setSizes[m.Name] = sizes

		a.logger.InfoWithFields("module assembled", map[string]interface{}{
			"module": m.Name,
			"sets":   len(sets),
		})
	}

	counts := make(map[quiz.Label]int, len(buckets))
	for label, bucket := range buckets {
		counts[label] = bucket.Len()
	}

	return &quiz.Payload{
		Meta: quiz.Meta{
			Brand:          a.cfg.Output.Brand,
			Audience:       a.cfg.Output.Audience,
			TargetPerLabel: a.cfg.Harvest.TargetPerLabel,
			Counts:         counts,
			ScannedLesions: cp.ScannedLesions,
			SetSizes:       setSizes,
			Note:           a.cfg.Output.Note,
		},
		Modules: modules,
	}
}

func bucketCases(buckets map[quiz.Label]*quiz.Bucket, label quiz.Label) []quiz.Case {
	if bucket, ok := buckets[label]; ok {
		return bucket.Cases()
	}
	return nil
}
