package sync

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/chmdznr/nexus-npm-sync/internal/archive"
	"github.com/chmdznr/nexus-npm-sync/internal/db"
	"github.com/chmdznr/nexus-npm-sync/internal/npm"
	"github.com/chmdznr/nexus-npm-sync/internal/registry"
	"github.com/chmdznr/nexus-npm-sync/internal/state"
	"github.com/chmdznr/nexus-npm-sync/pkg/models"
	"github.com/chmdznr/nexus-npm-sync/pkg/utils"
)

// Options carries the file locations a run works against.
type Options struct {
	StatePath   string
	HistoryPath string
	ScratchDir  string
}

// Syncer is the context of one synchronization run. Clients, stores and
// settings are assembled per run and discarded when it ends.
type Syncer struct {
	cfg        *models.Config
	settings   models.Settings
	source     *registry.Client
	target     *registry.Client
	store      *state.Store
	history    *db.DB
	archive    *archive.Uploader
	scratchDir string
	runID      string
	mode       string
	startedAt  time.Time
	log        *logrus.Entry
}

// New assembles a run context from configuration. The history journal is
// diagnostic, so failing to open it degrades to running without one.
func New(cfg *models.Config, opts Options) (*Syncer, error) {
	runID := uuid.NewString()
	log := logrus.WithField("run_id", runID)

	s := &Syncer{
		cfg:        cfg,
		settings:   cfg.Settings,
		source:     registry.NewClient(cfg.Source, log.WithField("registry", "source")),
		target:     registry.NewClient(cfg.Target, log.WithField("registry", "target")),
		store:      state.NewStore(opts.StatePath, log),
		scratchDir: opts.ScratchDir,
		runID:      runID,
		log:        log,
	}

	if cfg.Archive.Enabled {
		uploader, err := archive.New(cfg.Archive, log)
		if err != nil {
			return nil, fmt.Errorf("configuring archive: %w", err)
		}
		s.archive = uploader
	}

	history, err := db.Open(opts.HistoryPath)
	if err != nil {
		log.WithError(err).Warn("Could not open run-history journal, continuing without it")
	} else {
		s.history = history
	}

	return s, nil
}

// Close releases the run's resources.
func (s *Syncer) Close() error {
	if s.history != nil {
		return s.history.Close()
	}
	return nil
}

// Run executes one synchronization pass: load state, validate credentials,
// list candidates, transfer them batch by batch, persist the outcome. Reruns
// against an unchanged source are no-ops.
func (s *Syncer) Run(ctx context.Context) (models.RunStats, error) {
	s.startedAt = time.Now()

	st := s.store.Load()
	cutoff := s.cutoffFrom(st)
	if cutoff != nil {
		s.mode = "incremental"
		s.log.WithField("since", st.LastSyncDate).Info("Incremental sync: looking for assets modified since last sync")
	} else {
		s.mode = "full"
		s.log.Info("Full sync: no previous sync state")
	}

	if err := s.validateCredentials(ctx); err != nil {
		return models.RunStats{}, err
	}

	if err := os.MkdirAll(s.scratchDir, 0o755); err != nil {
		return models.RunStats{}, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer cleanupScratch(s.scratchDir, s.log)

	s.log.Info("Fetching assets from source repository...")
	assets, err := s.source.ListAssets(ctx, s.cfg.Source.Repository, cutoff, s.settings.MaxPages, s.settings.RequestTimeoutDuration())
	if err != nil {
		return models.RunStats{}, err
	}
	if len(assets) == 0 {
		s.log.Info("No new or modified assets found since last sync")
		s.recordHistory(models.RunStats{}, nil, "")
		return models.RunStats{}, nil
	}

	repoType, err := s.target.RepositoryType(ctx, s.cfg.Target.Repository, s.settings.RequestTimeoutDuration())
	if err != nil {
		return models.RunStats{}, err
	}
	strategy := s.strategyFor(repoType)
	s.log.WithFields(logrus.Fields{"assets": len(assets), "mode": strategy.mode()}).Info("Starting transfer")

	stats, records := s.runBatches(ctx, assets, strategy)

	if len(records) > 0 {
		if err := s.store.Save(records); err != nil {
			return stats, err
		}
	}
	s.recordHistory(stats, records, repoType)

	s.log.WithFields(logrus.Fields{
		"succeeded":   stats.Succeeded,
		"failed":      stats.Failed,
		"skipped":     stats.Skipped,
		"transferred": utils.FormatSize(stats.BytesTransferred),
		"elapsed":     utils.FormatDuration(time.Since(s.startedAt)),
	}).Info("Sync completed")
	return stats, nil
}

// cutoffFrom turns the stored last sync date into a listing cutoff. An
// unreadable date degrades to a full sync rather than an error.
func (s *Syncer) cutoffFrom(st models.SyncState) *time.Time {
	if st.LastSyncDate == "" {
		return nil
	}
	t, err := registry.ParseRegistryDate(st.LastSyncDate)
	if err != nil {
		s.log.WithError(err).Warn("Stored last_sync_date is unreadable, falling back to full sync")
		return nil
	}
	return &t
}

func (s *Syncer) validateCredentials(ctx context.Context) error {
	timeout := s.settings.RequestTimeoutDuration()

	s.log.Info("Validating source credentials...")
	if err := s.source.Ping(ctx, timeout); err != nil {
		return fmt.Errorf("source credential validation failed: %w", err)
	}
	s.log.Info("Validating target credentials...")
	if err := s.target.Ping(ctx, timeout); err != nil {
		return fmt.Errorf("target credential validation failed: %w", err)
	}
	return nil
}

// strategyFor picks the transfer mode for the target repository. Proxy
// repositories cannot take uploads, so they get the cache trigger; anything
// else is treated as hosted.
func (s *Syncer) strategyFor(repoType string) transferStrategy {
	if repoType == "proxy" {
		trigger := npm.NewPackTrigger(npm.RegistryConfig{
			URL:      s.cfg.Target.NpmRegistryURL(),
			Username: s.cfg.Target.Username,
			Password: s.cfg.Target.Password,
		}, s.settings.CacheTimeoutDuration(), s.log)
		return &proxyTransfer{trigger: trigger, log: s.log}
	}
	return &hostedTransfer{
		source:     s.source,
		target:     s.target,
		targetRepo: s.cfg.Target.Repository,
		scratchDir: s.scratchDir,
		settings:   s.settings,
		archive:    s.archive,
		log:        s.log,
	}
}

func (s *Syncer) recordHistory(stats models.RunStats, records []models.SyncRecord, repoType string) {
	if s.history == nil {
		return
	}
	run := models.RunSummary{
		ID:         s.runID,
		StartedAt:  s.startedAt,
		FinishedAt: time.Now(),
		Mode:       s.mode,
		RepoType:   repoType,
		Candidates: stats.Candidates,
		Succeeded:  stats.Succeeded,
		Failed:     stats.Failed,
		Skipped:    stats.Skipped,
	}
	if err := s.history.RecordRun(run, records); err != nil {
		s.log.WithError(err).Warn("Could not record run in history journal")
	}
}
