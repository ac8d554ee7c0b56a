package sync

import (
	"context"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/chmdznr/nexus-npm-sync/pkg/models"
)

// runBatches drives the assets through the strategy in fixed-size batches
// with a configurable pause between them. One asset failing is counted and
// logged; it never stops the batch or the run.
func (s *Syncer) runBatches(ctx context.Context, assets []models.Asset, strategy transferStrategy) (models.RunStats, []models.SyncRecord) {
	stats := models.RunStats{Candidates: len(assets)}
	records := make([]models.SyncRecord, 0, len(assets))

	batches := lo.Chunk(assets, s.settings.BatchSize)
	bar := pb.StartNew(len(assets))
	defer bar.Finish()

	for i, batch := range batches {
		s.log.WithFields(logrus.Fields{
			"batch":   i + 1,
			"batches": len(batches),
			"size":    len(batch),
		}).Info("Processing batch")

		for _, asset := range batch {
			outcome := s.processAsset(ctx, asset, strategy)
			bar.Increment()

			switch outcome.Status {
			case models.TransferSucceeded:
				stats.Succeeded++
				stats.BytesTransferred += outcome.Bytes
				records = append(records, models.SyncRecord{
					Path:         asset.Path,
					LastModified: asset.LastModified,
					SyncedAt:     time.Now().UTC().Format(time.RFC3339),
				})
				s.log.WithField("path", asset.Path).Info("Synced asset")
			case models.TransferSkipped:
				stats.Skipped++
				s.log.WithFields(logrus.Fields{"path": asset.Path, "reason": outcome.Reason}).Info("Skipped asset")
			case models.TransferFailed:
				stats.Failed++
				s.log.WithError(outcome.Err).WithFields(logrus.Fields{
					"path":   asset.Path,
					"reason": outcome.Reason,
				}).Error("Failed to transfer asset")
			}
		}

		if i < len(batches)-1 && s.settings.BatchDelay > 0 {
			time.Sleep(s.settings.BatchDelayDuration())
		}
	}

	return stats, records
}

// processAsset gates non-package assets before strategy dispatch. Metadata
// documents show up in listings alongside tarballs and must not be counted
// as failures.
func (s *Syncer) processAsset(ctx context.Context, asset models.Asset, strategy transferStrategy) models.TransferOutcome {
	if !asset.IsPackage() {
		return models.Skipped("not a package tarball")
	}
	return strategy.transfer(ctx, asset)
}
