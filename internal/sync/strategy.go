package sync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/chmdznr/nexus-npm-sync/internal/archive"
	"github.com/chmdznr/nexus-npm-sync/internal/npm"
	"github.com/chmdznr/nexus-npm-sync/internal/registry"
	"github.com/chmdznr/nexus-npm-sync/pkg/models"
	"github.com/chmdznr/nexus-npm-sync/pkg/utils"
)

// transferStrategy is the per-run transfer mode, resolved once from the
// target repository's type and applied to every asset.
type transferStrategy interface {
	transfer(ctx context.Context, asset models.Asset) models.TransferOutcome
	mode() string
}

// hostedTransfer moves binaries directly: download from the source, upload
// to the hosted target through the components API, optionally archive.
type hostedTransfer struct {
	source     *registry.Client
	target     *registry.Client
	targetRepo string
	scratchDir string
	settings   models.Settings
	archive    *archive.Uploader
	log        *logrus.Entry
}

func (h *hostedTransfer) mode() string { return "hosted" }

func (h *hostedTransfer) transfer(ctx context.Context, asset models.Asset) models.TransferOutcome {
	pkg, err := npm.ParseAssetPath(asset.Path)
	if err != nil {
		return models.Failed("unrecognized package path", err)
	}

	localPath := scratchPath(h.scratchDir, asset.Path)
	if err := h.source.DownloadAsset(ctx, asset, localPath, h.settings.DownloadTimeoutDuration()); err != nil {
		return models.Failed("download failed", err)
	}

	var size int64
	if info, err := os.Stat(localPath); err == nil {
		size = info.Size()
	}

	if err := h.target.UploadNpmComponent(ctx, h.targetRepo, pkg.Name, pkg.Version, localPath, h.settings.UploadTimeoutDuration()); err != nil {
		return models.Failed("upload failed", err)
	}

	if h.archive != nil {
		if err := h.archive.Store(ctx, asset, localPath); err != nil {
			h.log.WithError(err).WithField("path", asset.Path).Warn("Could not archive tarball")
		}
	}

	if err := os.Remove(localPath); err != nil {
		h.log.WithError(err).WithField("local", localPath).Warn("Could not remove downloaded file, cleanup at exit will retry")
	}

	outcome := models.Succeeded()
	outcome.Bytes = size
	return outcome
}

// proxyTransfer never moves binaries itself: it asks the target proxy
// repository to pull each package through from its upstream, which caches it.
type proxyTransfer struct {
	trigger npm.CacheTrigger
	log     *logrus.Entry
}

func (p *proxyTransfer) mode() string { return "proxy" }

func (p *proxyTransfer) transfer(ctx context.Context, asset models.Asset) models.TransferOutcome {
	pkg, err := npm.ParseAssetPath(asset.Path)
	if err != nil {
		return models.Failed("unrecognized package path", err)
	}

	if err := p.trigger.TriggerFetch(ctx, pkg); err != nil {
		if errors.Is(err, npm.ErrPackageNotFound) {
			return models.Failed("not found upstream", err)
		}
		return models.Failed("cache trigger failed", err)
	}
	return models.Succeeded()
}

// scratchPath maps a repository asset path onto the scratch directory. Each
// path component is sanitized individually; components that sanitize to
// nothing, like the registry's "-" marker, drop out.
func scratchPath(scratchDir, assetPath string) string {
	parts := strings.Split(strings.Trim(assetPath, "/"), "/")
	cleaned := make([]string, 0, len(parts)+1)
	cleaned = append(cleaned, scratchDir)
	for _, part := range parts {
		if s := utils.SanitizeFileName(part); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return filepath.Join(cleaned...)
}
