package registry

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chmdznr/nexus-npm-sync/pkg/models"
)

// DownloadAsset streams the asset's binary to destPath, creating parent
// directories as needed. The timeout bounds the whole transfer, not just the
// first response byte.
func (c *Client) DownloadAsset(ctx context.Context, asset models.Asset, destPath string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("creating download directory: %w", err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(asset.DownloadURL)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", asset.Path, err)
	}
	body := resp.RawBody()
	defer body.Close()
	if resp.IsError() {
		return fmt.Errorf("downloading %s: %s", asset.Path, resp.Status())
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", destPath, err)
	}
	written, err := io.Copy(out, body)
	if err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", destPath, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", destPath, err)
	}

	c.log.WithFields(logrus.Fields{
		"path":  asset.Path,
		"local": destPath,
		"bytes": written,
	}).Debug("Downloaded asset")
	return nil
}
