package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chmdznr/nexus-npm-sync/pkg/models"
)

type assetPage struct {
	Items             []models.Asset `json:"items"`
	ContinuationToken string         `json:"continuationToken"`
}

// ListAssets pages through the repository's asset listing and returns the
// transfer candidates. With a cutoff, only assets modified strictly after it
// are kept; assets whose timestamp cannot be parsed are kept too, so an
// upstream date-format change degrades into re-syncing instead of silently
// dropping updates.
//
// A failure on the first page aborts the listing. A failure on a later page
// ends it early and the assets collected so far are returned, which at worst
// re-syncs them on the next run.
func (c *Client) ListAssets(ctx context.Context, repository string, cutoff *time.Time, maxPages int, pageTimeout time.Duration) ([]models.Asset, error) {
	var (
		retained []models.Asset
		token    string
		total    int
	)
	for page := 1; page <= maxPages; page++ {
		items, next, err := c.listPage(ctx, repository, token, pageTimeout)
		if err != nil {
			if page == 1 {
				return nil, fmt.Errorf("listing assets in %s: %w", repository, err)
			}
			c.log.WithError(err).WithField("page", page).Warn("Asset page fetch failed, continuing with assets collected so far")
			break
		}

		total += len(items)
		kept := items
		if cutoff != nil {
			kept = c.filterModifiedAfter(items, *cutoff)
		}
		retained = append(retained, kept...)
		c.log.WithFields(logrus.Fields{
			"page":      page,
			"retrieved": len(items),
			"retained":  len(kept),
		}).Debug("Fetched asset page")

		if next == "" {
			break
		}
		token = next
	}

	c.log.WithFields(logrus.Fields{"total": total, "to_sync": len(retained)}).Info("Asset listing complete")
	return retained, nil
}

func (c *Client) listPage(ctx context.Context, repository, token string, timeout time.Duration) ([]models.Asset, string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var page assetPage
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("repository", repository).
		SetResult(&page)
	if token != "" {
		req.SetQueryParam("continuationToken", token)
	}

	resp, err := req.Get("/service/rest/v1/assets")
	if err != nil {
		return nil, "", err
	}
	if resp.IsError() {
		return nil, "", fmt.Errorf("asset listing returned %s", resp.Status())
	}
	return page.Items, page.ContinuationToken, nil
}

func (c *Client) filterModifiedAfter(items []models.Asset, cutoff time.Time) []models.Asset {
	kept := make([]models.Asset, 0, len(items))
	for _, asset := range items {
		modified, err := ParseRegistryDate(asset.LastModified)
		if err != nil {
			c.log.WithError(err).WithField("path", asset.Path).Warn("Unparseable lastModified, including asset")
			kept = append(kept, asset)
			continue
		}
		if modified.After(cutoff) {
			kept = append(kept, asset)
		}
	}
	return kept
}
