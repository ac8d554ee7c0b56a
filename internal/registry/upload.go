package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// UploadNpmComponent publishes a package tarball to a hosted repository
// through the components API. Nexus indexes the upload under the given npm
// name and version.
func (c *Client) UploadNpmComponent(ctx context.Context, repository, name, version, tarballPath string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	file, err := os.Open(tarballPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", tarballPath, err)
	}
	defer file.Close()

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("repository", repository).
		SetFileReader("npm.asset", filepath.Base(tarballPath), file).
		SetFormData(map[string]string{
			"npm.name":    name,
			"npm.version": version,
		}).
		Post("/service/rest/v1/components")
	if err != nil {
		return fmt.Errorf("uploading %s@%s: %w", name, version, err)
	}
	if resp.IsError() {
		return fmt.Errorf("uploading %s@%s: %s: %s", name, version, resp.Status(), strings.TrimSpace(resp.String()))
	}

	c.log.WithFields(logrus.Fields{"name": name, "version": version}).Debug("Uploaded component")
	return nil
}
