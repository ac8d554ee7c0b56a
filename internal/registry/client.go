package registry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/chmdznr/nexus-npm-sync/pkg/models"
)

// Client talks to one Nexus instance over its REST API. Every call takes its
// own timeout so one slow endpoint cannot stall the whole run.
type Client struct {
	http *resty.Client
	cfg  models.RegistryConfig
	log  *logrus.Entry
}

// NewClient builds a client for the given registry. Credentials are attached
// to every request; Nexus ignores them on anonymous-readable endpoints.
func NewClient(cfg models.RegistryConfig, log *logrus.Entry) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.NexusURL, "/")).
		SetBasicAuth(cfg.Username, cfg.Password)
	return &Client{http: httpClient, cfg: cfg, log: log}
}

// BaseURL returns the registry endpoint the client was built for.
func (c *Client) BaseURL() string {
	return c.http.BaseURL
}

// Ping verifies the endpoint is reachable and the credentials are accepted.
func (c *Client) Ping(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.http.R().SetContext(ctx).Get("/service/rest/v1/repositories")
	if err != nil {
		return fmt.Errorf("registry %s is unreachable: %w", c.cfg.NexusURL, err)
	}
	if resp.IsError() {
		return fmt.Errorf("registry %s rejected the request: %s", c.cfg.NexusURL, resp.Status())
	}
	c.log.Debug("Credentials accepted")
	return nil
}

type repositoryInfo struct {
	Name   string `json:"name"`
	Format string `json:"format"`
	Type   string `json:"type"`
	URL    string `json:"url"`
}

// RepositoryType reports whether a repository is hosted or proxy. Unknown
// types are returned verbatim; callers treat anything that is not a proxy as
// hosted.
func (c *Client) RepositoryType(ctx context.Context, repository string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var info repositoryInfo
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&info).
		Get("/service/rest/v1/repositories/" + repository)
	if err != nil {
		return "", fmt.Errorf("looking up repository %s: %w", repository, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("looking up repository %s: %s", repository, resp.Status())
	}

	repoType := strings.ToLower(info.Type)
	c.log.WithFields(logrus.Fields{"repository": repository, "type": repoType}).Info("Resolved repository type")
	return repoType, nil
}
