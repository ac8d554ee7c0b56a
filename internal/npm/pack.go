package npm

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrPackageNotFound reports that the upstream registry has no such package,
// so the proxy cannot cache it.
var ErrPackageNotFound = errors.New("package not found upstream")

// RegistryConfig points a cache trigger at the proxy repository that should
// pull the package through.
type RegistryConfig struct {
	URL      string
	Username string
	Password string
}

// CacheTrigger forces a proxy registry to fetch and cache a package.
type CacheTrigger interface {
	TriggerFetch(ctx context.Context, pkg Package) error
}

// PackTrigger triggers proxy caching by running npm pack against the proxy
// with an ephemeral configuration. The fetched tarball is discarded; the
// download into the proxy's cache is the whole point.
type PackTrigger struct {
	registry RegistryConfig
	timeout  time.Duration
	log      *logrus.Entry
}

func NewPackTrigger(registry RegistryConfig, timeout time.Duration, log *logrus.Entry) *PackTrigger {
	return &PackTrigger{registry: registry, timeout: timeout, log: log}
}

func (p *PackTrigger) TriggerFetch(ctx context.Context, pkg Package) error {
	npmrc, err := p.writeNpmrc()
	if err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(npmrc); err != nil {
			p.log.WithError(err).Warn("Could not remove temporary .npmrc")
		}
	}()

	workDir, err := os.MkdirTemp("", "nxsync-pack-")
	if err != nil {
		return fmt.Errorf("creating pack directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "npm", "pack", pkg.Spec(),
		"--userconfig", npmrc,
		"--pack-destination", workDir,
		"--registry", p.registry.URL,
	)
	cmd.Dir = workDir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	p.log.WithField("spec", pkg.Spec()).Debug("Running npm pack")
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("npm pack %s timed out after %s", pkg.Spec(), p.timeout)
		}
		if strings.Contains(stderr.String(), "404") {
			return fmt.Errorf("npm pack %s: %w", pkg.Spec(), ErrPackageNotFound)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("npm pack %s exited with %d: %s", pkg.Spec(), exitErr.ExitCode(), stderrSnippet(stderr.String()))
		}
		return fmt.Errorf("npm pack %s: %w", pkg.Spec(), err)
	}
	return nil
}

// writeNpmrc materializes a throwaway npm configuration pointing at the
// proxy. Credentials, when present, are scoped to the registry URL the way
// npm expects them.
func (p *PackTrigger) writeNpmrc() (string, error) {
	f, err := os.CreateTemp("", "nxsync-*.npmrc")
	if err != nil {
		return "", fmt.Errorf("creating temporary .npmrc: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "registry=%s\n", p.registry.URL)
	if p.registry.Username != "" {
		token := base64.StdEncoding.EncodeToString([]byte(p.registry.Username + ":" + p.registry.Password))
		fmt.Fprintf(&b, "//%s:_auth=%s\n", registryHost(p.registry.URL), token)
	}
	b.WriteString("strict-ssl=false\n")

	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("writing temporary .npmrc: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("writing temporary .npmrc: %w", err)
	}
	return f.Name(), nil
}

// registryHost strips the scheme and keeps the trailing slash, the form npm
// uses to scope per-registry credential lines.
func registryHost(url string) string {
	host := url
	if i := strings.Index(host, "//"); i >= 0 {
		host = host[i+2:]
	}
	return strings.TrimRight(host, "/") + "/"
}

func stderrSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 300 {
		s = s[:300] + "..."
	}
	return s
}
