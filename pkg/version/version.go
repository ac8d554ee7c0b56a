package version

// Build information. Overridden at build time via -ldflags, e.g.
//
//	go build -ldflags "-X github.com/chmdznr/nexus-npm-sync/pkg/version.Version=v1.2.0"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)
