package version

import (
	"testing"
)

func TestVersionVariables(t *testing.T) {
	vars := map[string]string{
		"Version":   Version,
		"GitCommit": GitCommit,
		"BuildTime": BuildTime,
	}
	for name, value := range vars {
		if value == "" {
			t.Errorf("%s should not be empty", name)
		}
	}

	if GitCommit != "unknown" && len(GitCommit) < 7 {
		t.Errorf("GitCommit '%s' seems invalid, should be 'unknown' or a git hash", GitCommit)
	}
}
