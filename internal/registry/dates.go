package registry

import (
	"errors"
	"fmt"
	"time"

	"github.com/araddon/dateparse"
)

// ParseRegistryDate normalizes the timestamp strings Nexus reports for
// assets. Nexus emits RFC 3339 variants: fractional or whole seconds, numeric
// offset or literal Z. Anything else falls through to a generic parse that
// treats zone-less input as UTC, which keeps cutoff comparisons best-effort
// rather than exact.
func ParseRegistryDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty date")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	t, err := dateparse.ParseAny(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q: %w", value, err)
	}
	return t, nil
}
