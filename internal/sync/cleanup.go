package sync

import (
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// Removal can race straggling file handles right after a run, so it gets a
// couple of retries before giving up.
const cleanupRetries = 2

// cleanupScratch removes the scratch directory and everything in it. Failure
// leaves files behind but never fails the run.
func cleanupScratch(dir string, log *logrus.Entry) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return
	}

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(2*time.Second), cleanupRetries)
	err := backoff.Retry(func() error {
		return os.RemoveAll(dir)
	}, policy)
	if err != nil {
		log.WithError(err).WithField("dir", dir).Warn("Could not clean up scratch directory")
		log.Warn("Please remove the directory manually once open file handles are released")
		return
	}
	log.Info("Cleaned up temporary files")
}
