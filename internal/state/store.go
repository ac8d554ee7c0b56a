package state

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chmdznr/nexus-npm-sync/pkg/models"
)

// Store persists sync state as a single JSON document on disk. Each save is
// a complete snapshot of the run that wrote it, not an append.
type Store struct {
	path string
	log  *logrus.Entry
}

func NewStore(path string, log *logrus.Entry) *Store {
	return &Store{path: path, log: log}
}

// Load reads the previous run's state. A missing, unreadable or corrupt file
// yields the zero state, which callers treat as "sync everything"; state
// problems must never block a run.
func (s *Store) Load() models.SyncState {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.WithError(err).Warn("Could not read sync state file, starting full sync")
		}
		return models.SyncState{}
	}

	var st models.SyncState
	if err := json.Unmarshal(data, &st); err != nil {
		s.log.WithError(err).Warn("Sync state file is corrupt, starting full sync")
		return models.SyncState{}
	}
	if st.LastSyncDate != "" {
		s.log.WithField("last_sync", st.LastSyncDate).Info("Loaded sync state")
	}
	return st
}

// Save replaces the state with this run's records and stamps the cutoff for
// the next run. Callers only save after runs that synced at least one asset,
// so a run that moved nothing never advances the cutoff.
func (s *Store) Save(records []models.SyncRecord) error {
	st := models.SyncState{
		LastSyncDate: time.Now().UTC().Format(time.RFC3339),
		SyncedAssets: records,
		TotalSynced:  len(records),
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding sync state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing sync state: %w", err)
	}
	s.log.WithFields(logrus.Fields{"synced": len(records), "last_sync": st.LastSyncDate}).Info("Saved sync state")
	return nil
}
